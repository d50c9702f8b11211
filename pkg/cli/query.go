package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/moodsig/moodctl/pkg/data"
)

const (
	queryResultLimitDefault = 100
)

var (
	queryLimitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Limits number of results returned",
		Value: queryResultLimitDefault,
	}

	participantLikeFlag = &cli.StringFlag{
		Name:  "like",
		Usage: "Fuzzy search participants by ID or diagnosis",
	}

	runIDFlag = &cli.Int64Flag{
		Name:     "run",
		Usage:    "Run ID",
		Required: true,
	}

	queryCmd = &cli.Command{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "List data query operations",
		Subcommands: []*cli.Command{
			{
				Name:    "participants",
				Usage:   "List imported participants",
				Aliases: []string{"p"},
				Action:  cmdQueryParticipants,
				Flags: []cli.Flag{
					participantLikeFlag,
					queryLimitFlag,
				},
			},
			{
				Name:    "runs",
				Usage:   "List stored evaluation runs, newest first",
				Aliases: []string{"r"},
				Action:  cmdQueryRuns,
				Flags: []cli.Flag{
					queryLimitFlag,
				},
			},
			{
				Name:    "results",
				Usage:   "Get the pair results of a specific run",
				Aliases: []string{"res"},
				Action:  cmdQueryResults,
				Flags: []cli.Flag{
					runIDFlag,
				},
			},
		},
	}
)

func queryLimit(c *cli.Context) int {
	limit := c.Int(queryLimitFlag.Name)
	if limit <= 0 || limit > queryResultLimitDefault {
		limit = queryResultLimitDefault
	}
	return limit
}

func cmdQueryParticipants(c *cli.Context) error {
	cfg := getConfig(c)

	list, err := data.SearchParticipants(cfg.DB, c.String(participantLikeFlag.Name), queryLimit(c))
	if err != nil {
		return fmt.Errorf("failed to query participants: %w", err)
	}

	if err := getEncoder().Encode(list); err != nil {
		return fmt.Errorf("error encoding list: %+v: %w", list, err)
	}

	return nil
}

func cmdQueryRuns(c *cli.Context) error {
	cfg := getConfig(c)

	list, err := data.GetRuns(cfg.DB, queryLimit(c))
	if err != nil {
		return fmt.Errorf("failed to query runs: %w", err)
	}

	if err := getEncoder().Encode(list); err != nil {
		return fmt.Errorf("error encoding list: %+v: %w", list, err)
	}

	return nil
}

func cmdQueryResults(c *cli.Context) error {
	cfg := getConfig(c)

	list, err := data.GetRunResults(cfg.DB, c.Int64(runIDFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to query results: %w", err)
	}

	if err := getEncoder().Encode(list); err != nil {
		return fmt.Errorf("error encoding list: %+v: %w", list, err)
	}

	return nil
}
