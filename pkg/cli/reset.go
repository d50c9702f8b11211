package cli

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/moodsig/moodctl/pkg/data"
)

var (
	yesFlag = &cli.BoolFlag{
		Name:  "yes",
		Usage: "Skip the confirmation prompt",
	}

	resetCmd = &cli.Command{
		Name:            "reset",
		Usage:           "Delete all imported data and stored runs and start fresh",
		HideHelpCommand: true,
		Flags:           []cli.Flag{yesFlag},
		Action:          cmdReset,
	}
)

func cmdReset(c *cli.Context) error {
	cfg := getConfig(c)

	if !c.Bool(yesFlag.Name) {
		fmt.Printf("This will permanently delete all data in %s\n", cfg.DBPath)
		fmt.Print("Are you sure? [y/N]: ")

		reader := bufio.NewReader(os.Stdin)
		answer, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := data.ClearRuns(cfg.DB); err != nil {
		return fmt.Errorf("clearing runs: %w", err)
	}
	if err := data.ClearParticipants(cfg.DB); err != nil {
		return fmt.Errorf("clearing participants: %w", err)
	}

	slog.Info("database cleared", "path", cfg.DBPath)
	fmt.Println("Reset complete.")
	return nil
}
