package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/moodsig/moodctl/pkg/classify"
	"github.com/moodsig/moodctl/pkg/cohort"
	"github.com/moodsig/moodctl/pkg/data"
	"github.com/moodsig/moodctl/pkg/forest"
)

var (
	pairFlag = &cli.StringSliceFlag{
		Name:  "pair",
		Usage: "Group pair to classify, e.g. healthy,bipolar (can be specified multiple times, default: all pairs)",
	}

	windowFlag = &cli.IntFlag{
		Name:  "window",
		Usage: "Observations per sample window (default from config)",
	}

	orderFlag = &cli.IntFlag{
		Name:  "order",
		Usage: "Signature truncation order (default from config)",
	}

	treesFlag = &cli.IntFlag{
		Name:  "trees",
		Usage: "Number of trees in the random forest (default from config)",
	}

	trainingFlag = &cli.Float64Flag{
		Name:  "training",
		Usage: "Training fraction of participants (default from config)",
	}

	seedFlag = &cli.Int64Flag{
		Name:  "seed",
		Usage: "Random seed for splits and training (default from config)",
	}

	noSaveFlag = &cli.BoolFlag{
		Name:  "no-save",
		Usage: "Do not persist the run in the local database",
	}

	evalCmd = &cli.Command{
		Name:    "eval",
		Aliases: []string{"e"},
		Usage:   "Run the pairwise classification and report accuracy/AUC per group pair",
		UsageText: `moodctl eval                                  # all three group pairs
   moodctl eval --pair healthy,bipolar           # one pair
   moodctl eval --window 20 --order 2 --seed 1   # override parameters`,
		Action: cmdEval,
		Flags: []cli.Flag{
			pairFlag,
			windowFlag,
			orderFlag,
			treesFlag,
			trainingFlag,
			seedFlag,
			noSaveFlag,
		},
	}
)

type EvalResult struct {
	RunID    int64            `json:"run_id,omitempty" yaml:"runId,omitempty"`
	Window   int              `json:"window" yaml:"window"`
	Order    int              `json:"order" yaml:"order"`
	Trees    int              `json:"trees" yaml:"trees"`
	Training float64          `json:"training" yaml:"training"`
	Seed     int64            `json:"seed" yaml:"seed"`
	Report   *classify.Report `json:"report" yaml:"report"`
	Duration string           `json:"duration" yaml:"duration"`
}

func cmdEval(c *cli.Context) error {
	start := time.Now()
	cfg := getConfig(c)

	window := c.Int(windowFlag.Name)
	if window == 0 {
		window = cfg.Conf.Window
	}
	order := c.Int(orderFlag.Name)
	if order == 0 {
		order = cfg.Conf.Order
	}
	trees := c.Int(treesFlag.Name)
	if trees == 0 {
		trees = cfg.Conf.Trees
	}
	training := c.Float64(trainingFlag.Name)
	if training == 0 {
		training = cfg.Conf.Training
	}
	seed := c.Int64(seedFlag.Name)
	if seed == 0 {
		seed = cfg.Conf.Seed
	}

	pairs, err := parsePairs(c.StringSlice(pairFlag.Name))
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		pairs = classify.AllPairs()
	}

	parts, err := loadParticipants(cfg, pairs)
	if err != nil {
		return err
	}

	runner := &classify.Runner{
		Anchors: classify.DefaultAnchors(),
		Params: classify.Params{
			Order: order,
			Forest: forest.Config{
				Trees: trees,
				Seed:  seed,
				OOB:   cfg.Conf.OOB,
			},
		},
		Split: cohort.SplitConfig{
			Window:   window,
			Training: training,
			Seed:     seed,
		},
	}

	report, err := runner.Evaluate(parts, pairs)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	res := &EvalResult{
		Window:   window,
		Order:    order,
		Trees:    trees,
		Training: training,
		Seed:     seed,
		Report:   report,
		Duration: time.Since(start).String(),
	}

	if !c.Bool(noSaveFlag.Name) {
		run := &data.Run{
			Window:   window,
			Order:    order,
			Trees:    trees,
			Training: training,
			Seed:     seed,
			Duration: res.Duration,
		}
		id, err := data.SaveRun(cfg.DB, run, report.Pairs)
		if err != nil {
			slog.Error("failed to save run", "error", err)
		} else {
			res.RunID = id
		}
	}

	if err := getEncoder().Encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}

// parsePairs turns "healthy,bipolar" strings into diagnosis pairs.
func parsePairs(vals []string) ([][2]data.Diagnosis, error) {
	var pairs [][2]data.Diagnosis
	for _, v := range vals {
		names := strings.Split(v, ",")
		if len(names) != 2 {
			return nil, fmt.Errorf("invalid pair %q: expected two comma-separated groups", v)
		}
		g1, err := data.ParseDiagnosis(strings.TrimSpace(names[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid pair %q: %w", v, err)
		}
		g2, err := data.ParseDiagnosis(strings.TrimSpace(names[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid pair %q: %w", v, err)
		}
		if g1 == g2 {
			return nil, fmt.Errorf("invalid pair %q: groups must differ", v)
		}
		pairs = append(pairs, [2]data.Diagnosis{g1, g2})
	}
	return pairs, nil
}

// loadParticipants fetches every group referenced by the requested pairs.
func loadParticipants(cfg *appConfig, pairs [][2]data.Diagnosis) ([]*data.Participant, error) {
	seen := make(map[data.Diagnosis]bool)
	var parts []*data.Participant
	for _, pair := range pairs {
		for _, g := range pair {
			if seen[g] {
				continue
			}
			seen[g] = true

			list, err := data.GetParticipantsByDiagnosis(cfg.DB, g)
			if err != nil {
				return nil, fmt.Errorf("failed to load group %s: %w", g, err)
			}
			if len(list) == 0 {
				return nil, fmt.Errorf("no participants imported for group %s (run moodctl import first)", g)
			}
			slog.Info("loaded group", "group", g, "participants", len(list))
			parts = append(parts, list...)
		}
	}
	return parts, nil
}
