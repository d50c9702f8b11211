package classify

import (
	"fmt"
	"log/slog"

	"github.com/moodsig/moodctl/pkg/cohort"
	"github.com/moodsig/moodctl/pkg/data"
)

// Runner evaluates the classifier on pairs of clinical groups, one pair
// at a time: build the train / out-of-sample sets, fit, score.
type Runner struct {
	Anchors Anchors
	Params  Params
	Split   cohort.SplitConfig
}

// Report collects per-pair results plus accuracy and AUC lookup tables
// indexed by group pair.
type Report struct {
	Pairs    []*data.PairResult                            `json:"pairs" yaml:"pairs"`
	Accuracy map[data.Diagnosis]map[data.Diagnosis]float64 `json:"accuracy" yaml:"accuracy"`
	AUC      map[data.Diagnosis]map[data.Diagnosis]float64 `json:"auc" yaml:"auc"`
}

// AllPairs returns the three unordered group pairs in canonical order.
func AllPairs() [][2]data.Diagnosis {
	groups := data.Groups()
	var pairs [][2]data.Diagnosis
	for i, g1 := range groups {
		for _, g2 := range groups[i+1:] {
			pairs = append(pairs, [2]data.Diagnosis{g1, g2})
		}
	}
	return pairs
}

// EvaluatePair runs the full pipeline for one pair of groups.
// The second group of the pair is the positive class for AUC.
func (r *Runner) EvaluatePair(parts []*data.Participant, pair [2]data.Diagnosis) (*data.PairResult, error) {
	slog.Info("building train and out-of-sample sets", "group_a", pair[0], "group_b", pair[1])
	train, oos, err := cohort.Split(parts, pair, r.Split)
	if err != nil {
		return nil, fmt.Errorf("failed to split %s/%s: %w", pair[0], pair[1], err)
	}

	slog.Info("training the model", "pair", fmt.Sprintf("%s/%s", pair[0], pair[1]),
		"train_samples", len(train), "test_samples", len(oos))
	model, err := Fit(train, pair, r.Anchors, r.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to fit %s/%s: %w", pair[0], pair[1], err)
	}

	slog.Info("testing the model", "pair", fmt.Sprintf("%s/%s", pair[0], pair[1]))
	want := make([]data.Diagnosis, len(oos))
	got := make([]data.Diagnosis, len(oos))
	for i, s := range oos {
		want[i] = s.Diagnosis
		got[i], err = model.Classify(s.Stream)
		if err != nil {
			return nil, fmt.Errorf("failed to classify sample %d (%s): %w", i, s.ParticipantID, err)
		}
	}

	acc, err := Accuracy(want, got)
	if err != nil {
		return nil, err
	}
	auc, err := AUC(want, got, pair[1])
	if err != nil {
		return nil, err
	}

	res := &data.PairResult{
		GroupA:       pair[0],
		GroupB:       pair[1],
		Accuracy:     acc,
		AUC:          auc,
		TrainSamples: len(train),
		TestSamples:  len(oos),
	}
	if score, ok := model.OOBScore(); ok {
		res.OOBScore = &score
	}

	return res, nil
}

// Evaluate runs EvaluatePair for each requested pair sequentially and
// assembles the report tables.
func (r *Runner) Evaluate(parts []*data.Participant, pairs [][2]data.Diagnosis) (*Report, error) {
	if len(pairs) == 0 {
		pairs = AllPairs()
	}

	rep := &Report{
		Pairs:    make([]*data.PairResult, 0, len(pairs)),
		Accuracy: make(map[data.Diagnosis]map[data.Diagnosis]float64),
		AUC:      make(map[data.Diagnosis]map[data.Diagnosis]float64),
	}

	for _, pair := range pairs {
		res, err := r.EvaluatePair(parts, pair)
		if err != nil {
			return nil, err
		}
		rep.Pairs = append(rep.Pairs, res)

		if rep.Accuracy[pair[0]] == nil {
			rep.Accuracy[pair[0]] = make(map[data.Diagnosis]float64)
		}
		if rep.AUC[pair[0]] == nil {
			rep.AUC[pair[0]] = make(map[data.Diagnosis]float64)
		}
		rep.Accuracy[pair[0]][pair[1]] = res.Accuracy
		rep.AUC[pair[0]][pair[1]] = res.AUC
	}

	return rep, nil
}
