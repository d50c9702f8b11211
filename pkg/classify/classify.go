// Package classify implements the signature-based pairwise group
// classifier: a random-forest regressor maps each sample's path-signature
// features to a point on the plane, and the nearest group anchor decides
// the label.
package classify

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/moodsig/moodctl/pkg/cohort"
	"github.com/moodsig/moodctl/pkg/data"
	"github.com/moodsig/moodctl/pkg/forest"
	"github.com/moodsig/moodctl/pkg/signature"
)

const (
	// OrderDefault is the signature truncation order used by the study.
	OrderDefault = 2
)

// Point is an embedding point on the plane.
type Point [2]float64

// Anchors maps each clinical group to its target embedding point.
type Anchors map[data.Diagnosis]Point

// DefaultAnchors returns the anchor points found by cross-validation in
// the original study: one per group, on or near the unit circle.
func DefaultAnchors() Anchors {
	return Anchors{
		data.DiagnosisHealthy:    {1, 0},
		data.DiagnosisBipolar:    {0, 1},
		data.DiagnosisBorderline: {-1 / math.Sqrt2, -1 / math.Sqrt2},
	}
}

// Params bundles the model hyperparameters.
type Params struct {
	Order  int
	Forest forest.Config
}

func (p Params) withDefaults() Params {
	if p.Order <= 0 {
		p.Order = OrderDefault
	}
	return p
}

// Model is a trained pairwise classifier.
type Model struct {
	pair    [2]data.Diagnosis
	anchors Anchors
	forest  *forest.Forest
	order   int
}

// Features computes the model input for a stream: the truncated signature
// of the time-augmented path.
func Features(stream [][]float64, order int) ([]float64, error) {
	return signature.Compute(signature.TimeAugment(stream), order)
}

// Fit trains a model on the given samples. Inputs are the signature
// features of each sample's stream; targets are the anchor point of the
// sample's group.
func Fit(train []cohort.Sample, pair [2]data.Diagnosis, anchors Anchors, p Params) (*Model, error) {
	if len(train) == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	p = p.withDefaults()

	for _, g := range pair {
		if _, ok := anchors[g]; !ok {
			return nil, fmt.Errorf("no anchor point for group %s", g)
		}
	}

	x := make([][]float64, 0, len(train))
	y := make([][]float64, 0, len(train))
	for i, s := range train {
		if s.Diagnosis != pair[0] && s.Diagnosis != pair[1] {
			return nil, fmt.Errorf("sample %d: group %s not in pair %s/%s", i, s.Diagnosis, pair[0], pair[1])
		}
		feat, err := Features(s.Stream, p.Order)
		if err != nil {
			return nil, fmt.Errorf("sample %d (%s): %w", i, s.ParticipantID, err)
		}
		a := anchors[s.Diagnosis]
		x = append(x, feat)
		y = append(y, []float64{a[0], a[1]})
	}

	f, err := forest.Train(x, y, p.Forest)
	if err != nil {
		return nil, fmt.Errorf("failed to train forest: %w", err)
	}

	return &Model{
		pair:    pair,
		anchors: anchors,
		forest:  f,
		order:   p.Order,
	}, nil
}

// Predict returns the raw embedding point the regressor places the
// stream at.
func (m *Model) Predict(stream [][]float64) (Point, error) {
	feat, err := Features(stream, m.order)
	if err != nil {
		return Point{}, err
	}
	out, err := m.forest.Predict(feat)
	if err != nil {
		return Point{}, err
	}
	return Point{out[0], out[1]}, nil
}

// Classify assigns the stream to the pair group whose anchor is nearest
// to the predicted embedding point. Ties resolve to the first group of
// the pair.
func (m *Model) Classify(stream [][]float64) (data.Diagnosis, error) {
	p, err := m.Predict(stream)
	if err != nil {
		return "", err
	}
	return m.nearest(p), nil
}

// OOBScore exposes the forest's out-of-bag score when one was computed.
func (m *Model) OOBScore() (float64, bool) {
	return m.forest.OOBScore()
}

func (m *Model) nearest(p Point) data.Diagnosis {
	best := m.pair[0]
	bestDist := math.Inf(1)
	for _, g := range m.pair {
		a := m.anchors[g]
		d := floats.Distance(p[:], a[:], 2)
		if d < bestDist {
			bestDist = d
			best = g
		}
	}
	return best
}
