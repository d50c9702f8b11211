// Package forest implements a random-forest regressor with vector-valued
// targets: an ensemble of CART regression trees grown on bootstrap samples,
// averaged at prediction time. Multi-output support is what the embedding
// regression needs (each sample maps to a point on the plane).
package forest

import (
	"fmt"
	"math/rand"
)

const (
	TreesDefault = 100
)

// Config controls forest training. Zero values fall back to defaults:
// 100 trees, unlimited depth, leaves of one sample, all features
// considered at every split.
type Config struct {
	Trees       int   `json:"trees" yaml:"trees"`
	MaxDepth    int   `json:"max_depth,omitempty" yaml:"maxDepth,omitempty"`
	MinLeaf     int   `json:"min_leaf,omitempty" yaml:"minLeaf,omitempty"`
	MaxFeatures int   `json:"max_features,omitempty" yaml:"maxFeatures,omitempty"`
	Seed        int64 `json:"seed" yaml:"seed"`
	OOB         bool  `json:"oob" yaml:"oob"`
}

func (c Config) withDefaults(nFeatures int) Config {
	if c.Trees <= 0 {
		c.Trees = TreesDefault
	}
	if c.MinLeaf <= 0 {
		c.MinLeaf = 1
	}
	if c.MaxFeatures <= 0 || c.MaxFeatures > nFeatures {
		c.MaxFeatures = nFeatures
	}
	return c
}

// Forest is a trained ensemble. Safe for concurrent prediction.
type Forest struct {
	cfg       Config
	trees     []*tree
	nFeatures int
	nOutputs  int
	oobScore  float64
	hasOOB    bool
}

// Train grows a forest on x (samples by features) and y (samples by
// outputs). Training is deterministic for a fixed seed and input order.
func Train(x [][]float64, y [][]float64, cfg Config) (*Forest, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("sample count mismatch: %d inputs, %d targets", len(x), len(y))
	}
	nFeatures := len(x[0])
	nOutputs := len(y[0])
	if nFeatures == 0 || nOutputs == 0 {
		return nil, fmt.Errorf("empty feature or target vector")
	}
	for i := range x {
		if len(x[i]) != nFeatures {
			return nil, fmt.Errorf("sample %d: feature count mismatch: %d != %d", i, len(x[i]), nFeatures)
		}
		if len(y[i]) != nOutputs {
			return nil, fmt.Errorf("sample %d: target size mismatch: %d != %d", i, len(y[i]), nOutputs)
		}
	}

	cfg = cfg.withDefaults(nFeatures)
	rng := rand.New(rand.NewSource(cfg.Seed))

	f := &Forest{
		cfg:       cfg,
		trees:     make([]*tree, 0, cfg.Trees),
		nFeatures: nFeatures,
		nOutputs:  nOutputs,
	}

	n := len(x)
	var oobSum [][]float64
	var oobCount []int
	if cfg.OOB {
		oobSum = make([][]float64, n)
		for i := range oobSum {
			oobSum[i] = make([]float64, nOutputs)
		}
		oobCount = make([]int, n)
	}

	features := make([]int, nFeatures)
	for i := range features {
		features[i] = i
	}

	bag := make([]int, n)
	inBag := make([]bool, n)
	for t := 0; t < cfg.Trees; t++ {
		for i := range inBag {
			inBag[i] = false
		}
		for i := range bag {
			j := rng.Intn(n)
			bag[i] = j
			inBag[j] = true
		}

		g := &grower{
			x:           x,
			y:           y,
			maxDepth:    cfg.MaxDepth,
			minLeaf:     cfg.MinLeaf,
			maxFeatures: cfg.MaxFeatures,
			rng:         rand.New(rand.NewSource(rng.Int63())),
			features:    features,
		}
		tr := &tree{root: g.grow(append([]int(nil), bag...), 0)}
		f.trees = append(f.trees, tr)

		if cfg.OOB {
			for i := 0; i < n; i++ {
				if inBag[i] {
					continue
				}
				p := tr.predict(x[i])
				for o, v := range p {
					oobSum[i][o] += v
				}
				oobCount[i]++
			}
		}
	}

	if cfg.OOB {
		f.oobScore, f.hasOOB = oobR2(y, oobSum, oobCount)
	}

	return f, nil
}

// Predict returns the forest output for a single feature vector:
// the mean of the per-tree leaf values.
func (f *Forest) Predict(v []float64) ([]float64, error) {
	if len(v) != f.nFeatures {
		return nil, fmt.Errorf("feature count mismatch: %d != %d", len(v), f.nFeatures)
	}
	out := make([]float64, f.nOutputs)
	for _, t := range f.trees {
		for o, p := range t.predict(v) {
			out[o] += p
		}
	}
	inv := 1.0 / float64(len(f.trees))
	for o := range out {
		out[o] *= inv
	}
	return out, nil
}

func (f *Forest) PredictBatch(xs [][]float64) ([][]float64, error) {
	out := make([][]float64, len(xs))
	for i, v := range xs {
		p, err := f.Predict(v)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// OOBScore returns the out-of-bag R2 score (averaged over outputs) and
// whether one was computed. Training with few trees can leave samples
// without any out-of-bag prediction; those are excluded.
func (f *Forest) OOBScore() (float64, bool) {
	return f.oobScore, f.hasOOB
}

// oobR2 computes R2 of the accumulated out-of-bag predictions against the
// targets, uniformly averaged over outputs.
func oobR2(y [][]float64, sum [][]float64, count []int) (float64, bool) {
	nOutputs := len(y[0])
	used := 0
	mean := make([]float64, nOutputs)
	for i := range y {
		if count[i] == 0 {
			continue
		}
		used++
		for o, v := range y[i] {
			mean[o] += v
		}
	}
	if used < 2 {
		return 0, false
	}
	for o := range mean {
		mean[o] /= float64(used)
	}

	score := 0.0
	for o := 0; o < nOutputs; o++ {
		var ssRes, ssTot float64
		for i := range y {
			if count[i] == 0 {
				continue
			}
			pred := sum[i][o] / float64(count[i])
			dr := y[i][o] - pred
			dt := y[i][o] - mean[o]
			ssRes += dr * dr
			ssTot += dt * dt
		}
		if ssTot == 0 {
			// constant target: perfect iff residuals vanish
			if ssRes == 0 {
				score += 1
			}
			continue
		}
		score += 1 - ssRes/ssTot
	}
	return score / float64(nOutputs), true
}
