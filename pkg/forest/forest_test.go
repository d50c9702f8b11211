package forest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrain_Errors(t *testing.T) {
	_, err := Train(nil, nil, Config{})
	assert.Error(t, err)

	_, err = Train([][]float64{{1}}, [][]float64{}, Config{})
	assert.Error(t, err)

	_, err = Train([][]float64{{1, 2}, {3}}, [][]float64{{1}, {1}}, Config{})
	assert.Error(t, err)

	_, err = Train([][]float64{{1}, {2}}, [][]float64{{1}, {1, 2}}, Config{})
	assert.Error(t, err)
}

func TestTrain_ConstantTarget(t *testing.T) {
	x := [][]float64{{1, 0}, {2, 1}, {3, 0}, {4, 1}}
	y := [][]float64{{5, -2}, {5, -2}, {5, -2}, {5, -2}}

	f, err := Train(x, y, Config{Trees: 10, Seed: 1})
	require.NoError(t, err)

	p, err := f.Predict([]float64{2.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, p[0], 1e-9)
	assert.InDelta(t, -2.0, p[1], 1e-9)
}

func TestTrain_LearnsThresholdSplit(t *testing.T) {
	// Target depends only on the sign of the first feature.
	rng := rand.New(rand.NewSource(42))
	var x [][]float64
	var y [][]float64
	for i := 0; i < 200; i++ {
		v := rng.Float64()*2 - 1
		noise := rng.Float64()
		x = append(x, []float64{v, noise})
		if v < 0 {
			y = append(y, []float64{1, 0})
		} else {
			y = append(y, []float64{0, 1})
		}
	}

	f, err := Train(x, y, Config{Trees: 30, Seed: 7})
	require.NoError(t, err)

	p, err := f.Predict([]float64{-0.5, 0.5})
	require.NoError(t, err)
	assert.Greater(t, p[0], 0.9)
	assert.Less(t, p[1], 0.1)

	p, err = f.Predict([]float64{0.5, 0.5})
	require.NoError(t, err)
	assert.Less(t, p[0], 0.1)
	assert.Greater(t, p[1], 0.9)
}

func TestTrain_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var x [][]float64
	var y [][]float64
	for i := 0; i < 50; i++ {
		a, b := rng.Float64(), rng.Float64()
		x = append(x, []float64{a, b})
		y = append(y, []float64{a + b})
	}

	cfg := Config{Trees: 20, Seed: 99, OOB: true}
	f1, err := Train(x, y, cfg)
	require.NoError(t, err)
	f2, err := Train(x, y, cfg)
	require.NoError(t, err)

	probe := []float64{0.3, 0.6}
	p1, err := f1.Predict(probe)
	require.NoError(t, err)
	p2, err := f2.Predict(probe)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	s1, ok1 := f1.OOBScore()
	s2, ok2 := f2.OOBScore()
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, s1, s2)
}

func TestTrain_OOBScore(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	var x [][]float64
	var y [][]float64
	for i := 0; i < 100; i++ {
		v := rng.Float64()
		x = append(x, []float64{v, rng.Float64()})
		y = append(y, []float64{v * 2})
	}

	f, err := Train(x, y, Config{Trees: 50, Seed: 5, OOB: true})
	require.NoError(t, err)

	score, ok := f.OOBScore()
	require.True(t, ok)
	assert.Greater(t, score, 0.5)
	assert.LessOrEqual(t, score, 1.0)

	// no OOB requested
	f2, err := Train(x, y, Config{Trees: 5, Seed: 5})
	require.NoError(t, err)
	_, ok = f2.OOBScore()
	assert.False(t, ok)
}

func TestPredict_Errors(t *testing.T) {
	f, err := Train([][]float64{{1, 2}, {3, 4}}, [][]float64{{1}, {2}}, Config{Trees: 2, Seed: 1})
	require.NoError(t, err)

	_, err = f.Predict([]float64{1})
	assert.Error(t, err)

	_, err = f.PredictBatch([][]float64{{1, 2}, {3}})
	assert.Error(t, err)
}

func TestPredictBatch(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}}
	y := [][]float64{{0}, {1}, {2}, {3}}
	f, err := Train(x, y, Config{Trees: 10, Seed: 2})
	require.NoError(t, err)

	out, err := f.PredictBatch(x)
	require.NoError(t, err)
	require.Len(t, out, 4)
	for i := range out {
		require.Len(t, out[i], 1)
	}
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}.withDefaults(10)
	assert.Equal(t, TreesDefault, c.Trees)
	assert.Equal(t, 1, c.MinLeaf)
	assert.Equal(t, 10, c.MaxFeatures)

	c = Config{MaxFeatures: 99}.withDefaults(10)
	assert.Equal(t, 10, c.MaxFeatures)
}
