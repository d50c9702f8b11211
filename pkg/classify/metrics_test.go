package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moodsig/moodctl/pkg/data"
)

const (
	healthy = data.DiagnosisHealthy
	bipolar = data.DiagnosisBipolar
)

func TestAccuracy(t *testing.T) {
	want := []data.Diagnosis{healthy, healthy, bipolar, bipolar}

	acc, err := Accuracy(want, want)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)

	acc, err = Accuracy(want, []data.Diagnosis{healthy, bipolar, bipolar, healthy})
	require.NoError(t, err)
	assert.Equal(t, 0.5, acc)

	acc, err = Accuracy(want, []data.Diagnosis{bipolar, bipolar, healthy, healthy})
	require.NoError(t, err)
	assert.Equal(t, 0.0, acc)
}

func TestAccuracy_Errors(t *testing.T) {
	_, err := Accuracy(nil, nil)
	assert.Error(t, err)

	_, err = Accuracy([]data.Diagnosis{healthy}, []data.Diagnosis{healthy, bipolar})
	assert.Error(t, err)
}

func TestAUC_Perfect(t *testing.T) {
	want := []data.Diagnosis{healthy, healthy, bipolar, bipolar}

	auc, err := AUC(want, want, bipolar)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, auc, 1e-12)
}

func TestAUC_Inverted(t *testing.T) {
	want := []data.Diagnosis{healthy, healthy, bipolar, bipolar}
	got := []data.Diagnosis{bipolar, bipolar, healthy, healthy}

	auc, err := AUC(want, got, bipolar)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, auc, 1e-12)
}

func TestAUC_Chance(t *testing.T) {
	// one of each class right and wrong: balanced accuracy 0.5
	want := []data.Diagnosis{healthy, healthy, bipolar, bipolar}
	got := []data.Diagnosis{healthy, bipolar, healthy, bipolar}

	auc, err := AUC(want, got, bipolar)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, auc, 1e-12)
}

func TestAUC_Errors(t *testing.T) {
	// single-class truth
	_, err := AUC([]data.Diagnosis{healthy, healthy}, []data.Diagnosis{healthy, bipolar}, bipolar)
	assert.Error(t, err)

	// length mismatch
	_, err = AUC([]data.Diagnosis{healthy}, []data.Diagnosis{healthy, bipolar}, bipolar)
	assert.Error(t, err)

	_, err = AUC(nil, nil, bipolar)
	assert.Error(t, err)
}
