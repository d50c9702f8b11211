package classify

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"github.com/moodsig/moodctl/pkg/data"
)

// Accuracy is the fraction of predictions matching the true labels.
func Accuracy(want, got []data.Diagnosis) (float64, error) {
	if len(want) == 0 || len(want) != len(got) {
		return 0, fmt.Errorf("label count mismatch: %d != %d", len(want), len(got))
	}
	hits := 0
	for i := range want {
		if want[i] == got[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(want)), nil
}

// AUC computes the area under the ROC curve of the predicted labels
// against the true ones, with the given group as the positive class.
// Predictions are hard labels (scored 0 or 1), matching the original
// evaluation; both classes must be present in want.
func AUC(want, got []data.Diagnosis, positive data.Diagnosis) (float64, error) {
	if len(want) == 0 || len(want) != len(got) {
		return 0, fmt.Errorf("label count mismatch: %d != %d", len(want), len(got))
	}

	scores := make([]float64, len(got))
	classes := make([]bool, len(want))
	pos := 0
	for i := range want {
		if got[i] == positive {
			scores[i] = 1
		}
		if want[i] == positive {
			classes[i] = true
			pos++
		}
	}
	if pos == 0 || pos == len(want) {
		return 0, fmt.Errorf("AUC undefined: positive class %s covers %d of %d samples", positive, pos, len(want))
	}

	// stat.ROC wants scores in ascending order
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	sortedScores := make([]float64, len(scores))
	sortedClasses := make([]bool, len(classes))
	for i, j := range idx {
		sortedScores[i] = scores[j]
		sortedClasses[i] = classes[j]
	}

	tpr, fpr, _ := stat.ROC(nil, sortedScores, sortedClasses, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}
