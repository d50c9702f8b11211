package cohort

import (
	"fmt"
	"math/rand"

	"github.com/moodsig/moodctl/pkg/data"
)

const (
	// WindowDefault is the number of consecutive observations per sample,
	// as used in the original study.
	WindowDefault = 20

	// TrainingDefault is the training fraction of participants.
	TrainingDefault = 0.7

	// SeedDefault pins the split shuffle for reproducible results.
	SeedDefault = 83042
)

// Sample is one classification unit: a window of consecutive normalized
// observations from a single participant, labeled with that participant's
// clinical group. Stream points are in ScoreNames order, scaled to [-1, 1].
type Sample struct {
	ParticipantID string
	Diagnosis     data.Diagnosis
	Stream        [][]float64
}

// SplitConfig controls windowing and the train / out-of-sample split.
// Zero values fall back to the defaults above.
type SplitConfig struct {
	Window   int
	Training float64
	Seed     int64
}

func (c SplitConfig) withDefaults() SplitConfig {
	if c.Window <= 0 {
		c.Window = WindowDefault
	}
	if c.Training <= 0 || c.Training >= 1 {
		c.Training = TrainingDefault
	}
	if c.Seed == 0 {
		c.Seed = SeedDefault
	}
	return c
}

// Windows cuts a participant's observations into non-overlapping samples
// of the given size. A trailing partial window is dropped; participants
// with fewer than window observations yield nothing.
func Windows(p *data.Participant, window int) []Sample {
	if window <= 0 || p == nil {
		return nil
	}

	n := len(p.Observations) / window
	samples := make([]Sample, 0, n)
	for w := 0; w < n; w++ {
		stream := make([][]float64, window)
		for i := 0; i < window; i++ {
			o := p.Observations[w*window+i]
			point := make([]float64, data.ScoreCount)
			for j, s := range o.Scores {
				point[j] = Normalize(s)
			}
			stream[i] = point
		}
		samples = append(samples, Sample{
			ParticipantID: p.ID,
			Diagnosis:     p.Diagnosis,
			Stream:        stream,
		})
	}
	return samples
}

// Split builds the training and out-of-sample sets for a pair of groups.
// The split happens at the participant level with a seeded shuffle, so no
// window of an out-of-sample participant ever appears in training. Within
// each group the training fraction of participants (at least one, and at
// least one held out) goes to training.
func Split(parts []*data.Participant, groups [2]data.Diagnosis, cfg SplitConfig) (train, oos []Sample, err error) {
	if groups[0] == groups[1] {
		return nil, nil, fmt.Errorf("pair must name two distinct groups: %s", groups[0])
	}
	cfg = cfg.withDefaults()

	rng := rand.New(rand.NewSource(cfg.Seed))

	for _, g := range groups {
		var members []*data.Participant
		for _, p := range parts {
			if p.Diagnosis == g {
				members = append(members, p)
			}
		}
		if len(members) < 2 {
			return nil, nil, fmt.Errorf("group %s: need at least 2 participants, have %d", g, len(members))
		}

		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})

		cut := int(float64(len(members)) * cfg.Training)
		if cut < 1 {
			cut = 1
		}
		if cut >= len(members) {
			cut = len(members) - 1
		}

		var nTrain, nOOS int
		for i, p := range members {
			samples := Windows(p, cfg.Window)
			if i < cut {
				train = append(train, samples...)
				nTrain += len(samples)
			} else {
				oos = append(oos, samples...)
				nOOS += len(samples)
			}
		}
		if nTrain == 0 || nOOS == 0 {
			return nil, nil, fmt.Errorf("group %s: not enough observations for window %d (train=%d, oos=%d samples)",
				g, cfg.Window, nTrain, nOOS)
		}
	}

	return train, oos, nil
}
