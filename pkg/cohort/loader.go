// Package cohort loads participant mood time series from disk and turns
// them into labeled training samples: fixed-size observation windows with
// a deterministic participant-level train / out-of-sample split.
//
// The on-disk layout is one subdirectory per clinical group, one CSV file
// per participant:
//
//	<dir>/healthy/p001.csv
//	<dir>/bipolar/p014.csv
//	<dir>/borderline/p027.csv
//
// Each row is a self-report: date followed by the six mood scores
// (anxiety, elation, sadness, anger, irritability, energy) on the study's
// 1..7 scale. A header row is allowed and skipped.
package cohort

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/moodsig/moodctl/pkg/data"
)

const (
	dateLayout = "2006-01-02"

	scoreMin = 1
	scoreMax = 7

	loadConcurrency = 8
)

// Load scans the data directory and parses every participant file.
// Subdirectory names must be valid group names; anything else is an
// error. Files are parsed concurrently, results are ordered by ID.
func Load(ctx context.Context, dir string) ([]*data.Participant, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", dir, err)
	}

	type job struct {
		path      string
		id        string
		diagnosis data.Diagnosis
	}

	var jobs []job
	seen := make(map[string]string)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		diagnosis, err := data.ParseDiagnosis(e.Name())
		if err != nil {
			return nil, fmt.Errorf("directory %s: %w", filepath.Join(dir, e.Name()), err)
		}

		files, err := os.ReadDir(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read group directory %s: %w", e.Name(), err)
		}
		for _, fe := range files {
			if fe.IsDir() || !strings.HasSuffix(fe.Name(), ".csv") {
				continue
			}
			path := filepath.Join(dir, e.Name(), fe.Name())
			id := strings.TrimSuffix(fe.Name(), ".csv")

			// the store keys participants by ID, so a cohort reusing
			// per-group numbering would silently overwrite on import
			if prev, ok := seen[id]; ok {
				return nil, fmt.Errorf("duplicate participant ID %q: %s and %s", id, prev, path)
			}
			seen[id] = path

			jobs = append(jobs, job{
				path:      path,
				id:        id,
				diagnosis: diagnosis,
			})
		}
	}

	if len(jobs) == 0 {
		return nil, fmt.Errorf("no participant files found in %s", dir)
	}

	parts := make([]*data.Participant, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)

	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			obs, err := parseFile(j.path)
			if err != nil {
				return fmt.Errorf("%s: %w", j.path, err)
			}
			parts[i] = &data.Participant{
				ID:           j.id,
				Diagnosis:    j.diagnosis,
				Observations: obs,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(parts, func(a, b int) bool { return parts[a].ID < parts[b].ID })

	return parts, nil
}

func parseFile(path string) ([]*data.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 1 + data.ScoreCount
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}

	obs := make([]*data.Observation, 0, len(records))
	for line, rec := range records {
		if line == 0 && isHeader(rec) {
			continue
		}

		if _, err := time.Parse(dateLayout, rec[0]); err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q", line+1, rec[0])
		}

		o := &data.Observation{Seq: len(obs), Date: rec[0]}
		for i := 0; i < data.ScoreCount; i++ {
			v, err := strconv.ParseFloat(rec[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s score %q", line+1, data.ScoreNames[i], rec[i+1])
			}
			if v < scoreMin || v > scoreMax {
				return nil, fmt.Errorf("line %d: %s score %v out of range [%d, %d]",
					line+1, data.ScoreNames[i], v, scoreMin, scoreMax)
			}
			o.Scores[i] = v
		}
		obs = append(obs, o)
	}

	return obs, nil
}

func isHeader(rec []string) bool {
	_, err := time.Parse(dateLayout, rec[0])
	return err != nil
}

// Normalize maps a raw 1..7 mood score onto [-1, 1].
func Normalize(score float64) float64 {
	return (score - 4) / 3
}
