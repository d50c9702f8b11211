package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Run records the parameters of one evaluation invocation. PairResult
// rows hang off it, one per classified group pair.
type Run struct {
	ID       int64   `json:"id" yaml:"id"`
	Created  string  `json:"created" yaml:"created"`
	Window   int     `json:"window" yaml:"window"`
	Order    int     `json:"order" yaml:"order"`
	Trees    int     `json:"trees" yaml:"trees"`
	Training float64 `json:"training" yaml:"training"`
	Seed     int64   `json:"seed" yaml:"seed"`
	Duration string  `json:"duration" yaml:"duration"`
}

type PairResult struct {
	RunID        int64     `json:"run_id,omitempty" yaml:"runId,omitempty"`
	GroupA       Diagnosis `json:"group_a" yaml:"groupA"`
	GroupB       Diagnosis `json:"group_b" yaml:"groupB"`
	Accuracy     float64   `json:"accuracy" yaml:"accuracy"`
	AUC          float64   `json:"auc" yaml:"auc"`
	TrainSamples int       `json:"train_samples" yaml:"trainSamples"`
	TestSamples  int       `json:"test_samples" yaml:"testSamples"`
	OOBScore     *float64  `json:"oob_score,omitempty" yaml:"oobScore,omitempty"`
}

const (
	insertRunSQL = `INSERT INTO run (created, win_size, sig_order, trees, training, seed, duration)
			VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	insertResultSQL = `INSERT INTO result (
				run_id, group_a, group_b, accuracy, auc,
				train_samples, test_samples, oob_score
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectRunsSQL = `SELECT id, created, win_size, sig_order, trees, training, seed, duration
			FROM run
			ORDER BY id DESC
			LIMIT ?
	`

	selectRunResultsSQL = `SELECT run_id, group_a, group_b, accuracy, auc,
				train_samples, test_samples, oob_score
			FROM result
			WHERE run_id = ?
			ORDER BY group_a, group_b
	`
)

// SaveRun persists the run and its pair results, returning the run ID.
func SaveRun(db *sql.DB, run *Run, results []*PairResult) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	if run == nil {
		return 0, errors.New("run required")
	}

	if run.Created == "" {
		run.Created = time.Now().UTC().Format(time.RFC3339)
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	res, err := tx.Exec(insertRunSQL, run.Created, run.Window, run.Order,
		run.Trees, run.Training, run.Seed, run.Duration)
	if err != nil {
		rollbackTransaction(tx)
		return 0, fmt.Errorf("error inserting run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		rollbackTransaction(tx)
		return 0, fmt.Errorf("error getting run id: %w", err)
	}

	for i, r := range results {
		if _, err = tx.Exec(insertResultSQL, id, r.GroupA, r.GroupB,
			r.Accuracy, r.AUC, r.TrainSamples, r.TestSamples, r.OOBScore); err != nil {
			rollbackTransaction(tx)
			return 0, fmt.Errorf("error inserting result[%d]: %s/%s: %w", i, r.GroupA, r.GroupB, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	run.ID = id
	return id, nil
}

// GetRuns returns the most recent runs, newest first.
func GetRuns(db *sql.DB, limit int) ([]*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectRunsSQL, limit)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to execute run select statement: %w", err)
	}
	defer rows.Close()

	list := make([]*Run, 0)
	for rows.Next() {
		r := &Run{}
		if err := rows.Scan(&r.ID, &r.Created, &r.Window, &r.Order,
			&r.Trees, &r.Training, &r.Seed, &r.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return list, nil
}

// GetRunResults returns the pair results stored for a run.
func GetRunResults(db *sql.DB, runID int64) ([]*PairResult, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectRunResultsSQL, runID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to execute result select statement: %w", err)
	}
	defer rows.Close()

	list := make([]*PairResult, 0)
	for rows.Next() {
		r := &PairResult{}
		if err := rows.Scan(&r.RunID, &r.GroupA, &r.GroupB, &r.Accuracy,
			&r.AUC, &r.TrainSamples, &r.TestSamples, &r.OOBScore); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return list, nil
}

// ClearRuns removes all stored runs and results.
func ClearRuns(db *sql.DB) error {
	if db == nil {
		return errDBNotInitialized
	}
	if _, err := db.Exec(`DELETE FROM result`); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM run`); err != nil {
		return fmt.Errorf("failed to clear runs: %w", err)
	}
	return nil
}
