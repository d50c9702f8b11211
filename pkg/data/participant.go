package data

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Diagnosis is the clinical group a participant was linked with at the
// beginning of the study.
type Diagnosis string

const (
	DiagnosisHealthy    Diagnosis = "healthy"
	DiagnosisBipolar    Diagnosis = "bipolar"
	DiagnosisBorderline Diagnosis = "borderline"

	// ScoreCount is the number of self-reported mood categories
	// per observation.
	ScoreCount = 6
)

// ScoreNames are the mood categories in column and stream order.
var ScoreNames = [ScoreCount]string{
	"anxiety", "elation", "sadness", "anger", "irritability", "energy",
}

// Groups returns all diagnoses in canonical order.
func Groups() []Diagnosis {
	return []Diagnosis{DiagnosisHealthy, DiagnosisBipolar, DiagnosisBorderline}
}

func ParseDiagnosis(s string) (Diagnosis, error) {
	d := Diagnosis(s)
	if !Contains(Groups(), d) {
		return "", fmt.Errorf("unknown diagnosis: %q", s)
	}
	return d, nil
}

// Observation is one self-report: a date and the six mood scores on the
// study's 1..7 scale, in ScoreNames order.
type Observation struct {
	Seq    int                 `json:"seq" yaml:"seq"`
	Date   string              `json:"date" yaml:"date"`
	Scores [ScoreCount]float64 `json:"scores" yaml:"scores"`
}

type Participant struct {
	ID           string         `json:"id" yaml:"id"`
	Diagnosis    Diagnosis      `json:"diagnosis" yaml:"diagnosis"`
	Imported     string         `json:"imported,omitempty" yaml:"imported,omitempty"`
	Observations []*Observation `json:"observations,omitempty" yaml:"observations,omitempty"`
}

type ParticipantListItem struct {
	ID           string    `json:"id" yaml:"id"`
	Diagnosis    Diagnosis `json:"diagnosis" yaml:"diagnosis"`
	Observations int       `json:"observations" yaml:"observations"`
}

const (
	insertParticipantSQL = `INSERT INTO participant (id, diagnosis, import_date)
			VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				diagnosis = ?,
				import_date = ?
	`

	deleteObservationsSQL = `DELETE FROM observation WHERE participant_id = ?`

	insertObservationSQL = `INSERT INTO observation (
				participant_id, seq, obs_date,
				anxiety, elation, sadness, anger, irritability, energy
			)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectParticipantSQL = `SELECT id, diagnosis, import_date
			FROM participant
			WHERE id = ?
	`

	selectParticipantsByDiagnosisSQL = `SELECT id, diagnosis, import_date
			FROM participant
			WHERE diagnosis = ?
			ORDER BY id
	`

	selectObservationsSQL = `SELECT seq, obs_date,
				anxiety, elation, sadness, anger, irritability, energy
			FROM observation
			WHERE participant_id = ?
			ORDER BY seq
	`

	queryParticipantsSQL = `SELECT p.id, p.diagnosis, COUNT(o.seq) AS observations
			FROM participant p
			LEFT JOIN observation o ON o.participant_id = p.id
			WHERE p.id LIKE ? OR p.diagnosis LIKE ?
			GROUP BY p.id, p.diagnosis
			ORDER BY p.id
			LIMIT ?
	`
)

// SaveParticipants upserts participants and replaces their observations
// in a single transaction.
func SaveParticipants(db *sql.DB, parts []*Participant) error {
	if db == nil {
		return errDBNotInitialized
	}

	if len(parts) == 0 {
		return nil
	}

	partStmt, err := db.Prepare(insertParticipantSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare participant insert statement: %w", err)
	}

	delStmt, err := db.Prepare(deleteObservationsSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare observation delete statement: %w", err)
	}

	obsStmt, err := db.Prepare(insertObservationSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare observation insert statement: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)

	for i, p := range parts {
		if _, err = tx.Stmt(partStmt).Exec(p.ID, p.Diagnosis, now, p.Diagnosis, now); err != nil {
			slog.Error("failed to insert participant",
				"index", i,
				"error", err,
				"id", p.ID,
				"diagnosis", p.Diagnosis,
			)
			rollbackTransaction(tx)
			return fmt.Errorf("error inserting participant[%d]: %s: %w", i, p.ID, err)
		}

		if _, err = tx.Stmt(delStmt).Exec(p.ID); err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("error clearing observations for %s: %w", p.ID, err)
		}

		for _, o := range p.Observations {
			if _, err = tx.Stmt(obsStmt).Exec(p.ID, o.Seq, o.Date,
				o.Scores[0], o.Scores[1], o.Scores[2],
				o.Scores[3], o.Scores[4], o.Scores[5]); err != nil {
				rollbackTransaction(tx)
				return fmt.Errorf("error inserting observation %s[%d]: %w", p.ID, o.Seq, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetParticipant returns a single participant with observations, or nil
// when not found.
func GetParticipant(db *sql.DB, id string) (*Participant, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	row := db.QueryRow(selectParticipantSQL, id)

	p := &Participant{}
	if err := row.Scan(&p.ID, &p.Diagnosis, &p.Imported); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	obs, err := getObservations(db, p.ID)
	if err != nil {
		return nil, err
	}
	p.Observations = obs

	return p, nil
}

// GetParticipantsByDiagnosis returns all participants of a group with
// their observations, ordered by ID.
func GetParticipantsByDiagnosis(db *sql.DB, d Diagnosis) ([]*Participant, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectParticipantsByDiagnosisSQL, d)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to execute participant select statement: %w", err)
	}
	defer rows.Close()

	list := make([]*Participant, 0)
	for rows.Next() {
		p := &Participant{}
		if err := rows.Scan(&p.ID, &p.Diagnosis, &p.Imported); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, p := range list {
		obs, err := getObservations(db, p.ID)
		if err != nil {
			return nil, err
		}
		p.Observations = obs
	}

	return list, nil
}

func getObservations(db *sql.DB, participantID string) ([]*Observation, error) {
	rows, err := db.Query(selectObservationsSQL, participantID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to execute observation select statement: %w", err)
	}
	defer rows.Close()

	list := make([]*Observation, 0)
	for rows.Next() {
		o := &Observation{}
		if err := rows.Scan(&o.Seq, &o.Date,
			&o.Scores[0], &o.Scores[1], &o.Scores[2],
			&o.Scores[3], &o.Scores[4], &o.Scores[5]); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return list, nil
}

// SearchParticipants returns participants whose ID or diagnosis matches
// the given query.
func SearchParticipants(db *sql.DB, val string, limit int) ([]*ParticipantListItem, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	val = fmt.Sprintf("%%%s%%", val)
	rows, err := db.Query(queryParticipantsSQL, val, val, limit)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to execute select statement: %w", err)
	}
	defer rows.Close()

	list := make([]*ParticipantListItem, 0)
	for rows.Next() {
		p := &ParticipantListItem{}
		if err := rows.Scan(&p.ID, &p.Diagnosis, &p.Observations); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return list, nil
}

// ClearParticipants removes all imported participants and observations.
func ClearParticipants(db *sql.DB) error {
	if db == nil {
		return errDBNotInitialized
	}
	if _, err := db.Exec(`DELETE FROM observation`); err != nil {
		return fmt.Errorf("failed to clear observations: %w", err)
	}
	if _, err := db.Exec(`DELETE FROM participant`); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	return nil
}
