// Package ledger indexes completed runs in a local sqlite database.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/workforcehq/workforce/internal/session"
)

// Service wraps the run ledger database.
type Service struct {
	db *sql.DB
}

// New opens (or creates) the ledger at dbPath and applies the schema.
func New(dbPath string) (*Service, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}
	return &Service{db: db}, nil
}

// Close closes the database.
func (s *Service) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for inspection tooling.
func (s *Service) DB() *sql.DB {
	return s.db
}

// RecordRun seals one run into the ledger: a runs row and its ordered
// handoff trace. Called once per run after the stream closes.
func (s *Service) RecordRun(rec session.RunRecord, goal, artifactsPath string) error {
	agents, _ := json.Marshal(rec.AgentsInvolved)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(run_id, company, status, goal, response, agents, start_time, end_time,
		 duration_ms, requests, input_tokens, output_tokens, total_tokens,
		 model, estimated_usd, event_count, artifacts_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Company, rec.Status, goal, rec.Response, string(agents),
		rec.StartTime, rec.EndTime, rec.DurationMS(),
		rec.Usage.Requests, rec.Usage.InputTokens, rec.Usage.OutputTokens,
		rec.Usage.TotalTokens, rec.Usage.Model, rec.Usage.EstimatedUSD,
		rec.EventCount, artifactsPath)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, h := range rec.Handoffs {
		if _, err := tx.Exec(`INSERT INTO handoffs (run_id, seq, from_agent, to_agent, kind, at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.RunID, i, h.From, h.To, h.Kind, h.Timestamp); err != nil {
			return fmt.Errorf("insert handoff %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// RunSummary is one ledger row.
type RunSummary struct {
	RunID         string    `json:"run_id"`
	Company       string    `json:"company"`
	Status        string    `json:"status"`
	Goal          string    `json:"goal"`
	Response      string    `json:"response"`
	Agents        []string  `json:"agents"`
	DurationMS    int64     `json:"duration_ms"`
	TotalTokens   int       `json:"total_tokens"`
	Model         string    `json:"model"`
	EstimatedUSD  float64   `json:"estimated_usd"`
	EventCount    int       `json:"event_count"`
	ArtifactsPath string    `json:"artifacts_path"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListRuns returns the most recent runs, newest first.
func (s *Service) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT run_id, company, status, goal, response, agents,
		duration_ms, total_tokens, model, estimated_usd, event_count, artifacts_path, created_at
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun returns one run and its handoff trace.
func (s *Service) GetRun(runID string) (*RunSummary, []session.HandoffStep, error) {
	row := s.db.QueryRow(`SELECT run_id, company, status, goal, response, agents,
		duration_ms, total_tokens, model, estimated_usd, event_count, artifacts_path, created_at
		FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.Query(`SELECT from_agent, to_agent, kind, at
		FROM handoffs WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("load handoffs: %w", err)
	}
	defer rows.Close()

	var steps []session.HandoffStep
	for rows.Next() {
		var h session.HandoffStep
		if err := rows.Scan(&h.From, &h.To, &h.Kind, &h.Timestamp); err != nil {
			return nil, nil, fmt.Errorf("scan handoff: %w", err)
		}
		steps = append(steps, h)
	}
	return &r, steps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunSummary, error) {
	var r RunSummary
	var agents string
	err := row.Scan(&r.RunID, &r.Company, &r.Status, &r.Goal, &r.Response, &agents,
		&r.DurationMS, &r.TotalTokens, &r.Model, &r.EstimatedUSD, &r.EventCount,
		&r.ArtifactsPath, &r.CreatedAt)
	if err != nil {
		return r, err
	}
	_ = json.Unmarshal([]byte(agents), &r.Agents)
	return r, nil
}
