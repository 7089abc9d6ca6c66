// Package storage persists skill execution history and event logs.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dohr-michael/skillbox/internal/events"
)

// ExecutionRecord is one persisted skill execution outcome.
type ExecutionRecord struct {
	ID            int64     `json:"id"`
	TraceID       string    `json:"trace_id,omitempty"`
	Skill         string    `json:"skill"`
	Variant       string    `json:"variant,omitempty"`
	Success       bool      `json:"success"`
	Error         string    `json:"error,omitempty"`
	Output        any       `json:"output,omitempty"`
	ExecutionTime float64   `json:"execution_time"`
	CreatedAt     time.Time `json:"created_at"`
}

// ExecStore is a SQLite-backed execution history store. It can record
// directly or be attached to the event bus to persist every completed
// execution.
type ExecStore struct {
	db          *sql.DB
	unsubscribe func()
}

// NewExecStore opens (and if needed creates) the store at path.
func NewExecStore(path string) (*ExecStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open execution store: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trace_id TEXT,
		skill TEXT NOT NULL,
		variant TEXT,
		success INTEGER NOT NULL,
		error TEXT,
		output TEXT,
		execution_time REAL NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_executions_skill ON executions(skill, created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init execution store schema: %w", err)
	}

	return &ExecStore{db: db}, nil
}

// Attach subscribes the store to skill.completed events so every execution
// is persisted without the executor knowing about storage.
func (s *ExecStore) Attach(bus *events.Bus) {
	s.unsubscribe = bus.Subscribe(func(e events.Event) {
		payload, ok := events.GetSkillCompletedPayload(e)
		if !ok {
			return
		}
		_ = s.Save(context.Background(), &ExecutionRecord{
			TraceID:       e.TraceID,
			Skill:         payload.SkillName,
			Variant:       payload.Variant,
			Success:       payload.Success,
			Error:         payload.Error,
			Output:        payload.Output,
			ExecutionTime: payload.ExecutionTime,
			CreatedAt:     e.Timestamp,
		})
	}, events.EventSkillCompleted)
}

// Save inserts a record. CreatedAt defaults to now.
func (s *ExecStore) Save(ctx context.Context, rec *ExecutionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	var output []byte
	if rec.Output != nil {
		var err error
		output, err = json.Marshal(rec.Output)
		if err != nil {
			output = nil
		}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO executions (trace_id, skill, variant, success, error, output, execution_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TraceID, rec.Skill, rec.Variant, rec.Success, rec.Error,
		nullableString(output), rec.ExecutionTime, rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save execution: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// Recent returns the most recent executions, newest first. An empty skill
// returns history across all skills.
func (s *ExecStore) Recent(ctx context.Context, skillName string, limit int) ([]*ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, trace_id, skill, variant, success, error, output, execution_time, created_at
		FROM executions`
	args := []any{}
	if skillName != "" {
		query += ` WHERE skill = ?`
		args = append(args, skillName)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	var result []*ExecutionRecord
	for rows.Next() {
		var rec ExecutionRecord
		var success int
		var traceID, variant, errMsg, output sql.NullString
		var createdAt string

		if err := rows.Scan(&rec.ID, &traceID, &rec.Skill, &variant, &success,
			&errMsg, &output, &rec.ExecutionTime, &createdAt); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}

		rec.TraceID = traceID.String
		rec.Variant = variant.String
		rec.Success = success != 0
		rec.Error = errMsg.String
		if output.Valid && output.String != "" {
			var decoded any
			if err := json.Unmarshal([]byte(output.String), &decoded); err == nil {
				rec.Output = decoded
			}
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = t
		}

		result = append(result, &rec)
	}
	return result, rows.Err()
}

// Count returns the number of stored executions for a skill, or all skills
// if skillName is empty.
func (s *ExecStore) Count(ctx context.Context, skillName string) (int, error) {
	query := `SELECT COUNT(*) FROM executions`
	args := []any{}
	if skillName != "" {
		query += ` WHERE skill = ?`
		args = append(args, skillName)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count executions: %w", err)
	}
	return count, nil
}

// Close detaches from the bus and closes the database.
func (s *ExecStore) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	return s.db.Close()
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
