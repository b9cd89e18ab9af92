// Package outbox provides the durable store every executed step and broker
// publish is recorded against: idempotent step results keyed by trace and
// step name, and monotonic per-topic offsets for at-least-once publish
// fallback (spec §4.1, §4.3).
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/telemetry"
)

var tracer = telemetry.Tracer("github.com/tejgajjar2001/Agentic-AI-Middleware-Enterprise-Integration-OCI-TIBCO-BW-JMS/internal/outbox")

// Record is a persisted step result, keyed by trace ID and step name so a
// retried or replayed event can short-circuit instead of re-executing.
type Record struct {
	TraceID   string          `json:"trace_id"`
	StepName  string          `json:"step_name"`
	Status    string          `json:"status"` // "succeeded" | "failed" | "compensated"
	ResultRaw json.RawMessage `json:"result"`
	Error     string          `json:"error,omitempty"`
}

// Store persists step records and topic offsets in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the outbox database at dbPath and
// ensures its schema exists.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening outbox database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS step_records (
		trace_id TEXT NOT NULL,
		step_name TEXT NOT NULL,
		status TEXT NOT NULL,
		result_json TEXT NOT NULL,
		error TEXT,
		PRIMARY KEY (trace_id, step_name)
	);

	CREATE TABLE IF NOT EXISTS topic_offsets (
		topic TEXT PRIMARY KEY,
		next_offset INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		value INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		return nil, fmt.Errorf("creating outbox schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the recorded result for (traceID, stepName), if any. ok is
// false when the step has never been recorded, signaling the executor that
// it must actually run the step.
func (s *Store) Get(ctx context.Context, traceID, stepName string) (rec *Record, ok bool, err error) {
	ctx, span := tracer.Start(ctx, "outbox.get",
		trace.WithAttributes(
			attribute.String("trace_id", traceID),
			attribute.String("step_name", stepName),
		))
	defer span.End()

	var status, resultJSON string
	var errText sql.NullString
	row := s.db.QueryRowContext(ctx,
		`SELECT status, result_json, error FROM step_records WHERE trace_id = ? AND step_name = ?`,
		traceID, stepName)
	switch err := row.Scan(&status, &resultJSON, &errText); err {
	case sql.ErrNoRows:
		return nil, false, nil
	case nil:
		return &Record{
			TraceID:   traceID,
			StepName:  stepName,
			Status:    status,
			ResultRaw: json.RawMessage(resultJSON),
			Error:     errText.String,
		}, true, nil
	default:
		return nil, false, fmt.Errorf("querying step record: %w", err)
	}
}

// Put upserts the step record, making the write idempotent under retries.
func (s *Store) Put(ctx context.Context, rec *Record) error {
	ctx, span := tracer.Start(ctx, "outbox.put",
		trace.WithAttributes(
			attribute.String("trace_id", rec.TraceID),
			attribute.String("step_name", rec.StepName),
			attribute.String("status", rec.Status),
		))
	defer span.End()

	resultJSON := rec.ResultRaw
	if resultJSON == nil {
		resultJSON = json.RawMessage("null")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO step_records (trace_id, step_name, status, result_json, error)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(trace_id, step_name) DO UPDATE SET
		   status = excluded.status,
		   result_json = excluded.result_json,
		   error = excluded.error`,
		rec.TraceID, rec.StepName, rec.Status, string(resultJSON), rec.Error)
	if err != nil {
		return fmt.Errorf("storing step record: %w", err)
	}
	return nil
}

// NextOffset atomically allocates and returns the next publish offset for
// topic, used as a fallback sequence number when the broker is unavailable
// (spec §9).
func (s *Store) NextOffset(ctx context.Context, topic string) (int64, error) {
	ctx, span := tracer.Start(ctx, "outbox.next_offset",
		trace.WithAttributes(attribute.String("topic", topic)))
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning offset transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO topic_offsets (topic, next_offset) VALUES (?, 0)
		 ON CONFLICT(topic) DO NOTHING`, topic); err != nil {
		return 0, fmt.Errorf("seeding topic offset: %w", err)
	}

	var offset int64
	if err := tx.QueryRowContext(ctx,
		`SELECT next_offset FROM topic_offsets WHERE topic = ?`, topic).Scan(&offset); err != nil {
		return 0, fmt.Errorf("reading topic offset: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE topic_offsets SET next_offset = ? WHERE topic = ?`, offset+1, topic); err != nil {
		return 0, fmt.Errorf("advancing topic offset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing offset allocation: %w", err)
	}

	span.SetAttributes(attribute.Int64("offset", offset))
	return offset, nil
}

// NextCounter atomically allocates and returns the next value of a named
// counter, used for ticket numbering and per-destination JMS sequencing.
func (s *Store) NextCounter(ctx context.Context, name string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning counter transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO counters (name, value) VALUES (?, 0)
		 ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return 0, fmt.Errorf("seeding counter: %w", err)
	}

	var value int64
	if err := tx.QueryRowContext(ctx,
		`SELECT value FROM counters WHERE name = ?`, name).Scan(&value); err != nil {
		return 0, fmt.Errorf("reading counter: %w", err)
	}

	next := value + 1
	if _, err := tx.ExecContext(ctx,
		`UPDATE counters SET value = ? WHERE name = ?`, next, name); err != nil {
		return 0, fmt.Errorf("advancing counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing counter allocation: %w", err)
	}
	return next, nil
}
