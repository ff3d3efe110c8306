package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/ntentasd/roomsense/internal/metrics"
	"github.com/ntentasd/roomsense/pkg/types"
)

var ErrRunNotFound = errors.New("run not found")

func (db *DB) SaveRun(ctx context.Context, summary types.Summary) error {
	ctx, cancel := context.WithTimeout(ctx, time.Millisecond*500)
	defer cancel()

	b, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	start := time.Now()
	err = db.sess.Query(`
INSERT INTO runs (run_id, created_at, policy, summary)
VALUES (?, ?, ?, ?)
`, gocql.UUID(summary.RunID), summary.CreatedAt, summary.Policy, string(b)).WithContext(ctx).Exec()
	metrics.DbWriteLatencySeconds.WithLabelValues("save_run").Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", summary.RunID, err)
	}
	return nil
}

func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (types.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Millisecond*500)
	defer cancel()

	var raw string
	start := time.Now()
	err := db.sess.Query(`
SELECT summary
FROM runs
WHERE run_id = ?
`, gocql.UUID(runID)).WithContext(ctx).Scan(&raw)
	metrics.DbReadLatencySeconds.WithLabelValues("get_run").Observe(time.Since(start).Seconds())
	if errors.Is(err, gocql.ErrNotFound) {
		return types.Summary{}, ErrRunNotFound
	}
	if err != nil {
		return types.Summary{}, err
	}

	var summary types.Summary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return types.Summary{}, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return summary, nil
}

// Sink stores every finished run and its samples.
type Sink struct {
	db *DB
}

func NewSink(db *DB) *Sink {
	return &Sink{db: db}
}

func (s *Sink) Name() string { return "scylla" }

func (s *Sink) Publish(ctx context.Context, summary types.Summary, samples []types.Sample) error {
	if err := s.db.SaveRun(ctx, summary); err != nil {
		return err
	}
	return s.db.SaveSamples(ctx, summary.RunID, samples)
}
