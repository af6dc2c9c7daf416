// Package ledger records training runs in a SQLite database.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/matchday/internal/domain/types"
	"github.com/okian/matchday/pkg/logger"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultListLimit applies when List is called with a non-positive limit.
const DefaultListLimit = 50

// ErrClosed is returned after Close.
var ErrClosed = errors.New("ledger closed")

// Ledger persists training runs.
type Ledger struct {
	db     *sql.DB
	logger logger.Logger
}

// Open creates or opens the ledger at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS training_runs (
			id          TEXT    PRIMARY KEY,
			model_id    TEXT,
			cache_key   TEXT    NOT NULL,
			token       TEXT    NOT NULL,
			status      TEXT    NOT NULL,
			train_rows  INTEGER NOT NULL,
			games       INTEGER NOT NULL,
			score_auc   REAL    NOT NULL,
			concede_auc REAL    NOT NULL,
			duration_ms INTEGER NOT NULL,
			error       TEXT,
			created_at  TEXT    NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON training_runs(created_at)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	var count int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM training_runs`).Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("read row count: %w", err)
	}

	l := &Ledger{db: db, logger: logger.Get().Named("ledger")}
	l.logger.Info(ctx, "ledger opened", logger.String("path", path), logger.Int64("rows", count))
	return l, nil
}

// Record appends one run.
func (l *Ledger) Record(ctx context.Context, run types.TrainingRun) error {
	if l == nil || l.db == nil {
		return ErrClosed
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO training_runs (
			id, model_id, cache_key, token, status,
			train_rows, games, score_auc, concede_auc,
			duration_ms, error, created_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		run.ID,
		run.ModelID,
		run.Key,
		run.Token,
		run.Status,
		run.Rows,
		run.Games,
		run.ScoreAUC,
		run.ConcedeAUC,
		run.DurationMs,
		run.Error,
		run.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}
	return nil
}

// List returns up to limit runs, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]types.TrainingRun, error) {
	if l == nil || l.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, model_id, cache_key, token, status, train_rows, games,
			score_auc, concede_auc, duration_ms, error, created_at
		FROM training_runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := make([]types.TrainingRun, 0, limit)
	for rows.Next() {
		var (
			r         types.TrainingRun
			modelID   sql.NullString
			errText   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&r.ID, &modelID, &r.Key, &r.Token, &r.Status, &r.Rows, &r.Games,
			&r.ScoreAUC, &r.ConcedeAUC, &r.DurationMs, &errText, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.ModelID = modelID.String
		r.Error = errText.String
		if t, err := time.Parse(timeLayout, createdAt); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the database.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	return err
}
