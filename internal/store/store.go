// Package store keeps the history of finished runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"comment-insights-go/internal/processor"
)

// ErrNotFound is returned when no run has the requested id.
var ErrNotFound = errors.New("run not found")

// Summary is a row of the run listing.
type Summary struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Subject       string    `json:"subject"`
	TotalComments int       `json:"totalComments"`
	Brands        int       `json:"brands"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Store struct {
	db  *sql.DB
	log *logrus.Entry
}

var _ processor.RunStore = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, log *logrus.Entry) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: log.WithField("component", "store")}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		subject TEXT NOT NULL,
		total_comments INTEGER NOT NULL DEFAULT 0,
		brands INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		payload TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save stores run under a fresh id and returns it.
func (s *Store) Save(ctx context.Context, run *processor.Run) (string, error) {
	id := uuid.New().String()
	stored := *run
	stored.ID = id
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(&stored)
	if err != nil {
		return "", fmt.Errorf("marshal run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO runs (id, kind, subject, total_comments, brands, created_at, payload)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, stored.Kind, stored.Subject, stored.Meta.TotalComments, len(stored.Insights.Brands),
		stored.CreatedAt.UTC().Format(time.RFC3339Nano), string(payload))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	s.log.WithFields(logrus.Fields{"run_id": id, "kind": stored.Kind}).Debug("run stored")
	return id, nil
}

// Get loads a stored run.
func (s *Store) Get(ctx context.Context, id string) (*processor.Run, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	var run processor.Run
	if err := json.Unmarshal([]byte(payload), &run); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	return &run, nil
}

// List returns the most recent runs first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, kind, subject, total_comments, brands, created_at
	FROM runs
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum     Summary
			created string
		)
		if err := rows.Scan(&sum.ID, &sum.Kind, &sum.Subject, &sum.TotalComments, &sum.Brands, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
