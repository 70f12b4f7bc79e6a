// Package store records EM runs in SQLite: one row per run, one per round,
// and serialized model snapshots.
// Uses ncruces/go-sqlite3/driver which provides a database/sql interface.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Run is one training invocation.
type Run struct {
	ID         int64
	TrainPath  string
	TestPath   string
	Params     string // free-form option summary
	State      string
	StartedAt  int64
	FinishedAt sql.NullInt64
}

// Round is one EM round's report.
type Round struct {
	RunID         int64
	Round         int
	Correct       int
	Total         int
	Unknown       int
	Accuracy      float64
	Delta         float64
	LogLikelihood float64
}

// Snapshot is a serialized model attached to a run.
type Snapshot struct {
	RunID     int64
	Round     int
	Data      []byte
	CreatedAt int64
}

// Store is the SQLite-backed run history. Safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    train_path TEXT NOT NULL,
    test_path TEXT NOT NULL,
    params TEXT,
    state TEXT NOT NULL DEFAULT 'iterating',
    started_at INTEGER NOT NULL,
    finished_at INTEGER
);

CREATE TABLE IF NOT EXISTS rounds (
    run_id INTEGER NOT NULL REFERENCES runs(id),
    round INTEGER NOT NULL,
    correct INTEGER NOT NULL,
    total INTEGER NOT NULL,
    unknown INTEGER NOT NULL DEFAULT 0,
    accuracy REAL NOT NULL,
    delta REAL NOT NULL DEFAULT 0,
    log_likelihood REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, round)
);

-- Snapshots: model bytes, latest round wins
CREATE TABLE IF NOT EXISTS snapshots (
    run_id INTEGER NOT NULL REFERENCES runs(id),
    round INTEGER NOT NULL,
    data BLOB NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (run_id, round)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
`

// Open opens (creating if needed) the database at dsn.
// Use ":memory:" for an in-memory store.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// CreateRun inserts a run and returns its ID.
func (s *Store) CreateRun(trainPath, testPath, params string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		INSERT INTO runs (train_path, test_path, params, started_at)
		VALUES (?, ?, ?, ?)
	`, trainPath, testPath, params, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("create run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun records the terminal state of a run.
func (s *Store) FinishRun(runID int64, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE runs SET state = ?, finished_at = ? WHERE id = ?
	`, state, time.Now().Unix(), runID)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	return nil
}

// GetRun loads a run by ID.
func (s *Store) GetRun(runID int64) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r Run
	var params sql.NullString
	err := s.db.QueryRow(`
		SELECT id, train_path, test_path, params, state, started_at, finished_at
		FROM runs WHERE id = ?
	`, runID).Scan(&r.ID, &r.TrainPath, &r.TestPath, &params, &r.State, &r.StartedAt, &r.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	r.Params = params.String
	return &r, nil
}

// AddRound stores one round report.
func (s *Store) AddRound(r Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO rounds (run_id, round, correct, total, unknown, accuracy, delta, log_likelihood)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Round, r.Correct, r.Total, r.Unknown, r.Accuracy, r.Delta, r.LogLikelihood)
	if err != nil {
		return fmt.Errorf("add round %d: %w", r.Round, err)
	}
	return nil
}

// ListRounds returns a run's rounds in order.
func (s *Store) ListRounds(runID int64) ([]Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT run_id, round, correct, total, unknown, accuracy, delta, log_likelihood
		FROM rounds WHERE run_id = ? ORDER BY round
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		var r Round
		if err := rows.Scan(&r.RunID, &r.Round, &r.Correct, &r.Total, &r.Unknown,
			&r.Accuracy, &r.Delta, &r.LogLikelihood); err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

// SaveSnapshot stores model bytes for a run and round.
func (s *Store) SaveSnapshot(runID int64, round int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO snapshots (run_id, round, data, created_at)
		VALUES (?, ?, ?, ?)
	`, runID, round, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the highest-round snapshot of a run.
func (s *Store) LatestSnapshot(runID int64) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot
	err := s.db.QueryRow(`
		SELECT run_id, round, data, created_at
		FROM snapshots WHERE run_id = ? ORDER BY round DESC LIMIT 1
	`, runID).Scan(&snap.RunID, &snap.Round, &snap.Data, &snap.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot for run %d: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
