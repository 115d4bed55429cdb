package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"highlights-cli/internal/niah"
)

const schema = `
CREATE TABLE IF NOT EXISTS outcomes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	needle TEXT NOT NULL,
	query TEXT NOT NULL,
	success INTEGER NOT NULL,
	matching_position INTEGER,
	total_chunks INTEGER NOT NULL,
	true_position INTEGER NOT NULL,
	needle_chunk INTEGER NOT NULL,
	latency_ms INTEGER NOT NULL,
	metadata TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_outcomes_created ON outcomes(created_at);
`

// Store persists needle test outcomes in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Entry is a recorded outcome.
type Entry struct {
	ID                    int64          `json:"id"`
	CreatedAt             time.Time      `json:"created_at"`
	Needle                string         `json:"needle"`
	Query                 string         `json:"query"`
	Success               bool           `json:"success"`
	MatchingChunkPosition *int           `json:"matching_chunk_position"`
	TotalChunks           int            `json:"total_chunks"`
	TruePosition          int            `json:"true_position"`
	NeedleChunk           int            `json:"needle_chunk"`
	Latency               time.Duration  `json:"latency_ns"`
	Metadata              map[string]any `json:"metadata"`
}

type Summary struct {
	Runs      int
	Successes int
	Ranked    int
}

// SuccessRate is the share of runs where the needle ranked first.
func (s Summary) SuccessRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Successes) / float64(s.Runs)
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("results path required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create results directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate results database: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record saves an outcome and returns its row id.
func (s *Store) Record(ctx context.Context, o *niah.Outcome) (int64, error) {
	metadata := o.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	mdJSON, err := json.Marshal(metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	var matching sql.NullInt64
	if o.MatchingChunkPosition != nil {
		matching = sql.NullInt64{Int64: int64(*o.MatchingChunkPosition), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO outcomes
		(created_at, needle, query, success, matching_position, total_chunks, true_position, needle_chunk, latency_ms, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.now().UTC().Format(time.RFC3339Nano),
		o.Needle,
		o.Query,
		boolToInt(o.Success),
		matching,
		o.TotalChunks,
		o.TruePosition,
		o.NeedleChunk,
		o.Latency.Milliseconds(),
		string(mdJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record outcome: %w", err)
	}
	return res.LastInsertId()
}

// List returns the most recent entries first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, needle, query, success, matching_position,
		total_chunks, true_position, needle_chunk, latency_ms, metadata
		FROM outcomes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			createdAt string
			success   int
			matching  sql.NullInt64
			latencyMS int64
			mdJSON    string
		)
		if err := rows.Scan(&e.ID, &createdAt, &e.Needle, &e.Query, &success, &matching,
			&e.TotalChunks, &e.TruePosition, &e.NeedleChunk, &latencyMS, &mdJSON); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}

		e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp of outcome %d: %w", e.ID, err)
		}
		e.Success = success != 0
		if matching.Valid {
			pos := int(matching.Int64)
			e.MatchingChunkPosition = &pos
		}
		e.Latency = time.Duration(latencyMS) * time.Millisecond
		if err := json.Unmarshal([]byte(mdJSON), &e.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata of outcome %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*),
		COALESCE(SUM(success), 0),
		COALESCE(SUM(CASE WHEN matching_position IS NOT NULL THEN 1 ELSE 0 END), 0)
		FROM outcomes`).Scan(&sum.Runs, &sum.Successes, &sum.Ranked)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarise outcomes: %w", err)
	}
	return sum, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
