// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/booktype/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for attempt and keystroke logs.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Appends must be visible to the next read; a single connection keeps
	// every statement on the same session.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY,
			book TEXT NOT NULL,
			run_id TEXT NOT NULL,
			succeeded INTEGER NOT NULL,
			start_index INTEGER NOT NULL,
			end_index INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			completed_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS keystrokes (
			id INTEGER PRIMARY KEY,
			book TEXT NOT NULL,
			run_id TEXT NOT NULL,
			correct INTEGER NOT NULL,
			key_char TEXT NOT NULL,
			typed_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_book ON attempts(book, id);`,
		`CREATE INDEX IF NOT EXISTS idx_keystrokes_book_key ON keystrokes(book, key_char);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertAttempt appends an attempt for a book.
func (s *Store) InsertAttempt(ctx context.Context, book, runID string, a model.Attempt) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (book, run_id, succeeded, start_index, end_index, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		book,
		runID,
		a.Succeeded,
		a.StartIndex,
		a.EndIndex,
		a.StartedAt.UTC().Format(time.RFC3339Nano),
		a.CompletedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertKeystroke appends a keystroke for a book.
func (s *Store) InsertKeystroke(ctx context.Context, book, runID string, k model.Keystroke) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO keystrokes (book, run_id, correct, key_char, typed_at) VALUES (?, ?, ?, ?, ?)`,
		book,
		runID,
		k.Correct,
		string(k.Key),
		k.Time.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// ListAttempts returns the attempts of a book in insertion order.
func (s *Store) ListAttempts(ctx context.Context, book string) ([]model.Attempt, error) {
	rows, err := s.ListAttemptRows(ctx, model.StatsConfig{Book: book})
	if err != nil {
		return nil, err
	}
	out := make([]model.Attempt, len(rows))
	for i, row := range rows {
		out[i] = row.Attempt
	}
	return out, nil
}

// ListAttemptRows returns attempts filtered by stats config, oldest first.
func (s *Store) ListAttemptRows(ctx context.Context, cfg model.StatsConfig) ([]model.AttemptRow, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Book != "" {
		clauses = append(clauses, "book = ?")
		args = append(args, cfg.Book)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "completed_at >= ?")
		args = append(args, cfg.Since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, book, run_id, succeeded, start_index, end_index, started_at, completed_at
		FROM attempts
		WHERE %s
		ORDER BY id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.AttemptRow
	for rows.Next() {
		var row model.AttemptRow
		var startedAt, completedAt string
		if err := rows.Scan(&row.ID, &row.Book, &row.RunID, &row.Succeeded, &row.StartIndex, &row.EndIndex, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		if row.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if row.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAt); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(result) > cfg.Last {
		result = result[len(result)-cfg.Last:]
	}
	return result, nil
}

// ListKeyAggregates aggregates keystroke outcomes per key.
func (s *Store) ListKeyAggregates(ctx context.Context, book string, since *time.Time) ([]model.KeyAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if book != "" {
		clauses = append(clauses, "book = ?")
		args = append(args, book)
	}
	if since != nil {
		clauses = append(clauses, "typed_at >= ?")
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT key_char, SUM(correct) AS correct, SUM(1 - correct) AS incorrect
		FROM keystrokes
		WHERE %s
		GROUP BY key_char`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.KeyAggregate
	for rows.Next() {
		var agg model.KeyAggregate
		if err := rows.Scan(&agg.Key, &agg.Correct, &agg.Incorrect); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// FurthestByBook returns the furthest successful end offset of every book
// with at least one successful attempt.
func (s *Store) FurthestByBook(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book, MAX(end_index) FROM attempts WHERE succeeded = 1 GROUP BY book`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	result := map[string]int{}
	for rows.Next() {
		var book string
		var end int
		if err := rows.Scan(&book, &end); err != nil {
			return nil, err
		}
		result[book] = end
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteBook removes all attempts and keystrokes of a book and returns the
// number of deleted attempts.
func (s *Store) DeleteBook(ctx context.Context, book string) (n int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM attempts WHERE book = ?`, book)
	if err != nil {
		return 0, err
	}
	if n, err = res.RowsAffected(); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM keystrokes WHERE book = ?`, book); err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// BookLog binds the store to one book and program run. It satisfies the
// attempt source and sink used by perflog and the keystroke sink used by
// the session controller.
type BookLog struct {
	store *Store
	book  string
	runID string
}

// BookLog returns a log handle for book tagged with runID.
func (s *Store) BookLog(book, runID string) *BookLog {
	return &BookLog{store: s, book: book, runID: runID}
}

// ListAttempts returns the book's attempt history.
func (b *BookLog) ListAttempts(ctx context.Context) ([]model.Attempt, error) {
	return b.store.ListAttempts(ctx, b.book)
}

// AppendAttempt persists an attempt.
func (b *BookLog) AppendAttempt(ctx context.Context, a model.Attempt) error {
	_, err := b.store.InsertAttempt(ctx, b.book, b.runID, a)
	return err
}

// AppendKeystroke persists a keystroke.
func (b *BookLog) AppendKeystroke(ctx context.Context, k model.Keystroke) error {
	return b.store.InsertKeystroke(ctx, b.book, b.runID, k)
}
