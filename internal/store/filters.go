// Package store provides durable storage for saved search filters.
// Uses SQLite with WAL mode for concurrent read access.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/semsearch/semsearch/internal/criteria"
)

//go:embed filters_schema.sql
var filtersSchemaSQL string

// Filter is a persisted search: a title plus the sanitized criteria that
// reproduce it. The id is content addressed, so two filters are the same
// filter exactly when their criteria canonicalize identically.
type Filter struct {
	ID        string
	Title     string
	ForType   string
	Criteria  []criteria.GroupCriteria
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ErrNotFound reports a filter id with no stored row.
var ErrNotFound = errors.New("store: filter not found")

// Store persists saved filters in a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the filter database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// Open is idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(filtersSchemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores a filter for the given criteria, sanitizing them first.
// Saving criteria that hash to an existing filter updates that filter's
// title and timestamps. Returns the stored filter.
func (s *Store) Save(ctx context.Context, title, forType string, groups []criteria.GroupCriteria) (Filter, error) {
	sanitized := criteria.Sanitize(groups)
	id, err := criteria.FilterID(sanitized)
	if err != nil {
		return Filter{}, err
	}
	canonical, err := criteria.MarshalCanonical(sanitized)
	if err != nil {
		return Filter{}, fmt.Errorf("store: marshal criteria: %w", err)
	}

	now := s.now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saved_filters (id, title, for_type, criteria_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			for_type = excluded.for_type,
			updated_at = excluded.updated_at`,
		id, title, forType, string(canonical), now, now)
	if err != nil {
		return Filter{}, fmt.Errorf("store: save filter: %w", err)
	}
	return s.Get(ctx, id)
}

// Get loads one filter by id.
func (s *Store) Get(ctx context.Context, id string) (Filter, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, for_type, criteria_json, created_at, updated_at
		FROM saved_filters WHERE id = ?`, id)
	f, err := scanFilter(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Filter{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return f, err
}

// List returns all filters, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Filter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, for_type, criteria_json, created_at, updated_at
		FROM saved_filters ORDER BY updated_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: list filters: %w", err)
	}
	defer rows.Close()

	var filters []Filter
	for rows.Next() {
		f, err := scanFilter(rows.Scan)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, rows.Err()
}

// Delete removes a filter. Deleting an unknown id returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_filters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete filter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func scanFilter(scan func(...any) error) (Filter, error) {
	var f Filter
	var criteriaJSON, createdAt, updatedAt string
	if err := scan(&f.ID, &f.Title, &f.ForType, &criteriaJSON, &createdAt, &updatedAt); err != nil {
		return Filter{}, err
	}
	if err := json.Unmarshal([]byte(criteriaJSON), &f.Criteria); err != nil {
		return Filter{}, fmt.Errorf("store: decode criteria for %s: %w", f.ID, err)
	}
	var err error
	if f.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Filter{}, fmt.Errorf("store: decode created_at for %s: %w", f.ID, err)
	}
	if f.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return Filter{}, fmt.Errorf("store: decode updated_at for %s: %w", f.ID, err)
	}
	return f, nil
}
