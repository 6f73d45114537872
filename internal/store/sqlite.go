package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/jobscout/internal/model"
)

var _ model.ListingStore = (*SQLiteStore)(nil)

// SQLiteStore persists listings in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// listings table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection serializes writers; SQLite would otherwise return SQLITE_BUSY
	// to concurrent requests.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS listings (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		source            TEXT NOT NULL,
		search_term       TEXT NOT NULL,
		title             TEXT NOT NULL,
		link              TEXT NOT NULL,
		company           TEXT NOT NULL DEFAULT '',
		location          TEXT NOT NULL DEFAULT '',
		short_description TEXT NOT NULL DEFAULT '',
		full_description  TEXT NOT NULL DEFAULT '',
		tags              TEXT NOT NULL DEFAULT '',
		first_seen_at     TEXT NOT NULL,
		UNIQUE (source, search_term, title, link)
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating listings table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Exists returns true if a listing with key has already been recorded.
func (s *SQLiteStore) Exists(ctx context.Context, key model.Key) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM listings WHERE source = ? AND search_term = ? AND title = ? AND link = ?",
		string(key.Source), key.SearchTerm, key.Title, key.Link,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking listing %q: %w", key.Link, err)
	}
	return true, nil
}

// Insert records l. If its key already exists the call is a no-op and created is false.
func (s *SQLiteStore) Insert(ctx context.Context, l model.Listing) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO listings
			(source, search_term, title, link, company, location, short_description, full_description, tags, first_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(l.Source), l.SearchTerm, l.Title, l.Link, l.Company, l.Location,
		l.ShortDescription, l.FullDescription, joinTags(l.Tags), l.FirstSeenAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("inserting listing %q: %w", l.Link, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting listing %q: %w", l.Link, err)
	}
	return n == 1, nil
}

// All returns stored listings in first-seen order, filtered and paginated by q.
func (s *SQLiteStore) All(ctx context.Context, q model.ListQuery) ([]model.Listing, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	offset := max(q.Offset, 0)

	rows, err := s.db.QueryContext(ctx,
		`SELECT source, search_term, title, link, company, location, short_description, full_description, tags, first_seen_at
		FROM listings
		WHERE (? = '' OR source = ?) AND (? = '' OR search_term = ?)
		ORDER BY id
		LIMIT ? OFFSET ?`,
		string(q.Source), string(q.Source), q.SearchTerm, q.SearchTerm, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}
	defer rows.Close()

	listings := []model.Listing{}
	for rows.Next() {
		var (
			l         model.Listing
			source    string
			tags      string
			firstSeen string
		)
		if err := rows.Scan(&source, &l.SearchTerm, &l.Title, &l.Link, &l.Company, &l.Location,
			&l.ShortDescription, &l.FullDescription, &tags, &firstSeen); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		l.Source = model.Source(source)
		l.Tags = splitTags(tags)
		if t, err := time.Parse(time.RFC3339Nano, firstSeen); err == nil {
			l.FirstSeenAt = t
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Count returns the number of stored listings.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting listings: %w", err)
	}
	return count, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
