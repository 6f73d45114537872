package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/amishk599/jobscout/internal/model"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var _ model.ListingStore = (*PostgresStore)(nil)

// PostgresStore persists listings in PostgreSQL through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore applies pending migrations, then opens and pings a pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if err := RunMigrations(databaseURL); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// RunMigrations applies the embedded schema migrations to databaseURL.
func RunMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create pgx migration driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, key model.Key) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM listings WHERE source = $1 AND search_term = $2 AND title = $3 AND link = $4)`,
		string(key.Source), key.SearchTerm, key.Title, key.Link,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking listing %q: %w", key.Link, err)
	}
	return exists, nil
}

// Insert writes l unless the identity key exists; the unique constraint decides
// which of two concurrent inserts wins.
func (s *PostgresStore) Insert(ctx context.Context, l model.Listing) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO listings
			(id, source, search_term, title, link, company, location, short_description, full_description, tags, first_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT ON CONSTRAINT listings_identity_key DO NOTHING`,
		uuid.New(), string(l.Source), l.SearchTerm, l.Title, l.Link, l.Company, l.Location,
		l.ShortDescription, l.FullDescription, l.Tags, l.FirstSeenAt,
	)
	if err != nil {
		return false, fmt.Errorf("inserting listing %q: %w", l.Link, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) All(ctx context.Context, q model.ListQuery) ([]model.Listing, error) {
	var limit *int
	if q.Limit > 0 {
		limit = &q.Limit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT source, search_term, title, link, company, location, short_description, full_description, tags, first_seen_at
		FROM listings
		WHERE ($1 = '' OR source = $1) AND ($2 = '' OR search_term = $2)
		ORDER BY seq
		LIMIT $3 OFFSET $4`,
		string(q.Source), q.SearchTerm, limit, max(q.Offset, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("querying listings: %w", err)
	}

	listings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Listing, error) {
		var (
			l      model.Listing
			source string
		)
		err := row.Scan(&source, &l.SearchTerm, &l.Title, &l.Link, &l.Company, &l.Location,
			&l.ShortDescription, &l.FullDescription, &l.Tags, &l.FirstSeenAt)
		l.Source = model.Source(source)
		if l.Tags == nil {
			l.Tags = []string{}
		}
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning listings: %w", err)
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	return listings, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting listings: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
