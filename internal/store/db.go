// Package store opens the local SQLite database, applies the embedded goose
// migrations and hands out repositories bound either to the database or to a
// transaction.
//
// The store is the single source of truth for what has already been sent to
// the portal. It is meant to be used by one sync process at a time.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mdrzasync/internal/common"
	"github.com/dmitrijs2005/mdrzasync/internal/dbx"
	"github.com/dmitrijs2005/mdrzasync/internal/repositories/logins"
	"github.com/dmitrijs2005/mdrzasync/internal/repositories/staging"
	"github.com/dmitrijs2005/mdrzasync/internal/repositories/trips"
	"github.com/dmitrijs2005/mdrzasync/internal/store/migrations"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Repositories groups the repositories sharing one DBTX.
type Repositories struct {
	Staging staging.Repository
	Trips   trips.Repository
	Logins  logins.Repository
}

// Store owns the database handle.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at dsn and ensures the schema.
// ":memory:" is not supported because the pool may open several connections;
// use a file under a temp dir instead.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %w", common.ErrStorage, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", common.ErrStorage, err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// withPragmas adds a busy timeout so a second process waits for the lock
// instead of failing immediately.
func withPragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)"
}

// RunMigrations applies the embedded migrations. It is idempotent.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	if err := migrations.Up(ctx, db); err != nil {
		return fmt.Errorf("%w: migrate: %w", common.ErrStorage, err)
	}
	return nil
}

// EnsureSchema creates the staging and canonical tables and their indexes.
// Safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return RunMigrations(ctx, s.db)
}

// SetClock overrides the time source used for stored timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Repositories returns repositories bound to the database handle.
func (s *Store) Repositories() *Repositories {
	return s.bind(s.db)
}

// WithTx runs fn with repositories bound to a single transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos *Repositories) error) error {
	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, s.bind(tx))
	})
}

func (s *Store) bind(db dbx.DBTX) *Repositories {
	return &Repositories{
		Staging: staging.NewSQLiteRepository(db, s.now),
		Trips:   trips.NewSQLiteRepository(db, s.now),
		Logins:  logins.NewSQLiteRepository(db, s.now),
	}
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
