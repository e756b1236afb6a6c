// Package repomanager provides a concrete RepositoryManager for PostgreSQL
// (pgx) and SQLite (modernc), wiring together repository constructors and
// database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/peerlink/internal/dbx"
	"github.com/dmitrijs2005/peerlink/internal/server/migrations"
	"github.com/dmitrijs2005/peerlink/internal/server/repositories/files"
	"github.com/dmitrijs2005/peerlink/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// goose dialects per database/sql driver name.
var dialects = map[string]string{
	"pgx":    "pgx",
	"sqlite": "sqlite3",
}

// SQLRepositoryManager vends SQL-backed repository implementations
// and exposes a schema migration hook.
type SQLRepositoryManager struct {
	dialect string
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	if m.dialect == dialects["sqlite"] {
		return users.NewSQLiteRepository(db)
	}
	return users.NewPostgresRepository(db)
}

// Files returns a files.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// New constructs a RepositoryManager for the given database/sql driver
// name ("pgx" or "sqlite").
func New(driver string) (RepositoryManager, error) {
	dialect, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	return &SQLRepositoryManager{dialect: dialect}, nil
}

// Open opens and pings a database handle for driver. SQLite handles are
// limited to one connection so that an in-memory database is shared.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
