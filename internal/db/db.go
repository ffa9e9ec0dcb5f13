package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"student-sandbox/internal/config"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Index is a named secondary index over columns of a model's table.
type Index struct {
	Name    string
	Model   any
	Columns []string
	Unique  bool
}

// Schema lists what RunMigrations materializes.
type Schema interface {
	Models() []any
	Indexes() []Index
}

// pragmas are applied to the single pooled connection. LIKE has to be
// case-sensitive for substring filters.
var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA case_sensitive_like = ON",
}

// New opens the SQLite database described by cfg.
func New(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqldb, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	configurePool(sqldb, cfg)

	if err := sqldb.Ping(); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := applyPragmas(sqldb); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	slog.Debug("database connected successfully", "dsn", cfg.DSN)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// NewInMemory opens a private in-memory database.
func NewInMemory() (*bun.DB, error) {
	return New(config.DatabaseConfig{DSN: ":memory:"})
}

// configurePool pins the pool so the in-memory database lives exactly as long
// as its one connection.
func configurePool(sqldb *sql.DB, cfg config.DatabaseConfig) {
	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 || config.IsInMemory(cfg.DSN) {
		maxOpen = 1
	}
	sqldb.SetMaxOpenConns(maxOpen)

	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 1
	}
	sqldb.SetMaxIdleConns(maxIdle)

	sqldb.SetConnMaxLifetime(0)
	sqldb.SetConnMaxIdleTime(0)

	slog.Debug("database pool configured",
		"max_open_conns", maxOpen,
		"max_idle_conns", maxIdle,
	)
}

func applyPragmas(sqldb *sql.DB) error {
	for _, pragma := range pragmas {
		if _, err := sqldb.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func Close(db *bun.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// RunMigrations creates every table and index of schema if missing.
func RunMigrations(ctx context.Context, db bun.IDB, schema Schema) error {
	for _, model := range schema.Models() {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table for model: %w", err)
		}
	}

	for _, idx := range schema.Indexes() {
		q := db.NewCreateIndex().
			Model(idx.Model).
			Index(idx.Name).
			Column(idx.Columns...).
			IfNotExists()
		if idx.Unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
		}
	}

	slog.Debug("database migrations completed successfully")
	return nil
}
