package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrator runs embedded goose migrations against the shared pool.
type Migrator struct {
	db         *sql.DB
	migrations fs.FS
}

func NewMigrator(pool *pgxpool.Pool, migrations fs.FS) (*Migrator, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}

	// goose wants *sql.DB, which pgx can lend from the pool
	return &Migrator{
		db:         stdlib.OpenDBFromPool(pool),
		migrations: migrations,
	}, nil
}

func (m *Migrator) Up(ctx context.Context) error {
	goose.SetBaseFS(m.migrations)
	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("get migration version: %w", err)
	}
	return version, nil
}

func (m *Migrator) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
