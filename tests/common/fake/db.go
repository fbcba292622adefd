package fake

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB satisfies shared.DB without a database. The fake repositories keep their
// own state and ignore the dbtx handle, so the transaction here only has to
// look the part.
type DB struct{}

func NewDB() *DB { return &DB{} }

func (*DB) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return tx{}, nil
}

func (*DB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("fake DB does not execute SQL")
}

func (*DB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("fake DB does not execute SQL")
}

func (*DB) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("fake DB does not execute SQL")
}

type tx struct {
	pgx.Tx
}

func (tx) Commit(context.Context) error { return nil }

// Rollback reports the transaction as already closed so the deferred rollback
// in RunInTx stays quiet after a commit.
func (tx) Rollback(context.Context) error { return pgx.ErrTxClosed }

func (tx) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	panic("fake tx does not execute SQL")
}

func (tx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("fake tx does not execute SQL")
}

func (tx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("fake tx does not execute SQL")
}
