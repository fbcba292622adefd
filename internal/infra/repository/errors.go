package repository

import (
	"errors"

	"mentorbook/internal/infra"
	"mentorbook/internal/pkg/pgconv"

	"github.com/jackc/pgx/v5/pgconn"
)

// wrapPgErr maps postgres error codes onto repository error kinds so that
// usecases never see driver details.
func wrapPgErr(msg string, err error) error {
	if pgconv.IsNoRows(err) {
		return infra.WrapRepoErr(msg, err, infra.KindNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return infra.WrapRepoErr(msg, err, infra.KindDuplicateKey)
		case "23503":
			return infra.WrapRepoErr(msg, err, infra.KindForeignKeyViolated)
		}
	}
	return infra.WrapRepoErr(msg, err)
}

// infraConflict marks a guarded update that matched zero rows: the row moved
// on since the caller read it.
func infraConflict(msg string) error {
	return infra.WrapRepoErr(msg, nil, infra.KindConflict)
}
