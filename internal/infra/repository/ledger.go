package repository

import (
	"context"

	"mentorbook/internal/domain/ledger"
	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerRepository is append-only. There is no update and no delete, and
// balances are always recomputed with aggregate queries.
type LedgerRepository struct{}

func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{}
}

const insertEntryQuery = `
	INSERT INTO ledger_entries (
		id, account, owner_id, direction, amount, currency,
		reference_type, reference_id, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

func (r *LedgerRepository) Insert(ctx context.Context, dbtx db.DBTX, entries ...ledger.Entry) error {
	for _, e := range entries {
		_, err := dbtx.Exec(ctx, insertEntryQuery,
			e.ID, string(e.Account), e.OwnerID, string(e.Direction),
			e.Amount.String(), e.Currency, string(e.ReferenceType),
			e.ReferenceID, e.CreatedAt,
		)
		if err != nil {
			return wrapPgErr("failed to insert ledger entry", err)
		}
	}
	return nil
}

const listByReferenceQuery = `
	SELECT id, account, owner_id, direction, amount::text, currency,
	       reference_type, reference_id, created_at
	FROM ledger_entries
	WHERE reference_id = $1
	ORDER BY created_at, id
`

func (r *LedgerRepository) ListByReference(ctx context.Context, dbtx db.DBTX, refID uuid.UUID) ([]ledger.Entry, error) {
	rows, err := dbtx.Query(ctx, listByReferenceQuery, refID)
	if err != nil {
		return nil, wrapPgErr("failed to list ledger entries", err)
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		var (
			e      ledger.Entry
			amount string
		)
		err := rows.Scan(
			&e.ID, &e.Account, &e.OwnerID, &e.Direction, &amount,
			&e.Currency, &e.ReferenceType, &e.ReferenceID, &e.CreatedAt,
		)
		if err != nil {
			return nil, wrapPgErr("failed to scan ledger entry", err)
		}
		if e.Amount, err = pgconv.DecimalFromString(amount); err != nil {
			return nil, wrapPgErr("corrupt ledger amount", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const accountNetForReferenceQuery = `
	SELECT COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END), 0)::text
	FROM ledger_entries
	WHERE account = $1 AND reference_id = $2
`

func (r *LedgerRepository) AccountNetForReference(ctx context.Context, dbtx db.DBTX, account ledger.Account, refID uuid.UUID) (decimal.Decimal, error) {
	var net string
	if err := dbtx.QueryRow(ctx, accountNetForReferenceQuery, string(account), refID).Scan(&net); err != nil {
		return decimal.Zero, wrapPgErr("failed to sum ledger entries", err)
	}
	d, err := pgconv.DecimalFromString(net)
	if err != nil {
		return decimal.Zero, wrapPgErr("corrupt ledger sum", err)
	}
	return d, nil
}

const hasEntryQuery = `
	SELECT EXISTS (
		SELECT 1 FROM ledger_entries
		WHERE account = $1 AND direction = $2 AND reference_type = $3 AND reference_id = $4
	)
`

func (r *LedgerRepository) HasEntry(ctx context.Context, dbtx db.DBTX, account ledger.Account, direction ledger.Direction, refType ledger.ReferenceType, refID uuid.UUID) (bool, error) {
	var exists bool
	err := dbtx.QueryRow(ctx, hasEntryQuery, string(account), string(direction), string(refType), refID).Scan(&exists)
	if err != nil {
		return false, wrapPgErr("failed to probe ledger entry", err)
	}
	return exists, nil
}
