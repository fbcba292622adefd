package readstore

import (
	"context"

	"mentorbook/internal/domain/ledger"
	"mentorbook/internal/infra"
	"mentorbook/internal/pkg/pgconv"
	"mentorbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type LedgerReadStore struct {
	pool *pgxpool.Pool
}

func NewLedgerReadStore(pool *pgxpool.Pool) *LedgerReadStore {
	return &LedgerReadStore{pool: pool}
}

const entriesByReferenceQuery = `
	SELECT id, account, owner_id, direction, amount::text, currency,
	       reference_type, reference_id, created_at
	FROM ledger_entries
	WHERE reference_id = $1
	ORDER BY created_at, id
`

func (r *LedgerReadStore) EntriesByReference(ctx context.Context, refID uuid.UUID) ([]*queries.LedgerEntryView, error) {
	rows, err := r.pool.Query(ctx, entriesByReferenceQuery, refID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list ledger entry views", err)
	}
	defer rows.Close()

	var out []*queries.LedgerEntryView
	for rows.Next() {
		var (
			v      queries.LedgerEntryView
			amount string
		)
		err := rows.Scan(
			&v.ID, &v.Account, &v.OwnerID, &v.Direction, &amount,
			&v.Currency, &v.ReferenceType, &v.ReferenceID, &v.CreatedAt,
		)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan ledger entry view", err)
		}
		if v.Amount, err = pgconv.DecimalFromString(amount); err != nil {
			return nil, infra.WrapRepoErr("corrupt ledger amount", err)
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

const accountNetForOwnerQuery = `
	SELECT COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount ELSE -amount END), 0)::text
	FROM ledger_entries
	WHERE account = $1 AND owner_id = $2
`

func (r *LedgerReadStore) AccountNetForOwner(ctx context.Context, account ledger.Account, ownerID uuid.UUID) (decimal.Decimal, error) {
	var net string
	if err := r.pool.QueryRow(ctx, accountNetForOwnerQuery, string(account), ownerID).Scan(&net); err != nil {
		return decimal.Zero, infra.WrapRepoErr("failed to sum owner balance", err)
	}
	d, err := pgconv.DecimalFromString(net)
	if err != nil {
		return decimal.Zero, infra.WrapRepoErr("corrupt balance sum", err)
	}
	return d, nil
}
