package repository

import (
	"context"

	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/pgconv"
	"mentorbook/internal/usecase/commands"

	"github.com/google/uuid"
)

// OfferingRepository reads the offering catalog. Offerings are managed by a
// separate service; this engine only snapshots what pricing needs.
type OfferingRepository struct{}

func NewOfferingRepository() *OfferingRepository {
	return &OfferingRepository{}
}

const findOfferingQuery = `
	SELECT id, mentor_id, duration_minutes, price::text, currency
	FROM offerings
	WHERE id = $1 AND active
`

func (r *OfferingRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*commands.OfferingSnapshot, error) {
	var (
		snap  commands.OfferingSnapshot
		price string
	)
	err := dbtx.QueryRow(ctx, findOfferingQuery, id).Scan(
		&snap.ID, &snap.MentorID, &snap.DurationMinutes, &price, &snap.Currency,
	)
	if err != nil {
		return nil, wrapPgErr("failed to find offering", err)
	}
	if snap.Price, err = pgconv.DecimalFromString(price); err != nil {
		return nil, wrapPgErr("corrupt offering price", err)
	}
	return &snap, nil
}
