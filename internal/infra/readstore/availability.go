package readstore

import (
	"context"
	"time"

	"mentorbook/internal/domain/schedule"
	"mentorbook/internal/infra"
	"mentorbook/internal/infra/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AvailabilityReadStore assembles everything the bookable-window query
// needs. Template loading reuses the write-side repository: the read model
// is the same aggregate.
type AvailabilityReadStore struct {
	pool      *pgxpool.Pool
	templates *repository.TemplateRepository
	slots     *repository.SlotRepository
}

func NewAvailabilityReadStore(pool *pgxpool.Pool, templates *repository.TemplateRepository, slots *repository.SlotRepository) *AvailabilityReadStore {
	return &AvailabilityReadStore{pool: pool, templates: templates, slots: slots}
}

func (r *AvailabilityReadStore) TemplateByMentor(ctx context.Context, mentorID uuid.UUID) (*schedule.Template, error) {
	return r.templates.FindByMentor(ctx, r.pool, mentorID)
}

func (r *AvailabilityReadStore) UnbookedSlotsBetween(ctx context.Context, mentorID uuid.UUID, from, to time.Time) ([]schedule.Slot, error) {
	all, err := r.slots.ListByMentorBetween(ctx, r.pool, mentorID, from, to)
	if err != nil {
		return nil, err
	}
	unbooked := all[:0]
	for _, s := range all {
		if !s.Booked {
			unbooked = append(unbooked, s)
		}
	}
	return unbooked, nil
}

const activeBookingWindowsQuery = `
	SELECT start_at, end_at
	FROM bookings
	WHERE mentor_id = $1
	  AND status IN ('pending_payment', 'confirmed')
	  AND start_at < $3 AND end_at > $2
	ORDER BY start_at
`

func (r *AvailabilityReadStore) ActiveBookingWindows(ctx context.Context, mentorID uuid.UUID, from, to time.Time) ([]schedule.Window, error) {
	rows, err := r.pool.Query(ctx, activeBookingWindowsQuery, mentorID, from, to)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list active booking windows", err)
	}
	defer rows.Close()

	var out []schedule.Window
	for rows.Next() {
		var w schedule.Window
		if err := rows.Scan(&w.Start, &w.End); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking window", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

const offeringDurationQuery = `
	SELECT duration_minutes, mentor_id
	FROM offerings
	WHERE id = $1 AND active
`

func (r *AvailabilityReadStore) OfferingDurationMinutes(ctx context.Context, offeringID uuid.UUID) (int, uuid.UUID, error) {
	var (
		minutes  int
		mentorID uuid.UUID
	)
	if err := r.pool.QueryRow(ctx, offeringDurationQuery, offeringID).Scan(&minutes, &mentorID); err != nil {
		return 0, uuid.Nil, infra.WrapRepoErr("failed to read offering duration", err)
	}
	return minutes, mentorID, nil
}
