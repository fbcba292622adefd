package readstore

import (
	"context"

	"mentorbook/internal/infra"
	"mentorbook/internal/pkg/pgconv"
	"mentorbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingReadStore serves the read side directly from the pool: view queries
// never join a write transaction.
type BookingReadStore struct {
	pool *pgxpool.Pool
}

func NewBookingReadStore(pool *pgxpool.Pool) *BookingReadStore {
	return &BookingReadStore{pool: pool}
}

const bookingViewQuery = `
	SELECT id, student_id, mentor_id, offering_id, start_at, end_at, status,
	       NULLIF(cancel_reason, ''), proposed_start_at, proposed_by,
	       created_at, updated_at
	FROM bookings
	WHERE id = $1
`

func (r *BookingReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.BookingView, error) {
	var v queries.BookingView
	err := r.pool.QueryRow(ctx, bookingViewQuery, id).Scan(
		&v.ID, &v.StudentID, &v.MentorID, &v.OfferingID, &v.StartAt, &v.EndAt,
		&v.Status, &v.CancelReason, &v.ProposedStartAt, &v.ProposedBy,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("booking not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find booking view", err)
	}
	return &v, nil
}

func (r *BookingReadStore) ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int32) ([]*queries.BookingListItem, error) {
	return r.list(ctx, `
		SELECT id, start_at, end_at, status
		FROM bookings
		WHERE student_id = $1
		ORDER BY start_at DESC
		LIMIT $2 OFFSET $3`, studentID, limit, offset)
}

func (r *BookingReadStore) ListByMentor(ctx context.Context, mentorID uuid.UUID, limit, offset int32) ([]*queries.BookingListItem, error) {
	return r.list(ctx, `
		SELECT id, start_at, end_at, status
		FROM bookings
		WHERE mentor_id = $1
		ORDER BY start_at DESC
		LIMIT $2 OFFSET $3`, mentorID, limit, offset)
}

func (r *BookingReadStore) list(ctx context.Context, query string, args ...any) ([]*queries.BookingListItem, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list booking views", err)
	}
	defer rows.Close()

	var out []*queries.BookingListItem
	for rows.Next() {
		var item queries.BookingListItem
		if err := rows.Scan(&item.ID, &item.StartAt, &item.EndAt, &item.Status); err != nil {
			return nil, infra.WrapRepoErr("failed to scan booking view", err)
		}
		out = append(out, &item)
	}
	return out, rows.Err()
}
