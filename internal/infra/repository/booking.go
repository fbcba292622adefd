package repository

import (
	"context"
	"time"

	"mentorbook/internal/domain/booking"
	"mentorbook/internal/infra/db"

	"github.com/google/uuid"
)

type BookingRepository struct{}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{}
}

const bookingColumns = `
	id, student_id, mentor_id, offering_id, slot_id, start_at, end_at,
	duration_minutes, status, cancel_reason, dispute_reason,
	proposed_start_at, proposed_by, created_at, updated_at
`

const createBookingQuery = `
	INSERT INTO bookings (
		id, student_id, mentor_id, offering_id, slot_id, start_at, end_at,
		duration_minutes, status, cancel_reason, dispute_reason,
		proposed_start_at, proposed_by, created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`

func (r *BookingRepository) Create(ctx context.Context, dbtx db.DBTX, b *booking.Booking) error {
	var proposedBy *string
	if p := b.ProposedBy(); p != nil {
		s := string(*p)
		proposedBy = &s
	}
	_, err := dbtx.Exec(ctx, createBookingQuery,
		b.ID(), b.StudentID(), b.MentorID(), b.OfferingID(), b.SlotID(),
		b.StartAt(), b.EndAt(), b.DurationMinutes(), string(b.Status()),
		b.CancelReason(), b.DisputeReason(), b.ProposedStartAt(), proposedBy,
		b.CreatedAt(), b.UpdatedAt(),
	)
	if err != nil {
		return wrapPgErr("failed to create booking", err)
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	row := dbtx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		return nil, wrapPgErr("failed to find booking", err)
	}
	return b, nil
}

const updateBookingQuery = `
	UPDATE bookings SET
		start_at = $2, end_at = $3, status = $4, cancel_reason = $5,
		dispute_reason = $6, proposed_start_at = $7, proposed_by = $8,
		updated_at = $9
	WHERE id = $1 AND status = $10
`

// Update writes the mutable fields, guarded by the status the caller read.
// A zero row count means another transition won and surfaces as a conflict.
func (r *BookingRepository) Update(ctx context.Context, dbtx db.DBTX, b *booking.Booking, expected booking.Status) error {
	var proposedBy *string
	if p := b.ProposedBy(); p != nil {
		s := string(*p)
		proposedBy = &s
	}
	tag, err := dbtx.Exec(ctx, updateBookingQuery,
		b.ID(), b.StartAt(), b.EndAt(), string(b.Status()), b.CancelReason(),
		b.DisputeReason(), b.ProposedStartAt(), proposedBy, b.UpdatedAt(),
		string(expected),
	)
	if err != nil {
		return wrapPgErr("failed to update booking", err)
	}
	if tag.RowsAffected() == 0 {
		return infraConflict("booking status moved since read")
	}
	return nil
}

const listActiveByMentorQuery = `
	SELECT ` + bookingColumns + `
	FROM bookings
	WHERE mentor_id = $1
	  AND status IN ('pending_payment', 'confirmed')
	  AND start_at < $3 AND end_at > $2
	ORDER BY start_at
`

func (r *BookingRepository) ListActiveByMentorBetween(ctx context.Context, dbtx db.DBTX, mentorID uuid.UUID, from, to time.Time) ([]*booking.Booking, error) {
	return r.list(ctx, dbtx, listActiveByMentorQuery, mentorID, from, to)
}

const countActiveByMentorOnQuery = `
	SELECT COUNT(*)
	FROM bookings
	WHERE mentor_id = $1
	  AND status IN ('pending_payment', 'confirmed')
	  AND start_at >= $2 AND start_at < $3
`

func (r *BookingRepository) CountActiveByMentorOn(ctx context.Context, dbtx db.DBTX, mentorID uuid.UUID, dayStart, dayEnd time.Time) (int, error) {
	var n int
	if err := dbtx.QueryRow(ctx, countActiveByMentorOnQuery, mentorID, dayStart, dayEnd).Scan(&n); err != nil {
		return 0, wrapPgErr("failed to count mentor bookings", err)
	}
	return n, nil
}

const listPendingBookingsQuery = `
	SELECT ` + bookingColumns + `
	FROM bookings
	WHERE status = 'pending_payment' AND created_at < $1
	ORDER BY created_at
	LIMIT $2
`

func (r *BookingRepository) ListPendingCreatedBefore(ctx context.Context, dbtx db.DBTX, cutoff time.Time, limit int) ([]*booking.Booking, error) {
	return r.list(ctx, dbtx, listPendingBookingsQuery, cutoff, limit)
}

const listConfirmedEndedQuery = `
	SELECT ` + bookingColumns + `
	FROM bookings
	WHERE status = 'confirmed' AND end_at < $1
	ORDER BY end_at
	LIMIT $2
`

func (r *BookingRepository) ListConfirmedEndedBefore(ctx context.Context, dbtx db.DBTX, cutoff time.Time, limit int) ([]*booking.Booking, error) {
	return r.list(ctx, dbtx, listConfirmedEndedQuery, cutoff, limit)
}

func (r *BookingRepository) list(ctx context.Context, dbtx db.DBTX, query string, args ...any) ([]*booking.Booking, error) {
	rows, err := dbtx.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapPgErr("failed to list bookings", err)
	}
	defer rows.Close()

	var out []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, wrapPgErr("failed to scan booking", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*booking.Booking, error) {
	var (
		id, studentID, mentorID, offeringID uuid.UUID
		slotID                              *uuid.UUID
		startAt, endAt                      time.Time
		durationMinutes                     int
		status                              string
		cancelReason, disputeReason         string
		proposedStartAt                     *time.Time
		proposedByStr                       *string
		createdAt, updatedAt                time.Time
	)
	err := row.Scan(
		&id, &studentID, &mentorID, &offeringID, &slotID, &startAt, &endAt,
		&durationMinutes, &status, &cancelReason, &disputeReason,
		&proposedStartAt, &proposedByStr, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	var proposedBy *booking.RescheduleParty
	if proposedByStr != nil {
		p := booking.RescheduleParty(*proposedByStr)
		proposedBy = &p
	}
	return booking.Reconstruct(
		id, studentID, mentorID, offeringID, slotID, startAt, endAt,
		durationMinutes, booking.Status(status), cancelReason, disputeReason,
		proposedStartAt, proposedBy, createdAt, updatedAt,
	), nil
}
