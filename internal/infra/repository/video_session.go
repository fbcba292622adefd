package repository

import (
	"context"
	"time"

	"mentorbook/internal/domain/video"
	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/pgconv"

	"github.com/google/uuid"
)

type VideoSessionRepository struct{}

func NewVideoSessionRepository() *VideoSessionRepository {
	return &VideoSessionRepository{}
}

const sessionColumns = `
	id, booking_id, room_name, status, mentor_joined_at, student_joined_at,
	mentor_seconds, student_seconds, ended_at, created_at
`

// FindByBooking returns nil when the booking never had a session; callers
// treat that as nobody having joined.
func (r *VideoSessionRepository) FindByBooking(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID) (*video.Session, error) {
	row := dbtx.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM video_sessions
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, bookingID)
	s, err := scanSession(row)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, wrapPgErr("failed to find video session", err)
	}
	return s, nil
}

const listLivePastBookingEndQuery = `
	SELECT s.id, s.booking_id, s.room_name, s.status, s.mentor_joined_at,
	       s.student_joined_at, s.mentor_seconds, s.student_seconds,
	       s.ended_at, s.created_at
	FROM video_sessions s
	JOIN bookings b ON b.id = s.booking_id
	WHERE s.status = 'live' AND b.end_at < $1
	ORDER BY b.end_at
	LIMIT $2
`

func (r *VideoSessionRepository) ListLivePastBookingEnd(ctx context.Context, dbtx db.DBTX, cutoff time.Time, limit int) ([]*video.Session, error) {
	return r.list(ctx, dbtx, listLivePastBookingEndQuery, cutoff, limit)
}

func (r *VideoSessionRepository) MarkEnded(ctx context.Context, dbtx db.DBTX, id uuid.UUID, endedAt time.Time) error {
	_, err := dbtx.Exec(ctx, `
		UPDATE video_sessions SET status = 'ended', ended_at = $2
		WHERE id = $1 AND status = 'live'`, id, endedAt)
	if err != nil {
		return wrapPgErr("failed to end video session", err)
	}
	return nil
}

func (r *VideoSessionRepository) list(ctx context.Context, dbtx db.DBTX, query string, args ...any) ([]*video.Session, error) {
	rows, err := dbtx.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapPgErr("failed to list video sessions", err)
	}
	defer rows.Close()

	var out []*video.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, wrapPgErr("failed to scan video session", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSession(row rowScanner) (*video.Session, error) {
	var s video.Session
	err := row.Scan(
		&s.ID, &s.BookingID, &s.RoomName, &s.Status, &s.MentorJoinedAt,
		&s.StudentJoinedAt, &s.MentorSeconds, &s.StudentSeconds,
		&s.EndedAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
