package jobs

import (
	"context"
	"time"

	"mentorbook/internal/domain/booking"
	"mentorbook/internal/domain/order"
	"mentorbook/internal/domain/video"
	"mentorbook/internal/infra/db"

	"github.com/google/uuid"
)

// OrderFinder locates orders that are due for background processing.
type OrderFinder interface {
	ListPendingCreatedBefore(ctx context.Context, dbtx db.DBTX, cutoff time.Time, limit int) ([]*order.Order, error)
	// ListPendingWithTokenBetween returns pending orders carrying a checkout
	// token created inside the reconciliation window.
	ListPendingWithTokenBetween(ctx context.Context, dbtx db.DBTX, oldest, newest time.Time, limit int) ([]*order.Order, error)
	// ListPayoutDue returns paid orders of the given type whose underlying
	// resource finished before the cutoff.
	ListPayoutDue(ctx context.Context, dbtx db.DBTX, resourceType order.Type, cutoff time.Time, limit int) ([]*order.Order, error)
}

// BookingFinder locates bookings that are due for background processing.
type BookingFinder interface {
	ListPendingCreatedBefore(ctx context.Context, dbtx db.DBTX, cutoff time.Time, limit int) ([]*booking.Booking, error)
	ListConfirmedEndedBefore(ctx context.Context, dbtx db.DBTX, cutoff time.Time, limit int) ([]*booking.Booking, error)
}

// SessionRepository reads and closes video session records.
type SessionRepository interface {
	// FindByBooking returns nil with no error when the booking never had a
	// session.
	FindByBooking(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID) (*video.Session, error)
	// ListLivePastBookingEnd returns live sessions whose booking's scheduled
	// end came before the cutoff.
	ListLivePastBookingEnd(ctx context.Context, dbtx db.DBTX, cutoff time.Time, limit int) ([]*video.Session, error)
	MarkEnded(ctx context.Context, dbtx db.DBTX, id uuid.UUID, endedAt time.Time) error
}
