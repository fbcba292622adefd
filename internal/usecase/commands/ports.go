package commands

import (
	"context"
	"time"

	"mentorbook/internal/domain/booking"
	"mentorbook/internal/domain/ledger"
	"mentorbook/internal/domain/order"
	"mentorbook/internal/domain/refund"
	"mentorbook/internal/domain/schedule"
	"mentorbook/internal/infra/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferingSnapshot is the write-side view of a mentor offering. Offering
// management itself lives outside this engine.
type OfferingSnapshot struct {
	ID              uuid.UUID
	MentorID        uuid.UUID
	DurationMinutes int
	Price           decimal.Decimal
	Currency        string
}

type OfferingRepository interface {
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*OfferingSnapshot, error)
}

type TemplateRepository interface {
	FindByMentor(ctx context.Context, dbtx db.DBTX, mentorID uuid.UUID) (*schedule.Template, error)
	Save(ctx context.Context, dbtx db.DBTX, t *schedule.Template) error
}

type SlotRepository interface {
	// ReplaceUnbooked swaps out every unbooked future slot of a template for
	// the freshly expanded set. Booked rows are never touched.
	ReplaceUnbooked(ctx context.Context, dbtx db.DBTX, t *schedule.Template, intervals []schedule.Interval) error
	ListBookedByMentor(ctx context.Context, dbtx db.DBTX, mentorID uuid.UUID) ([]schedule.Slot, error)
	ListByMentorBetween(ctx context.Context, dbtx db.DBTX, mentorID uuid.UUID, from, to time.Time) ([]schedule.Slot, error)
	// FindCovering returns the unbooked slot containing the window, if any.
	FindCovering(ctx context.Context, dbtx db.DBTX, mentorID uuid.UUID, start, end time.Time) (*schedule.Slot, error)
	// SetBooked flips the booked flag, guarded by the expected current value.
	SetBooked(ctx context.Context, dbtx db.DBTX, id uuid.UUID, booked bool) error
}

type BookingRepository interface {
	Create(ctx context.Context, dbtx db.DBTX, b *booking.Booking) error
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*booking.Booking, error)
	// Update persists the entity, guarded by the status the caller read:
	// concurrent transitions surface as KindConflict, not lost updates.
	Update(ctx context.Context, dbtx db.DBTX, b *booking.Booking, expected booking.Status) error
	ListActiveByMentorBetween(ctx context.Context, dbtx db.DBTX, mentorID uuid.UUID, from, to time.Time) ([]*booking.Booking, error)
	CountActiveByMentorOn(ctx context.Context, dbtx db.DBTX, mentorID uuid.UUID, dayStart, dayEnd time.Time) (int, error)
}

type OrderRepository interface {
	Create(ctx context.Context, dbtx db.DBTX, o *order.Order) error
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*order.Order, error)
	FindByResource(ctx context.Context, dbtx db.DBTX, r order.Resource) (*order.Order, error)
	Update(ctx context.Context, dbtx db.DBTX, o *order.Order, expected order.Status) error
}

type LedgerRepository interface {
	// Insert appends entries. There is no update and no delete.
	Insert(ctx context.Context, dbtx db.DBTX, entries ...ledger.Entry) error
	ListByReference(ctx context.Context, dbtx db.DBTX, refID uuid.UUID) ([]ledger.Entry, error)
	// AccountNetForReference is credits minus debits for one account scoped
	// to a reference id.
	AccountNetForReference(ctx context.Context, dbtx db.DBTX, account ledger.Account, refID uuid.UUID) (decimal.Decimal, error)
	HasEntry(ctx context.Context, dbtx db.DBTX, account ledger.Account, direction ledger.Direction, refType ledger.ReferenceType, refID uuid.UUID) (bool, error)
}

type RefundRequestRepository interface {
	// Create fails with KindConflict when the order already has a pending
	// request.
	Create(ctx context.Context, dbtx db.DBTX, r *refund.Request) error
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*refund.Request, error)
	FindPendingByOrder(ctx context.Context, dbtx db.DBTX, orderID uuid.UUID) (*refund.Request, error)
	Update(ctx context.Context, dbtx db.DBTX, r *refund.Request) error
}
