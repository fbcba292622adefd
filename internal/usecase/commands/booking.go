package commands

import (
	"context"
	"time"

	"mentorbook/internal/domain/booking"
	"mentorbook/internal/domain/order"
	"mentorbook/internal/domain/schedule"
	"mentorbook/internal/infra"
	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/pkg/errs"
	"mentorbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOfferingNotFound   = errs.New("offering not found")
	ErrBookingNotFound    = errs.New("booking not found")
	ErrSlotUnavailable    = errs.New("requested time slot is not available")
	ErrInsufficientNotice = errs.New("requested start is inside the minimum notice window")
	ErrDailyLimitReached  = errs.New("mentor's daily booking limit reached")
	ErrBookingConflict    = errs.New("booking conflicts with an existing session")
	ErrInvalidTransition  = errs.New("invalid booking transition")
	ErrNotRescheduleParty = errs.New("only the booked student or mentor may reschedule")
)

type CreateBookingRequest struct {
	StudentID     uuid.UUID
	OfferingID    uuid.UUID
	StartAt       time.Time
	CheckoutToken *string
	Coupon        *order.Coupon
}

type CreateBookingResult struct {
	BookingID uuid.UUID
	OrderID   uuid.UUID
	Amount    decimal.Decimal
}

// RefundInitiator lets booking cancellation trigger the refund pipeline
// without depending on the full refund command surface.
type RefundInitiator interface {
	InitiateRefundForBooking(ctx context.Context, bookingID uuid.UUID, percentage decimal.Decimal, reason string) error
}

type BookingCommands interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateBookingResult, error)
	CancelBooking(ctx context.Context, bookingID, cancelledBy uuid.UUID, reason string) error
	RescheduleBooking(ctx context.Context, bookingID, studentID uuid.UUID, newStart time.Time) error
	ProposeReschedule(ctx context.Context, bookingID, mentorID uuid.UUID, newStart time.Time) error
	ApproveReschedule(ctx context.Context, bookingID, studentID uuid.UUID) error
	RejectReschedule(ctx context.Context, bookingID, studentID uuid.UUID) error
}

type bookingCommandsImpl struct {
	bookingRepo  BookingRepository
	orderRepo    OrderRepository
	offeringRepo OfferingRepository
	templateRepo TemplateRepository
	slotRepo     SlotRepository
	refunds      RefundInitiator
	publisher    shared.EventPublisher
	audit        shared.AuditLog
	db           shared.DB
	clock        clock.Clock
}

func NewBookingCommands(
	bookingRepo BookingRepository,
	orderRepo OrderRepository,
	offeringRepo OfferingRepository,
	templateRepo TemplateRepository,
	slotRepo SlotRepository,
	refunds RefundInitiator,
	publisher shared.EventPublisher,
	audit shared.AuditLog,
	db shared.DB,
	clock clock.Clock,
) BookingCommands {
	return &bookingCommandsImpl{
		bookingRepo:  bookingRepo,
		orderRepo:    orderRepo,
		offeringRepo: offeringRepo,
		templateRepo: templateRepo,
		slotRepo:     slotRepo,
		refunds:      refunds,
		publisher:    publisher,
		audit:        audit,
		db:           db,
		clock:        clock,
	}
}

func (c *bookingCommandsImpl) CreateBooking(ctx context.Context, req CreateBookingRequest) (*CreateBookingResult, error) {
	now := c.clock.Now()

	result, err := shared.WithDefaultRetry(ctx, c.db, func(tx db.DBTX) (*CreateBookingResult, error) {
		offering, err := c.offeringRepo.FindByID(ctx, tx, req.OfferingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, ErrOfferingNotFound
			}
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		tpl, err := c.templateRepo.FindByMentor(ctx, tx, offering.MentorID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, ErrTemplateNotFound
			}
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		start := req.StartAt.UTC()
		end := start.Add(time.Duration(offering.DurationMinutes) * time.Minute)

		if start.Before(now.Add(tpl.MinNotice())) {
			return nil, ErrInsufficientNotice
		}

		slot, err := c.slotRepo.FindCovering(ctx, tx, offering.MentorID, start, end)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, ErrSlotUnavailable
			}
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := c.checkConflicts(ctx, tx, offering.MentorID, start, end, tpl.Buffer(), uuid.Nil); err != nil {
			return nil, err
		}

		if tpl.MaxBookingsPerDay > 0 {
			dayStart, dayEnd := localDayBounds(start, tpl.TimeZone)
			count, err := c.bookingRepo.CountActiveByMentorOn(ctx, tx, offering.MentorID, dayStart, dayEnd)
			if err != nil {
				return nil, errs.Mark(err, ErrDatabaseOperationFailed)
			}
			if count >= tpl.MaxBookingsPerDay {
				return nil, ErrDailyLimitReached
			}
		}

		slotID := slot.ID
		b, err := booking.NewBooking(req.StudentID, offering.MentorID, offering.ID, &slotID, start, offering.DurationMinutes, now)
		if err != nil {
			return nil, errs.Mark(err, ErrInvalidTransition)
		}
		if err := c.bookingRepo.Create(ctx, tx, b); err != nil {
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		amount := offering.Price
		if req.Coupon != nil {
			amount = amount.Sub(req.Coupon.Discount)
		}
		o, err := order.NewOrder(
			req.StudentID,
			order.Resource{Type: order.TypeBooking, ID: b.ID()},
			amount,
			offering.Currency,
			req.CheckoutToken,
			req.Coupon,
			now,
		)
		if err != nil {
			return nil, errs.Mark(err, ErrInvalidTransition)
		}
		if err := c.orderRepo.Create(ctx, tx, o); err != nil {
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		return &CreateBookingResult{BookingID: b.ID(), OrderID: o.ID(), Amount: amount}, nil
	})
	if err != nil {
		return nil, err
	}

	c.audit.Record(ctx, "booking", result.BookingID, "created", "", string(booking.StatusPendingPayment), "booking created, awaiting payment", &req.StudentID)
	return result, nil
}

func (c *bookingCommandsImpl) CancelBooking(ctx context.Context, bookingID, cancelledBy uuid.UUID, reason string) error {
	now := c.clock.Now()

	type cancelled struct {
		b       *booking.Booking
		wasPaid bool
		pct     decimal.Decimal
	}

	res, err := shared.WithDefaultRetry(ctx, c.db, func(tx db.DBTX) (*cancelled, error) {
		b, err := c.bookingRepo.FindByID(ctx, tx, bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, ErrBookingNotFound
			}
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		prev := b.Status()
		if err := b.Cancel(reason, now); err != nil {
			return nil, errs.Mark(err, ErrInvalidTransition)
		}
		if err := c.bookingRepo.Update(ctx, tx, b, prev); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return nil, ErrBookingConflict
			}
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if b.SlotID() != nil {
			if err := c.slotRepo.SetBooked(ctx, tx, *b.SlotID(), false); err != nil && !infra.IsKind(err, infra.KindConflict) {
				return nil, errs.Mark(err, ErrDatabaseOperationFailed)
			}
		}

		return &cancelled{
			b:       b,
			wasPaid: prev == booking.StatusConfirmed || prev == booking.StatusDisputed,
			pct:     booking.RefundPercentage(b.StartAt(), now),
		}, nil
	})
	if err != nil {
		return err
	}

	// Refund runs outside the cancellation tx: it calls the provider and owns
	// its own transactional unit. A failure here leaves the booking cancelled
	// and the refund for admin follow-up.
	if res.wasPaid && res.pct.IsPositive() {
		if err := c.refunds.InitiateRefundForBooking(ctx, bookingID, res.pct, "booking cancelled: "+reason); err != nil {
			return err
		}
	}

	c.publisher.Publish(ctx, shared.Event{
		Topic: shared.TopicBookingCancelled,
		Key:   bookingID.String(),
		Payload: map[string]any{
			"booking_id": bookingID,
			"reason":     reason,
		},
	})
	c.audit.Record(ctx, "booking", bookingID, "cancelled", "", string(booking.StatusCancelled), reason, &cancelledBy)
	return nil
}

func (c *bookingCommandsImpl) RescheduleBooking(ctx context.Context, bookingID, studentID uuid.UUID, newStart time.Time) error {
	return c.commitReschedule(ctx, bookingID, newStart, func(b *booking.Booking) error {
		if b.StudentID() != studentID {
			return ErrNotRescheduleParty
		}
		return nil
	})
}

func (c *bookingCommandsImpl) ProposeReschedule(ctx context.Context, bookingID, mentorID uuid.UUID, newStart time.Time) error {
	now := c.clock.Now()

	_, err := shared.WithDefaultRetry(ctx, c.db, func(tx db.DBTX) (struct{}, error) {
		b, err := c.bookingRepo.FindByID(ctx, tx, bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return struct{}{}, ErrBookingNotFound
			}
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if b.MentorID() != mentorID {
			return struct{}{}, ErrNotRescheduleParty
		}

		prev := b.Status()
		if err := b.ProposeReschedule(newStart, booking.RescheduleByMentor, now); err != nil {
			return struct{}{}, errs.Mark(err, ErrInvalidTransition)
		}
		if err := c.bookingRepo.Update(ctx, tx, b, prev); err != nil {
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return struct{}{}, nil
	})
	return err
}

func (c *bookingCommandsImpl) ApproveReschedule(ctx context.Context, bookingID, studentID uuid.UUID) error {
	now := c.clock.Now()

	_, err := shared.WithDefaultRetry(ctx, c.db, func(tx db.DBTX) (struct{}, error) {
		b, err := c.bookingRepo.FindByID(ctx, tx, bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return struct{}{}, ErrBookingNotFound
			}
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if b.StudentID() != studentID {
			return struct{}{}, ErrNotRescheduleParty
		}
		if b.ProposedStartAt() == nil {
			return struct{}{}, errs.Mark(booking.ErrNoPendingReschedule, ErrInvalidTransition)
		}

		// Approval re-runs the same conflict check as a direct reschedule.
		newStart := *b.ProposedStartAt()
		newEnd := newStart.Add(time.Duration(b.DurationMinutes()) * time.Minute)
		tpl, err := c.templateRepo.FindByMentor(ctx, tx, b.MentorID())
		if err != nil {
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := c.checkConflicts(ctx, tx, b.MentorID(), newStart, newEnd, tpl.Buffer(), b.ID()); err != nil {
			return struct{}{}, err
		}

		prev := b.Status()
		if err := b.ApproveReschedule(now); err != nil {
			return struct{}{}, errs.Mark(err, ErrInvalidTransition)
		}
		if err := c.bookingRepo.Update(ctx, tx, b, prev); err != nil {
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return struct{}{}, nil
	})
	return err
}

func (c *bookingCommandsImpl) RejectReschedule(ctx context.Context, bookingID, studentID uuid.UUID) error {
	now := c.clock.Now()

	_, err := shared.WithDefaultRetry(ctx, c.db, func(tx db.DBTX) (struct{}, error) {
		b, err := c.bookingRepo.FindByID(ctx, tx, bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return struct{}{}, ErrBookingNotFound
			}
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if b.StudentID() != studentID {
			return struct{}{}, ErrNotRescheduleParty
		}

		prev := b.Status()
		if err := b.RejectReschedule(now); err != nil {
			return struct{}{}, errs.Mark(err, ErrInvalidTransition)
		}
		if err := c.bookingRepo.Update(ctx, tx, b, prev); err != nil {
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return struct{}{}, nil
	})
	return err
}

func (c *bookingCommandsImpl) commitReschedule(ctx context.Context, bookingID uuid.UUID, newStart time.Time, authorize func(*booking.Booking) error) error {
	now := c.clock.Now()

	_, err := shared.WithDefaultRetry(ctx, c.db, func(tx db.DBTX) (struct{}, error) {
		b, err := c.bookingRepo.FindByID(ctx, tx, bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return struct{}{}, ErrBookingNotFound
			}
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := authorize(b); err != nil {
			return struct{}{}, err
		}

		newEnd := newStart.Add(time.Duration(b.DurationMinutes()) * time.Minute)
		tpl, err := c.templateRepo.FindByMentor(ctx, tx, b.MentorID())
		if err != nil {
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if newStart.Before(now.Add(tpl.MinNotice())) {
			return struct{}{}, ErrInsufficientNotice
		}
		if err := c.checkConflicts(ctx, tx, b.MentorID(), newStart, newEnd, tpl.Buffer(), b.ID()); err != nil {
			return struct{}{}, err
		}

		prev := b.Status()
		if err := b.Reschedule(newStart, now); err != nil {
			return struct{}{}, errs.Mark(err, ErrInvalidTransition)
		}
		if err := c.bookingRepo.Update(ctx, tx, b, prev); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return struct{}{}, ErrBookingConflict
			}
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return struct{}{}, nil
	})
	return err
}

// checkConflicts applies the asymmetric post-session buffer against every
// active booking of the mentor, ignoring the booking being moved.
func (c *bookingCommandsImpl) checkConflicts(ctx context.Context, tx db.DBTX, mentorID uuid.UUID, start, end time.Time, buffer time.Duration, ignoreBookingID uuid.UUID) error {
	// widen the scan so bookings whose buffer reaches into the candidate are
	// included
	active, err := c.bookingRepo.ListActiveByMentorBetween(ctx, tx, mentorID, start.Add(-24*time.Hour), end.Add(24*time.Hour))
	if err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	windows := make([]schedule.Window, 0, len(active))
	for _, b := range active {
		if b.ID() == ignoreBookingID {
			continue
		}
		windows = append(windows, schedule.Window{Start: b.StartAt(), End: b.EndAt()})
	}

	if !schedule.IsBookable(start, end, windows, buffer) {
		return ErrBookingConflict
	}
	return nil
}

// localDayBounds returns the UTC bounds of the mentor-local calendar day
// containing t.
func localDayBounds(t time.Time, zoneID string) (time.Time, time.Time) {
	loc := schedule.ResolveLocation(zoneID)
	local := t.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return dayStart.UTC(), dayStart.AddDate(0, 0, 1).UTC()
}
