package jobs

import (
	"context"
	"log/slog"
	"time"

	"mentorbook/internal/domain/booking"
	"mentorbook/internal/domain/order"
	"mentorbook/internal/infra"
	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/pkg/errs"
	"mentorbook/internal/usecase/commands"
	"mentorbook/internal/usecase/shared"

	"github.com/google/uuid"
)

// ExpireBookingsJob sweeps bookings stuck in pending_payment whose order
// will never be paid. It is the safety net behind ExpireOrdersJob: a booking
// whose order row is gone or already failed still gets released here.
type ExpireBookingsJob struct {
	bookingFinder BookingFinder
	bookingRepo   commands.BookingRepository
	orderRepo     commands.OrderRepository
	slotRepo      commands.SlotRepository
	publisher     shared.EventPublisher
	db            shared.DB
	clock         clock.Clock
	interval      time.Duration
	expiry        time.Duration
}

func NewExpireBookingsJob(
	bookingFinder BookingFinder,
	bookingRepo commands.BookingRepository,
	orderRepo commands.OrderRepository,
	slotRepo commands.SlotRepository,
	publisher shared.EventPublisher,
	db shared.DB,
	clock clock.Clock,
	interval, expiry time.Duration,
) *ExpireBookingsJob {
	return &ExpireBookingsJob{
		bookingFinder: bookingFinder,
		bookingRepo:   bookingRepo,
		orderRepo:     orderRepo,
		slotRepo:      slotRepo,
		publisher:     publisher,
		db:            db,
		clock:         clock,
		interval:      interval,
		expiry:        expiry,
	}
}

func (j *ExpireBookingsJob) Name() string            { return "expire_pending_bookings" }
func (j *ExpireBookingsJob) Interval() time.Duration { return j.interval }

func (j *ExpireBookingsJob) Run(ctx context.Context) error {
	now := j.clock.Now()
	cutoff := now.Add(-j.expiry)

	due, err := j.bookingFinder.ListPendingCreatedBefore(ctx, j.db, cutoff, expireBatchSize)
	if err != nil {
		return errs.Wrap(err, "listing expired pending bookings")
	}

	count := 0
	for _, b := range due {
		id := b.ID()
		expired, err := shared.WithDefaultRetry(ctx, j.db, func(tx db.DBTX) (bool, error) {
			return j.expireOne(ctx, tx, id, now)
		})
		if err != nil {
			slog.Error("booking expiry failed", "booking_id", id, "error", err)
			continue
		}
		if expired {
			count++
			j.publisher.Publish(ctx, shared.Event{
				Topic:   shared.TopicBookingExpired,
				Key:     id.String(),
				Payload: map[string]any{"booking_id": id},
			})
		}
	}
	if count > 0 {
		slog.Info("expired pending bookings", "count", count)
	}
	return nil
}

func (j *ExpireBookingsJob) expireOne(ctx context.Context, tx db.DBTX, bookingID uuid.UUID, now time.Time) (bool, error) {
	b, err := j.bookingRepo.FindByID(ctx, tx, bookingID)
	if err != nil {
		return false, err
	}
	if b.Status() != booking.StatusPendingPayment {
		return false, nil
	}

	// a paid order means confirmation is in flight; leave the booking alone
	o, err := j.orderRepo.FindByResource(ctx, tx, order.Resource{Type: order.TypeBooking, ID: b.ID()})
	if err != nil && !infra.IsKind(err, infra.KindNotFound) {
		return false, err
	}
	if o != nil && o.Status() == order.StatusPaid {
		return false, nil
	}

	if err := b.MarkAsExpired(now); err != nil {
		return false, err
	}
	if err := j.bookingRepo.Update(ctx, tx, b, booking.StatusPendingPayment); err != nil {
		if infra.IsKind(err, infra.KindConflict) {
			return false, nil
		}
		return false, err
	}
	if b.SlotID() != nil {
		if err := j.slotRepo.SetBooked(ctx, tx, *b.SlotID(), false); err != nil && !infra.IsKind(err, infra.KindConflict) {
			return false, err
		}
	}
	return true, nil
}
