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

const expireBatchSize = 200

// ExpireOrdersJob abandons pending orders that outlived the payment window
// and cascades the expiry to the resources they reserve.
type ExpireOrdersJob struct {
	orderFinder OrderFinder
	orderRepo   commands.OrderRepository
	bookingRepo commands.BookingRepository
	slotRepo    commands.SlotRepository
	settings    shared.SettingsStore
	publisher   shared.EventPublisher
	db          shared.DB
	clock       clock.Clock
	interval    time.Duration

	defaultExpiry time.Duration
}

func NewExpireOrdersJob(
	orderFinder OrderFinder,
	orderRepo commands.OrderRepository,
	bookingRepo commands.BookingRepository,
	slotRepo commands.SlotRepository,
	settings shared.SettingsStore,
	publisher shared.EventPublisher,
	db shared.DB,
	clock clock.Clock,
	interval, expiry time.Duration,
) *ExpireOrdersJob {
	return &ExpireOrdersJob{
		orderFinder:   orderFinder,
		orderRepo:     orderRepo,
		bookingRepo:   bookingRepo,
		slotRepo:      slotRepo,
		settings:      settings,
		publisher:     publisher,
		db:            db,
		clock:         clock,
		interval:      interval,
		defaultExpiry: expiry,
	}
}

func (j *ExpireOrdersJob) Name() string            { return "expire_pending_orders" }
func (j *ExpireOrdersJob) Interval() time.Duration { return j.interval }

func (j *ExpireOrdersJob) Run(ctx context.Context) error {
	now := j.clock.Now()

	minutes := j.settings.GetInt(ctx, shared.SettingOrderExpiryMinutes, int(j.defaultExpiry/time.Minute))
	cutoff := now.Add(-time.Duration(minutes) * time.Minute)

	due, err := j.orderFinder.ListPendingCreatedBefore(ctx, j.db, cutoff, expireBatchSize)
	if err != nil {
		return errs.Wrap(err, "listing expired pending orders")
	}

	var expired []uuid.UUID
	for _, o := range due {
		// each order gets its own tx so one bad row never stalls the batch
		id := o.ID()
		bookingID, err := shared.WithDefaultRetry(ctx, j.db, func(tx db.DBTX) (*uuid.UUID, error) {
			return j.expireOne(ctx, tx, id, now)
		})
		if err != nil {
			slog.Error("order expiry failed", "order_id", id, "error", err)
			continue
		}
		if bookingID != nil {
			expired = append(expired, *bookingID)
		}
	}

	for _, id := range expired {
		j.publisher.Publish(ctx, shared.Event{
			Topic:   shared.TopicBookingExpired,
			Key:     id.String(),
			Payload: map[string]any{"booking_id": id},
		})
	}
	if len(due) > 0 {
		slog.Info("expired pending orders", "count", len(due))
	}
	return nil
}

// expireOne re-reads the order under the tx and abandons it. Orders that
// reached the provider are failed instead so reconciliation keeps watching
// them.
func (j *ExpireOrdersJob) expireOne(ctx context.Context, tx db.DBTX, orderID uuid.UUID, now time.Time) (*uuid.UUID, error) {
	o, err := j.orderRepo.FindByID(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status() != order.StatusPending {
		return nil, nil
	}

	if o.HasProviderPayment() {
		err = o.MarkFailed(now)
	} else {
		err = o.MarkAbandoned(now)
	}
	if err != nil {
		return nil, err
	}
	if err := j.orderRepo.Update(ctx, tx, o, order.StatusPending); err != nil {
		if infra.IsKind(err, infra.KindConflict) {
			// payment confirmation won the race
			return nil, nil
		}
		return nil, err
	}

	dispatch := order.Dispatch{
		order.TypeBooking: &bookingExpiryHandler{ctx: ctx, tx: tx, job: j, now: now},
	}
	if h, ok := dispatch.Handler(o.Resource().Type); ok {
		if err := h.OrderExpired(o.Resource()); err != nil {
			return nil, err
		}
		if o.Resource().Type == order.TypeBooking {
			id := o.Resource().ID
			return &id, nil
		}
	}
	return nil, nil
}

// bookingExpiryHandler cascades an order expiry onto its booking and slot.
type bookingExpiryHandler struct {
	ctx context.Context
	tx  db.DBTX
	job *ExpireOrdersJob
	now time.Time
}

func (h *bookingExpiryHandler) OrderExpired(r order.Resource) error {
	b, err := h.job.bookingRepo.FindByID(h.ctx, h.tx, r.ID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil
		}
		return err
	}
	if b.Status() != booking.StatusPendingPayment {
		return nil
	}
	if err := b.MarkAsExpired(h.now); err != nil {
		return err
	}
	if err := h.job.bookingRepo.Update(h.ctx, h.tx, b, booking.StatusPendingPayment); err != nil {
		if infra.IsKind(err, infra.KindConflict) {
			return nil
		}
		return err
	}
	if b.SlotID() != nil {
		if err := h.job.slotRepo.SetBooked(h.ctx, h.tx, *b.SlotID(), false); err != nil && !infra.IsKind(err, infra.KindConflict) {
			return err
		}
	}
	return nil
}

func (h *bookingExpiryHandler) OrderRefunded(order.Resource) error { return nil }
