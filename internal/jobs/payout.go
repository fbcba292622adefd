package jobs

import (
	"context"
	"log/slog"
	"time"

	"mentorbook/internal/domain/ledger"
	"mentorbook/internal/domain/order"
	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/pkg/errs"
	"mentorbook/internal/usecase/commands"
	"mentorbook/internal/usecase/shared"

	"github.com/google/uuid"
)

// PayoutJob releases escrowed funds to mentors once the holdback after a
// completed session (or course purchase) has elapsed. The release is a ledger
// move from escrow to the available balance; the escrow debit doubles as the
// idempotency marker, so re-running a sweep never releases twice.
type PayoutJob struct {
	orderFinder OrderFinder
	ledgerRepo  commands.LedgerRepository
	settings    shared.SettingsStore
	publisher   shared.EventPublisher
	db          shared.DB
	clock       clock.Clock
	interval    time.Duration

	defaultBookingHoldback time.Duration
	defaultCourseHoldback  time.Duration
}

func NewPayoutJob(
	orderFinder OrderFinder,
	ledgerRepo commands.LedgerRepository,
	settings shared.SettingsStore,
	publisher shared.EventPublisher,
	db shared.DB,
	clock clock.Clock,
	interval, bookingHoldback, courseHoldback time.Duration,
) *PayoutJob {
	return &PayoutJob{
		orderFinder:            orderFinder,
		ledgerRepo:             ledgerRepo,
		settings:               settings,
		publisher:              publisher,
		db:                     db,
		clock:                  clock,
		interval:               interval,
		defaultBookingHoldback: bookingHoldback,
		defaultCourseHoldback:  courseHoldback,
	}
}

func (j *PayoutJob) Name() string            { return "process_payouts" }
func (j *PayoutJob) Interval() time.Duration { return j.interval }

func (j *PayoutJob) Run(ctx context.Context) error {
	now := j.clock.Now()

	bookingHoldback := j.holdback(ctx, shared.SettingBookingHoldbackHrs, j.defaultBookingHoldback)
	if err := j.release(ctx, order.TypeBooking, ledger.RefBookingPayout, now.Add(-bookingHoldback), now); err != nil {
		return err
	}

	courseHoldback := j.holdback(ctx, shared.SettingCourseHoldbackHrs, j.defaultCourseHoldback)
	return j.release(ctx, order.TypeCourse, ledger.RefCoursePayout, now.Add(-courseHoldback), now)
}

func (j *PayoutJob) holdback(ctx context.Context, key string, def time.Duration) time.Duration {
	hours := j.settings.GetInt(ctx, key, int(def/time.Hour))
	return time.Duration(hours) * time.Hour
}

func (j *PayoutJob) release(ctx context.Context, orderType order.Type, refType ledger.ReferenceType, cutoff, now time.Time) error {
	due, err := j.orderFinder.ListPayoutDue(ctx, j.db, orderType, cutoff, expireBatchSize)
	if err != nil {
		return errs.Wrapf(err, "listing %s orders due for payout", orderType)
	}

	released := 0
	for _, o := range due {
		id := o.ID()
		currency := o.Currency()
		ok, err := shared.WithDefaultRetry(ctx, j.db, func(tx db.DBTX) (bool, error) {
			return j.releaseOne(ctx, tx, id, currency, refType, now)
		})
		if err != nil {
			slog.Error("payout release failed", "order_id", id, "error", err)
			continue
		}
		if ok {
			released++
			j.publisher.Publish(ctx, shared.Event{
				Topic:   shared.TopicPayoutReleased,
				Key:     id.String(),
				Payload: map[string]any{"order_id": id, "reference_type": string(refType)},
			})
		}
	}
	if released > 0 {
		slog.Info("released payouts", "type", orderType, "count", released)
	}
	return nil
}

func (j *PayoutJob) releaseOne(ctx context.Context, tx db.DBTX, orderID uuid.UUID, currency string, refType ledger.ReferenceType, now time.Time) (bool, error) {
	done, err := j.ledgerRepo.HasEntry(ctx, tx, ledger.AccountMentorEscrow, ledger.Debit, refType, orderID)
	if err != nil {
		return false, err
	}
	if done {
		return false, nil
	}

	// a refund may have partially or fully drained the escrow in the
	// meantime; only what is left gets released
	remaining, err := j.ledgerRepo.AccountNetForReference(ctx, tx, ledger.AccountMentorEscrow, orderID)
	if err != nil {
		return false, err
	}
	if !remaining.IsPositive() {
		return false, nil
	}

	var mentorID *uuid.UUID
	entries, err := j.ledgerRepo.ListByReference(ctx, tx, orderID)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Account == ledger.AccountMentorEscrow && e.Direction == ledger.Credit && e.ReferenceType == ledger.RefOrderPayment {
			mentorID = e.OwnerID
			break
		}
	}

	debit, err := ledger.NewEntry(ledger.AccountMentorEscrow, mentorID, ledger.Debit, remaining, currency, refType, orderID, now)
	if err != nil {
		return false, err
	}
	credit, err := ledger.NewEntry(ledger.AccountMentorAvailable, mentorID, ledger.Credit, remaining, currency, refType, orderID, now)
	if err != nil {
		return false, err
	}
	if err := j.ledgerRepo.Insert(ctx, tx, debit, credit); err != nil {
		return false, err
	}
	return true, nil
}
