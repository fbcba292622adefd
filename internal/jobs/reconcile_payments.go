package jobs

import (
	"context"
	"log/slog"
	"time"

	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/pkg/errs"
	"mentorbook/internal/usecase/commands"
	"mentorbook/internal/usecase/shared"
)

// ReconcilePaymentsJob re-checks pending orders against the provider to
// recover payments whose webhook was lost. Only orders old enough to be
// suspicious and young enough to still matter are queried. The job only ever
// confirms: an order the provider does not know about stays pending until
// ExpirePendingOrders closes it, so a buyer still mid-checkout is never
// failed out from under a later payment.
type ReconcilePaymentsJob struct {
	orderFinder     OrderFinder
	payments        commands.PaymentCommands
	provider        shared.PaymentProvider
	db              shared.DB
	clock           clock.Clock
	interval        time.Duration
	minAge          time.Duration
	maxAge          time.Duration
	providerTimeout time.Duration
}

func NewReconcilePaymentsJob(
	orderFinder OrderFinder,
	payments commands.PaymentCommands,
	provider shared.PaymentProvider,
	db shared.DB,
	clock clock.Clock,
	interval, minAge, maxAge, providerTimeout time.Duration,
) *ReconcilePaymentsJob {
	return &ReconcilePaymentsJob{
		orderFinder:     orderFinder,
		payments:        payments,
		provider:        provider,
		db:              db,
		clock:           clock,
		interval:        interval,
		minAge:          minAge,
		maxAge:          maxAge,
		providerTimeout: providerTimeout,
	}
}

func (j *ReconcilePaymentsJob) Name() string            { return "payment_reconciliation" }
func (j *ReconcilePaymentsJob) Interval() time.Duration { return j.interval }

func (j *ReconcilePaymentsJob) Run(ctx context.Context) error {
	now := j.clock.Now()
	oldest := now.Add(-j.maxAge)
	newest := now.Add(-j.minAge)

	due, err := j.orderFinder.ListPendingWithTokenBetween(ctx, j.db, oldest, newest, expireBatchSize)
	if err != nil {
		return errs.Wrap(err, "listing orders for reconciliation")
	}

	recovered := 0
	for _, o := range due {
		if o.CheckoutToken() == nil {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, j.providerTimeout)
		res, err := j.provider.Verify(callCtx, *o.CheckoutToken())
		cancel()
		if err != nil {
			// unknown outcome, try again next sweep
			slog.Warn("reconciliation verify failed", "order_id", o.ID(), "error", err)
			continue
		}
		if !res.Success {
			continue
		}

		if _, err := j.payments.ConfirmOrderPayment(ctx, o.ID(), res.PaymentID, res.TransactionID); err != nil {
			slog.Error("reconciliation confirm failed", "order_id", o.ID(), "error", err)
			continue
		}
		recovered++
	}

	if recovered > 0 {
		slog.Info("reconciliation recovered lost payments", "count", recovered)
	}
	return nil
}
