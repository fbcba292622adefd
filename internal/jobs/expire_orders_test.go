//go:build unit

package jobs_test

import (
	"context"
	"testing"
	"time"

	"mentorbook/internal/domain/booking"
	"mentorbook/internal/domain/order"
	"mentorbook/internal/jobs"
	"mentorbook/internal/usecase/shared"

	"github.com/google/uuid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExpireOrdersJob(e *env, expiry time.Duration) *jobs.ExpireOrdersJob {
	return jobs.NewExpireOrdersJob(e.orders, e.orders, e.bookings, e.slots, e.settings, e.publisher, e.db, e.clock, time.Minute, expiry)
}

func TestExpireOrders_AbandonsUnpaid(t *testing.T) {
	e := newEnv()
	b, o := e.seedPendingPair(t, now.Add(-45*time.Minute), nil)

	job := newExpireOrdersJob(e, 30*time.Minute)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, order.StatusAbandoned, e.orders.Get(o.ID()).Status())
	assert.Equal(t, booking.StatusExpired, e.bookings.Get(b.ID()).Status())
	assert.Equal(t, []string{shared.TopicBookingExpired}, e.publisher.Topics())
}

func TestExpireOrders_FailsOrderWithProviderPayment(t *testing.T) {
	e := newEnv()
	b, stale := e.seedPendingPair(t, now.Add(-45*time.Minute), nil)

	// the provider saw this payment; reconciliation must keep a trace
	payID := "pay_lost"
	o := order.Reconstruct(stale.ID(), stale.BuyerID(), stale.Resource(), stale.AmountTotal(), stale.Currency(),
		order.StatusPending, dec("0"), &payID, nil, nil, nil, stale.CreatedAt(), stale.CreatedAt())
	e.orders.Seed(o)

	job := newExpireOrdersJob(e, 30*time.Minute)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, order.StatusFailed, e.orders.Get(o.ID()).Status())
	assert.Equal(t, booking.StatusExpired, e.bookings.Get(b.ID()).Status())
}

func TestExpireOrders_LeavesFreshOrders(t *testing.T) {
	e := newEnv()
	b, o := e.seedPendingPair(t, now.Add(-10*time.Minute), nil)

	job := newExpireOrdersJob(e, 30*time.Minute)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, order.StatusPending, e.orders.Get(o.ID()).Status())
	assert.Equal(t, booking.StatusPendingPayment, e.bookings.Get(b.ID()).Status())
	assert.Empty(t, e.publisher.Events)
}

func TestExpireOrders_ExpiryOverrideFromSettings(t *testing.T) {
	e := newEnv()
	b, o := e.seedPendingPair(t, now.Add(-10*time.Minute), nil)
	e.settings.Ints = map[string]int{shared.SettingOrderExpiryMinutes: 5}

	job := newExpireOrdersJob(e, 30*time.Minute)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, order.StatusAbandoned, e.orders.Get(o.ID()).Status())
	assert.Equal(t, booking.StatusExpired, e.bookings.Get(b.ID()).Status())
}

func TestExpireBookings_ReleasesOrphanedBooking(t *testing.T) {
	e := newEnv()

	// booking without any order row, stuck in pending_payment
	b, err := booking.NewBooking(uuid.New(), uuid.New(), uuid.New(), nil, now.Add(72*time.Hour), 60, now.Add(-2*time.Hour))
	require.NoError(t, err)
	e.bookings.Seed(b)

	job := jobs.NewExpireBookingsJob(e.bookings, e.bookings, e.orders, e.slots, e.publisher, e.db, e.clock, time.Minute, time.Hour)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, booking.StatusExpired, e.bookings.Get(b.ID()).Status())
	assert.Equal(t, []string{shared.TopicBookingExpired}, e.publisher.Topics())
}

func TestExpireBookings_SkipsPaidOrder(t *testing.T) {
	e := newEnv()
	b, stale := e.seedPendingPair(t, now.Add(-2*time.Hour), nil)

	// confirmation in flight: the order is paid but the booking write lost
	payID, txnID := "pay_1", "txn_1"
	o := order.Reconstruct(stale.ID(), stale.BuyerID(), stale.Resource(), stale.AmountTotal(), stale.Currency(),
		order.StatusPaid, dec("0"), &payID, &txnID, nil, nil, stale.CreatedAt(), now)
	e.orders.Seed(o)

	job := jobs.NewExpireBookingsJob(e.bookings, e.bookings, e.orders, e.slots, e.publisher, e.db, e.clock, time.Minute, time.Hour)
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, booking.StatusPendingPayment, e.bookings.Get(b.ID()).Status())
	assert.Empty(t, e.publisher.Events)
}
