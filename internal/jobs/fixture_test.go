//go:build unit

package jobs_test

import (
	"context"
	"testing"
	"time"

	"mentorbook/internal/domain/booking"
	"mentorbook/internal/domain/order"
	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/usecase/commands"
	"mentorbook/tests/common/fake"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 6, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type env struct {
	bookings  *fake.BookingRepo
	orders    *fake.OrderRepo
	slots     *fake.SlotRepo
	entries   *fake.LedgerRepo
	sessions  *fake.SessionRepo
	provider  *fake.PaymentProvider
	rooms     *fake.VideoProvider
	settings  *fake.Settings
	publisher *fake.Publisher
	audit     *fake.Audit
	clock     *clock.MockClock
	db        *fake.DB

	payments commands.PaymentCommands
}

func newEnv() *env {
	e := &env{
		bookings:  fake.NewBookingRepo(),
		orders:    fake.NewOrderRepo(),
		slots:     fake.NewSlotRepo(),
		entries:   fake.NewLedgerRepo(),
		sessions:  fake.NewSessionRepo(),
		provider:  &fake.PaymentProvider{},
		rooms:     &fake.VideoProvider{},
		settings:  &fake.Settings{},
		publisher: &fake.Publisher{},
		audit:     &fake.Audit{},
		clock:     clock.NewMockClock(now),
		db:        fake.NewDB(),
	}
	e.orders.Bookings = e.bookings
	e.sessions.Bookings = e.bookings

	e.payments = commands.NewPaymentCommands(e.orders, e.bookings, e.slots, e.entries, e.provider, e.settings, e.publisher, e.audit, e.db, e.clock)
	return e
}

// seedPendingPair creates a pending booking and its pending order, both
// created at the given time.
func (e *env) seedPendingPair(t *testing.T, createdAt time.Time, token *string) (*booking.Booking, *order.Order) {
	t.Helper()
	b, err := booking.NewBooking(uuid.New(), uuid.New(), uuid.New(), nil, createdAt.Add(72*time.Hour), 60, createdAt)
	require.NoError(t, err)
	e.bookings.Seed(b)

	o, err := order.NewOrder(b.StudentID(), order.Resource{Type: order.TypeBooking, ID: b.ID()}, dec("100.00"), "USD", token, nil, createdAt)
	require.NoError(t, err)
	e.orders.Seed(o)
	return b, o
}

// seedPaidPair creates a confirmed booking whose order has been paid, with
// the escrow split on the ledger.
func (e *env) seedPaidPair(t *testing.T, startAt time.Time) (*booking.Booking, *order.Order) {
	t.Helper()
	mentorID := uuid.New()
	b, err := booking.NewBooking(uuid.New(), mentorID, uuid.New(), nil, startAt, 60, now)
	require.NoError(t, err)
	e.bookings.Seed(b)

	o, err := order.NewOrder(b.StudentID(), order.Resource{Type: order.TypeBooking, ID: b.ID()}, dec("100.00"), "USD", nil, nil, now)
	require.NoError(t, err)
	e.orders.Seed(o)

	_, err = e.payments.ConfirmOrderPayment(context.Background(), o.ID(), "pay_1", "txn_1")
	require.NoError(t, err)
	return e.bookings.Get(b.ID()), e.orders.Get(o.ID())
}
