//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"mentorbook/internal/domain/booking"
	"mentorbook/internal/domain/order"
	"mentorbook/internal/domain/schedule"
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

// env wires the command implementations against in-memory fakes, with the
// real refund commands plugged in as the booking cancellation's initiator.
type env struct {
	offerings *fake.OfferingRepo
	templates *fake.TemplateRepo
	slots     *fake.SlotRepo
	bookings  *fake.BookingRepo
	orders    *fake.OrderRepo
	entries   *fake.LedgerRepo
	requests  *fake.RefundRequestRepo
	provider  *fake.PaymentProvider
	settings  *fake.Settings
	publisher *fake.Publisher
	audit     *fake.Audit
	clock     *clock.MockClock

	availability commands.AvailabilityCommands
	bookingCmds  commands.BookingCommands
	payments     commands.PaymentCommands
	refunds      commands.RefundCommands
}

func newEnv() *env {
	e := &env{
		offerings: fake.NewOfferingRepo(),
		templates: fake.NewTemplateRepo(),
		slots:     fake.NewSlotRepo(),
		bookings:  fake.NewBookingRepo(),
		orders:    fake.NewOrderRepo(),
		entries:   fake.NewLedgerRepo(),
		requests:  fake.NewRefundRequestRepo(),
		provider:  &fake.PaymentProvider{},
		settings:  &fake.Settings{},
		publisher: &fake.Publisher{},
		audit:     &fake.Audit{},
		clock:     clock.NewMockClock(now),
	}
	e.orders.Bookings = e.bookings

	dbh := fake.NewDB()
	e.refunds = commands.NewRefundCommands(e.orders, e.bookings, e.slots, e.entries, e.requests, e.provider, e.publisher, e.audit, dbh, e.clock)
	e.bookingCmds = commands.NewBookingCommands(e.bookings, e.orders, e.offerings, e.templates, e.slots, e.refunds, e.publisher, e.audit, dbh, e.clock)
	e.payments = commands.NewPaymentCommands(e.orders, e.bookings, e.slots, e.entries, e.provider, e.settings, e.publisher, e.audit, dbh, e.clock)
	e.availability = commands.NewAvailabilityCommands(e.templates, e.slots, e.audit, dbh, e.clock)
	return e
}

func (e *env) seedTemplate(mentorID uuid.UUID) schedule.Template {
	tpl := schedule.Template{
		ID:                 uuid.New(),
		MentorID:           mentorID,
		TimeZone:           "UTC",
		MinNoticeHours:     24,
		MaxDaysAhead:       30,
		BufferMinutes:      15,
		GranularityMinutes: 30,
		MaxBookingsPerDay:  2,
	}
	e.templates.Seed(tpl)
	return tpl
}

// seeded is one mentor/student pair with an open slot and offering around
// startAt.
type seeded struct {
	mentorID   uuid.UUID
	studentID  uuid.UUID
	offeringID uuid.UUID
	slotID     uuid.UUID
	startAt    time.Time
}

func (e *env) seedMentor(price string) *seeded {
	s := &seeded{
		mentorID:   uuid.New(),
		studentID:  uuid.New(),
		offeringID: uuid.New(),
		slotID:     uuid.New(),
		startAt:    now.Add(48 * time.Hour),
	}
	e.seedTemplate(s.mentorID)
	e.offerings.Seed(commands.OfferingSnapshot{
		ID:              s.offeringID,
		MentorID:        s.mentorID,
		DurationMinutes: 60,
		Price:           dec(price),
		Currency:        "USD",
	})
	e.slots.Seed(schedule.Slot{
		ID:       s.slotID,
		MentorID: s.mentorID,
		StartAt:  s.startAt.Add(-time.Hour),
		EndAt:    s.startAt.Add(3 * time.Hour),
	})
	return s
}

// seedPendingBooking creates a booking awaiting payment together with its
// pending order.
func (e *env) seedPendingBooking(t *testing.T, price string, coupon *order.Coupon) (*seeded, *commands.CreateBookingResult) {
	t.Helper()
	s := e.seedMentor(price)
	token := "tok_" + s.offeringID.String()[:8]
	res, err := e.bookingCmds.CreateBooking(context.Background(), commands.CreateBookingRequest{
		StudentID:     s.studentID,
		OfferingID:    s.offeringID,
		StartAt:       s.startAt,
		CheckoutToken: &token,
		Coupon:        coupon,
	})
	require.NoError(t, err)
	return s, res
}

// seedPaidBooking runs the payment confirmation so the escrow entries exist.
func (e *env) seedPaidBooking(t *testing.T, price string, coupon *order.Coupon) (*seeded, *commands.CreateBookingResult) {
	t.Helper()
	s, res := e.seedPendingBooking(t, price, coupon)
	_, err := e.payments.ConfirmOrderPayment(context.Background(), res.OrderID, "pay_1", "txn_1")
	require.NoError(t, err)
	return s, res
}

func requireBookingStatus(t *testing.T, e *env, id uuid.UUID, want booking.Status) {
	t.Helper()
	b := e.bookings.Get(id)
	require.NotNil(t, b)
	require.Equal(t, want, b.Status())
}

func requireOrderStatus(t *testing.T, e *env, id uuid.UUID, want order.Status) {
	t.Helper()
	o := e.orders.Get(id)
	require.NotNil(t, o)
	require.Equal(t, want, o.Status())
}
