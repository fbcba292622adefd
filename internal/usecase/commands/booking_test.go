//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"mentorbook/internal/domain/booking"
	"mentorbook/internal/domain/ledger"
	"mentorbook/internal/domain/order"
	"mentorbook/internal/usecase/commands"
	"mentorbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking(t *testing.T) {
	e := newEnv()
	s := e.seedMentor("100.00")

	res, err := e.bookingCmds.CreateBooking(context.Background(), commands.CreateBookingRequest{
		StudentID:  s.studentID,
		OfferingID: s.offeringID,
		StartAt:    s.startAt,
	})
	require.NoError(t, err)

	assert.True(t, res.Amount.Equal(dec("100.00")))
	requireBookingStatus(t, e, res.BookingID, booking.StatusPendingPayment)
	requireOrderStatus(t, e, res.OrderID, order.StatusPending)

	b := e.bookings.Get(res.BookingID)
	assert.Equal(t, s.mentorID, b.MentorID())
	require.NotNil(t, b.SlotID())
	assert.Equal(t, s.slotID, *b.SlotID())

	// the slot is only claimed when the payment lands
	slot, ok := e.slots.Get(s.slotID)
	require.True(t, ok)
	assert.False(t, slot.Booked)
}

func TestCreateBooking_CouponDiscountsOrder(t *testing.T) {
	e := newEnv()
	s := e.seedMentor("100.00")

	res, err := e.bookingCmds.CreateBooking(context.Background(), commands.CreateBookingRequest{
		StudentID:  s.studentID,
		OfferingID: s.offeringID,
		StartAt:    s.startAt,
		Coupon:     &order.Coupon{Code: "SAVE25", Discount: dec("25.00"), CreatorRole: order.CouponRoleMentor},
	})
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(dec("75.00")))
}

func TestCreateBooking_UnknownOffering(t *testing.T) {
	e := newEnv()

	_, err := e.bookingCmds.CreateBooking(context.Background(), commands.CreateBookingRequest{
		StudentID:  uuid.New(),
		OfferingID: uuid.New(),
		StartAt:    now.Add(48 * time.Hour),
	})
	assert.ErrorIs(t, err, commands.ErrOfferingNotFound)
}

func TestCreateBooking_InsufficientNotice(t *testing.T) {
	e := newEnv()
	s := e.seedMentor("100.00")

	_, err := e.bookingCmds.CreateBooking(context.Background(), commands.CreateBookingRequest{
		StudentID:  s.studentID,
		OfferingID: s.offeringID,
		StartAt:    now.Add(12 * time.Hour), // template requires 24h
	})
	assert.ErrorIs(t, err, commands.ErrInsufficientNotice)
}

func TestCreateBooking_NoCoveringSlot(t *testing.T) {
	e := newEnv()
	s := e.seedMentor("100.00")

	_, err := e.bookingCmds.CreateBooking(context.Background(), commands.CreateBookingRequest{
		StudentID:  s.studentID,
		OfferingID: s.offeringID,
		StartAt:    s.startAt.Add(72 * time.Hour),
	})
	assert.ErrorIs(t, err, commands.ErrSlotUnavailable)
}

func TestCreateBooking_BufferConflict(t *testing.T) {
	e := newEnv()
	s := e.seedMentor("100.00")

	existing, err := booking.NewBooking(uuid.New(), s.mentorID, s.offeringID, nil, s.startAt, 60, now)
	require.NoError(t, err)
	require.NoError(t, existing.Confirm(now))
	e.bookings.Seed(existing)

	// ten minutes after the previous session ends, inside the 15 minute buffer
	_, err = e.bookingCmds.CreateBooking(context.Background(), commands.CreateBookingRequest{
		StudentID:  s.studentID,
		OfferingID: s.offeringID,
		StartAt:    s.startAt.Add(70 * time.Minute),
	})
	assert.ErrorIs(t, err, commands.ErrBookingConflict)

	// exactly at the buffer boundary is allowed
	_, err = e.bookingCmds.CreateBooking(context.Background(), commands.CreateBookingRequest{
		StudentID:  s.studentID,
		OfferingID: s.offeringID,
		StartAt:    s.startAt.Add(75 * time.Minute),
	})
	assert.NoError(t, err)
}

func TestCreateBooking_DailyLimit(t *testing.T) {
	e := newEnv()
	s := e.seedMentor("100.00")

	day := s.startAt.Truncate(24 * time.Hour)
	for _, h := range []int{6, 8} {
		b, err := booking.NewBooking(uuid.New(), s.mentorID, s.offeringID, nil, day.Add(time.Duration(h)*time.Hour), 60, now)
		require.NoError(t, err)
		require.NoError(t, b.Confirm(now))
		e.bookings.Seed(b)
	}

	_, err := e.bookingCmds.CreateBooking(context.Background(), commands.CreateBookingRequest{
		StudentID:  s.studentID,
		OfferingID: s.offeringID,
		StartAt:    s.startAt,
	})
	assert.ErrorIs(t, err, commands.ErrDailyLimitReached)
}

func TestCancelBooking_BeforePayment(t *testing.T) {
	e := newEnv()
	s, res := e.seedPendingBooking(t, "100.00", nil)

	err := e.bookingCmds.CancelBooking(context.Background(), res.BookingID, s.studentID, "changed my mind")
	require.NoError(t, err)

	requireBookingStatus(t, e, res.BookingID, booking.StatusCancelled)
	assert.Empty(t, e.provider.RefundCalls, "nothing was paid, nothing to refund")
	assert.Contains(t, e.publisher.Topics(), shared.TopicBookingCancelled)
}

func TestCancelBooking_FullRefund(t *testing.T) {
	e := newEnv()
	s, res := e.seedPaidBooking(t, "100.00", nil)

	err := e.bookingCmds.CancelBooking(context.Background(), res.BookingID, s.studentID, "emergency")
	require.NoError(t, err)

	requireBookingStatus(t, e, res.BookingID, booking.StatusCancelled)
	requireOrderStatus(t, e, res.OrderID, order.StatusRefunded)

	require.Len(t, e.provider.RefundCalls, 1)
	assert.Equal(t, "txn_1", e.provider.RefundCalls[0].TransactionID)
	assert.True(t, e.provider.RefundCalls[0].Amount.Equal(dec("100.00")))

	// escrow fully unwound, student credited in full
	net, err := e.entries.AccountNetForReference(context.Background(), nil, ledger.AccountMentorEscrow, res.OrderID)
	require.NoError(t, err)
	assert.True(t, net.IsZero(), "escrow net %s", net)

	student := e.entries.ByAccount(ledger.AccountStudentRefund)
	require.Len(t, student, 1)
	assert.True(t, student[0].Amount.Equal(dec("100.00")))

	slot, ok := e.slots.Get(s.slotID)
	require.True(t, ok)
	assert.False(t, slot.Booked)
}

func TestCancelBooking_HalfRefundInsideWindow(t *testing.T) {
	e := newEnv()
	s, res := e.seedPaidBooking(t, "100.00", nil)

	e.clock.Set(s.startAt.Add(-3 * time.Hour))

	err := e.bookingCmds.CancelBooking(context.Background(), res.BookingID, s.studentID, "late cancel")
	require.NoError(t, err)

	requireOrderStatus(t, e, res.OrderID, order.StatusPartiallyRefunded)
	require.Len(t, e.provider.RefundCalls, 1)
	assert.True(t, e.provider.RefundCalls[0].Amount.Equal(dec("50.00")))

	// proportional clawback: half the mentor net, half the platform share
	net, err := e.entries.AccountNetForReference(context.Background(), nil, ledger.AccountMentorEscrow, res.OrderID)
	require.NoError(t, err)
	assert.True(t, net.Equal(dec("42.50")), "escrow net %s", net)
}

func TestCancelBooking_TooLateForRefund(t *testing.T) {
	e := newEnv()
	s, res := e.seedPaidBooking(t, "100.00", nil)

	e.clock.Set(s.startAt.Add(-time.Hour))

	err := e.bookingCmds.CancelBooking(context.Background(), res.BookingID, s.studentID, "no-notice cancel")
	require.NoError(t, err)

	requireBookingStatus(t, e, res.BookingID, booking.StatusCancelled)
	requireOrderStatus(t, e, res.OrderID, order.StatusPaid)
	assert.Empty(t, e.provider.RefundCalls)
}

func TestRescheduleBooking(t *testing.T) {
	e := newEnv()
	s, res := e.seedPaidBooking(t, "100.00", nil)

	newStart := s.startAt.Add(30 * time.Minute)
	err := e.bookingCmds.RescheduleBooking(context.Background(), res.BookingID, s.studentID, newStart)
	require.NoError(t, err)

	b := e.bookings.Get(res.BookingID)
	assert.Equal(t, newStart, b.StartAt())
	assert.Equal(t, booking.StatusConfirmed, b.Status())
}

func TestRescheduleBooking_WrongStudent(t *testing.T) {
	e := newEnv()
	s, res := e.seedPaidBooking(t, "100.00", nil)

	err := e.bookingCmds.RescheduleBooking(context.Background(), res.BookingID, uuid.New(), s.startAt.Add(time.Hour))
	assert.ErrorIs(t, err, commands.ErrNotRescheduleParty)
}

func TestRescheduleBooking_InsufficientNotice(t *testing.T) {
	e := newEnv()
	s, res := e.seedPaidBooking(t, "100.00", nil)

	err := e.bookingCmds.RescheduleBooking(context.Background(), res.BookingID, s.studentID, now.Add(time.Hour))
	assert.ErrorIs(t, err, commands.ErrInsufficientNotice)
}

func TestProposeAndApproveReschedule(t *testing.T) {
	e := newEnv()
	s, res := e.seedPaidBooking(t, "100.00", nil)

	proposed := s.startAt.Add(2 * time.Hour)
	require.NoError(t, e.bookingCmds.ProposeReschedule(context.Background(), res.BookingID, s.mentorID, proposed))

	b := e.bookings.Get(res.BookingID)
	require.NotNil(t, b.ProposedStartAt())
	assert.Equal(t, proposed, *b.ProposedStartAt())
	assert.Equal(t, s.startAt, b.StartAt(), "start does not move until approval")

	require.NoError(t, e.bookingCmds.ApproveReschedule(context.Background(), res.BookingID, s.studentID))

	b = e.bookings.Get(res.BookingID)
	assert.Equal(t, proposed, b.StartAt())
	assert.Nil(t, b.ProposedStartAt())
}

func TestProposeReschedule_OnlyMentor(t *testing.T) {
	e := newEnv()
	s, res := e.seedPaidBooking(t, "100.00", nil)

	err := e.bookingCmds.ProposeReschedule(context.Background(), res.BookingID, s.studentID, s.startAt.Add(time.Hour))
	assert.ErrorIs(t, err, commands.ErrNotRescheduleParty)
}

func TestRejectReschedule(t *testing.T) {
	e := newEnv()
	s, res := e.seedPaidBooking(t, "100.00", nil)

	require.NoError(t, e.bookingCmds.ProposeReschedule(context.Background(), res.BookingID, s.mentorID, s.startAt.Add(2*time.Hour)))
	require.NoError(t, e.bookingCmds.RejectReschedule(context.Background(), res.BookingID, s.studentID))

	b := e.bookings.Get(res.BookingID)
	assert.Nil(t, b.ProposedStartAt())
	assert.Equal(t, s.startAt, b.StartAt())
}
