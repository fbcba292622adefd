//go:build unit

package booking_test

import (
	"testing"
	"time"

	"mentorbook/internal/domain/booking"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newBooking(t *testing.T) *booking.Booking {
	t.Helper()
	slotID := uuid.New()
	b, err := booking.NewBooking(uuid.New(), uuid.New(), uuid.New(), &slotID, now.Add(48*time.Hour), 60, now)
	require.NoError(t, err)
	return b
}

func confirmed(t *testing.T) *booking.Booking {
	t.Helper()
	b := newBooking(t)
	require.NoError(t, b.Confirm(now))
	return b
}

func TestNewBooking(t *testing.T) {
	b := newBooking(t)

	assert.NotEqual(t, uuid.Nil, b.ID())
	assert.Equal(t, booking.StatusPendingPayment, b.Status())
	assert.Equal(t, 60, b.DurationMinutes())
	assert.Equal(t, b.StartAt().Add(time.Hour), b.EndAt())
}

func TestNewBooking_ZeroDuration(t *testing.T) {
	_, err := booking.NewBooking(uuid.New(), uuid.New(), uuid.New(), nil, now, 0, now)
	assert.ErrorIs(t, err, booking.ErrInvalidDuration)
}

func TestTransitions(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(*testing.T) *booking.Booking
		act   func(*booking.Booking) error
		want  booking.Status
		errIs error
	}{
		{
			name:  "confirm from pending payment",
			setup: newBooking,
			act:   func(b *booking.Booking) error { return b.Confirm(now) },
			want:  booking.StatusConfirmed,
		},
		{
			name:  "confirm twice rejected",
			setup: confirmed,
			act:   func(b *booking.Booking) error { return b.Confirm(now) },
			errIs: booking.ErrNotPendingPayment,
		},
		{
			name:  "complete from confirmed",
			setup: confirmed,
			act:   func(b *booking.Booking) error { return b.Complete(now) },
			want:  booking.StatusCompleted,
		},
		{
			name:  "complete from pending rejected",
			setup: newBooking,
			act:   func(b *booking.Booking) error { return b.Complete(now) },
			errIs: booking.ErrNotConfirmed,
		},
		{
			name:  "no-show from confirmed",
			setup: confirmed,
			act:   func(b *booking.Booking) error { return b.MarkAsNoShow(now) },
			want:  booking.StatusNoShow,
		},
		{
			name:  "expire from pending payment",
			setup: newBooking,
			act:   func(b *booking.Booking) error { return b.MarkAsExpired(now) },
			want:  booking.StatusExpired,
		},
		{
			name:  "expire confirmed rejected",
			setup: confirmed,
			act:   func(b *booking.Booking) error { return b.MarkAsExpired(now) },
			errIs: booking.ErrNotPendingPayment,
		},
		{
			name:  "cancel from pending payment",
			setup: newBooking,
			act:   func(b *booking.Booking) error { return b.Cancel("changed my mind", now) },
			want:  booking.StatusCancelled,
		},
		{
			name:  "cancel from confirmed",
			setup: confirmed,
			act:   func(b *booking.Booking) error { return b.Cancel("sick", now) },
			want:  booking.StatusCancelled,
		},
		{
			name: "cancel from completed rejected",
			setup: func(t *testing.T) *booking.Booking {
				b := confirmed(t)
				require.NoError(t, b.Complete(now))
				return b
			},
			act:   func(b *booking.Booking) error { return b.Cancel("too late", now) },
			errIs: booking.ErrNotCancellable,
		},
		{
			name: "dispute after completion",
			setup: func(t *testing.T) *booking.Booking {
				b := confirmed(t)
				require.NoError(t, b.Complete(now))
				return b
			},
			act:  func(b *booking.Booking) error { return b.Dispute("mentor never showed", now) },
			want: booking.StatusDisputed,
		},
		{
			name: "dispute after no-show",
			setup: func(t *testing.T) *booking.Booking {
				b := confirmed(t)
				require.NoError(t, b.MarkAsNoShow(now))
				return b
			},
			act:  func(b *booking.Booking) error { return b.Dispute("I was there", now) },
			want: booking.StatusDisputed,
		},
		{
			name:  "dispute pending payment rejected",
			setup: newBooking,
			act:   func(b *booking.Booking) error { return b.Dispute("early", now) },
			errIs: booking.ErrNotDisputable,
		},
		{
			name: "cancel disputed booking",
			setup: func(t *testing.T) *booking.Booking {
				b := confirmed(t)
				require.NoError(t, b.Dispute("issue", now))
				return b
			},
			act:  func(b *booking.Booking) error { return b.Cancel("resolved by refund", now) },
			want: booking.StatusCancelled,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.setup(t)
			err := tc.act(b)
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, b.Status())
		})
	}
}

func TestCancelRecordsReason(t *testing.T) {
	b := confirmed(t)
	require.NoError(t, b.Cancel("family emergency", now))
	assert.Equal(t, "family emergency", b.CancelReason())
}

func TestReschedule(t *testing.T) {
	t.Run("direct reschedule moves both ends", func(t *testing.T) {
		b := confirmed(t)
		newStart := now.Add(72 * time.Hour)

		require.NoError(t, b.Reschedule(newStart, now))

		assert.Equal(t, newStart, b.StartAt())
		assert.Equal(t, newStart.Add(time.Hour), b.EndAt())
		assert.Equal(t, booking.StatusConfirmed, b.Status())
	})

	t.Run("reschedule pending payment rejected", func(t *testing.T) {
		b := newBooking(t)
		assert.ErrorIs(t, b.Reschedule(now.Add(72*time.Hour), now), booking.ErrNotConfirmed)
	})

	t.Run("mentor proposal requires approval", func(t *testing.T) {
		b := confirmed(t)
		original := b.StartAt()
		proposed := now.Add(96 * time.Hour)

		require.NoError(t, b.ProposeReschedule(proposed, booking.RescheduleByMentor, now))
		assert.Equal(t, original, b.StartAt(), "start unchanged until approved")
		require.NotNil(t, b.ProposedStartAt())
		assert.Equal(t, proposed, *b.ProposedStartAt())

		require.NoError(t, b.ApproveReschedule(now))
		assert.Equal(t, proposed, b.StartAt())
		assert.Nil(t, b.ProposedStartAt())
		assert.Nil(t, b.ProposedBy())
	})

	t.Run("second proposal rejected while one is pending", func(t *testing.T) {
		b := confirmed(t)
		require.NoError(t, b.ProposeReschedule(now.Add(96*time.Hour), booking.RescheduleByMentor, now))
		err := b.ProposeReschedule(now.Add(120*time.Hour), booking.RescheduleByMentor, now)
		assert.ErrorIs(t, err, booking.ErrRescheduleInProgress)
	})

	t.Run("reject clears the proposal", func(t *testing.T) {
		b := confirmed(t)
		original := b.StartAt()
		require.NoError(t, b.ProposeReschedule(now.Add(96*time.Hour), booking.RescheduleByMentor, now))
		require.NoError(t, b.RejectReschedule(now))

		assert.Equal(t, original, b.StartAt())
		assert.Nil(t, b.ProposedStartAt())
	})

	t.Run("approve without proposal rejected", func(t *testing.T) {
		b := confirmed(t)
		assert.ErrorIs(t, b.ApproveReschedule(now), booking.ErrNoPendingReschedule)
	})
}
