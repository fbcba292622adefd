//go:build unit

package booking_test

import (
	"testing"
	"time"

	"mentorbook/internal/domain/booking"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRefundPercentage(t *testing.T) {
	start := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"well before 24h", start.Add(-24*time.Hour - time.Second), "1"},
		{"exactly 24h", start.Add(-24 * time.Hour), "1"},
		{"just inside 24h", start.Add(-24*time.Hour + time.Second), "0.5"},
		{"exactly 2h", start.Add(-2 * time.Hour), "0.5"},
		{"just inside 2h", start.Add(-2*time.Hour + time.Second), "0"},
		{"one minute before start", start.Add(-time.Minute), "0"},
		{"at start", start, "0"},
		{"after start", start.Add(time.Hour), "0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := booking.RefundPercentage(start, tc.now)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"want %s, got %s", tc.want, got)
		})
	}
}
