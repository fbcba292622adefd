package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	fullRefund = decimal.NewFromInt(1)
	halfRefund = decimal.RequireFromString("0.5")
)

// RefundPercentage is the time-to-start cancellation policy: full refund at
// 24 hours or more before the session, half at 2 hours or more, nothing after.
// The thresholds are inclusive.
func RefundPercentage(startAt, now time.Time) decimal.Decimal {
	until := startAt.Sub(now)
	switch {
	case until >= 24*time.Hour:
		return fullRefund
	case until >= 2*time.Hour:
		return halfRefund
	default:
		return decimal.Zero
	}
}
