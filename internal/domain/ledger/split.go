package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRate   = errors.New("commission rate must be between 0 and 1")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Split is how one captured payment divides between the mentor and the
// platform. The two parts always sum to the amount actually paid.
type Split struct {
	MentorNet     decimal.Decimal
	PlatformShare decimal.Decimal
}

var one = decimal.NewFromInt(1)

// CommissionSplit computes the escrow/commission division for a paid order.
//
// With no coupon, or a mentor-created coupon, the commission applies to the
// amount actually paid: the mentor funded the discount. With an admin-created
// coupon the commission applies to the pre-discount price and the platform
// absorbs the discount, so the mentor's net is computed as if the student had
// paid full price. The platform share is whatever remains of the paid amount
// and can go negative when an admin discount exceeds the commission.
func CommissionSplit(amountPaid, discount decimal.Decimal, adminFundedDiscount bool, rate decimal.Decimal) (Split, error) {
	if !amountPaid.IsPositive() {
		return Split{}, ErrInvalidAmount
	}
	if rate.IsNegative() || rate.GreaterThan(one) {
		return Split{}, ErrInvalidRate
	}

	commissionBase := amountPaid
	if adminFundedDiscount && discount.IsPositive() {
		commissionBase = amountPaid.Add(discount)
	}

	mentorNet := commissionBase.Mul(one.Sub(rate)).Round(2)
	return Split{
		MentorNet:     mentorNet,
		PlatformShare: amountPaid.Sub(mentorNet),
	}, nil
}

// RefundSplit divides a refund between the mentor-side debit and the
// platform-side debit, proportionally to the original payment split, so that
// the two debits sum to the refunded amount. PlatformShare can be negative
// (a credit) when the original platform share was negative.
func RefundSplit(amount, originalMentorNet, amountTotal decimal.Decimal) (Split, error) {
	if !amount.IsPositive() || !amountTotal.IsPositive() {
		return Split{}, ErrInvalidAmount
	}

	mentorShare := amount.Mul(originalMentorNet).Div(amountTotal).Round(2)
	return Split{
		MentorNet:     mentorShare,
		PlatformShare: amount.Sub(mentorShare),
	}, nil
}
