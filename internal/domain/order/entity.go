package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount     = errors.New("order amount must be positive")
	ErrInvalidType       = errors.New("invalid order type")
	ErrNotPending        = errors.New("order is not pending")
	ErrAlreadyPaid       = errors.New("order is already paid")
	ErrNotRefundable     = errors.New("order is not in a refundable status")
	ErrRefundExceedsPaid = errors.New("refund amount exceeds the refundable remainder")
	ErrNonPositiveRefund = errors.New("refund amount must be positive")
)

// Coupon captures the discount an order redeemed, and who created the coupon.
type Coupon struct {
	Code        string
	Discount    decimal.Decimal
	CreatorRole CouponRole
}

type Order struct {
	id             uuid.UUID
	buyerID        uuid.UUID
	resource       Resource
	amountTotal    decimal.Decimal
	currency       string
	status         Status
	refundedAmount decimal.Decimal
	paymentID      *string
	transactionID  *string
	checkoutToken  *string
	coupon         *Coupon
	createdAt      time.Time
	updatedAt      time.Time
}

func NewOrder(
	buyerID uuid.UUID,
	resource Resource,
	amountTotal decimal.Decimal,
	currency string,
	checkoutToken *string,
	coupon *Coupon,
	now time.Time,
) (*Order, error) {
	if !resource.Type.IsValid() {
		return nil, ErrInvalidType
	}
	if amountTotal.IsNegative() || amountTotal.IsZero() {
		return nil, ErrInvalidAmount
	}
	return &Order{
		id:             uuid.New(),
		buyerID:        buyerID,
		resource:       resource,
		amountTotal:    amountTotal,
		currency:       currency,
		status:         StatusPending,
		refundedAmount: decimal.Zero,
		checkoutToken:  checkoutToken,
		coupon:         coupon,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

func Reconstruct(
	id, buyerID uuid.UUID,
	resource Resource,
	amountTotal decimal.Decimal,
	currency string,
	status Status,
	refundedAmount decimal.Decimal,
	paymentID, transactionID, checkoutToken *string,
	coupon *Coupon,
	createdAt, updatedAt time.Time,
) *Order {
	return &Order{
		id:             id,
		buyerID:        buyerID,
		resource:       resource,
		amountTotal:    amountTotal,
		currency:       currency,
		status:         status,
		refundedAmount: refundedAmount,
		paymentID:      paymentID,
		transactionID:  transactionID,
		checkoutToken:  checkoutToken,
		coupon:         coupon,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// MarkPaid records the provider identifiers. Both ids are kept: refunds must
// go through the transaction id, not the payment id.
func (o *Order) MarkPaid(paymentID, transactionID string, now time.Time) error {
	if o.status == StatusPaid {
		return ErrAlreadyPaid
	}
	if o.status != StatusPending {
		return ErrNotPending
	}
	o.status = StatusPaid
	o.paymentID = &paymentID
	o.transactionID = &transactionID
	o.updatedAt = now
	return nil
}

func (o *Order) MarkFailed(now time.Time) error {
	if o.status != StatusPending {
		return ErrNotPending
	}
	o.status = StatusFailed
	o.updatedAt = now
	return nil
}

// MarkAbandoned closes a pending order that never produced a provider
// payment attempt.
func (o *Order) MarkAbandoned(now time.Time) error {
	if o.status != StatusPending {
		return ErrNotPending
	}
	o.status = StatusAbandoned
	o.updatedAt = now
	return nil
}

// RefundableRemainder is how much can still be returned.
func (o *Order) RefundableRemainder() decimal.Decimal {
	return o.amountTotal.Sub(o.refundedAmount)
}

// ApplyRefund accumulates a refund and recomputes the status. The invariant
// refundedAmount <= amountTotal holds; status is Refunded exactly when the
// whole total has been returned.
func (o *Order) ApplyRefund(amount decimal.Decimal, now time.Time) error {
	if amount.IsNegative() || amount.IsZero() {
		return ErrNonPositiveRefund
	}
	switch o.status {
	case StatusPaid, StatusPartiallyRefunded:
	default:
		return ErrNotRefundable
	}
	if amount.GreaterThan(o.RefundableRemainder()) {
		return ErrRefundExceedsPaid
	}

	o.refundedAmount = o.refundedAmount.Add(amount)
	if o.refundedAmount.GreaterThanOrEqual(o.amountTotal) {
		o.status = StatusRefunded
	} else {
		o.status = StatusPartiallyRefunded
	}
	o.updatedAt = now
	return nil
}

// HasProviderPayment reports whether the provider ever registered a payment
// attempt; expiry uses it to tell Abandoned from Failed.
func (o *Order) HasProviderPayment() bool {
	return o.paymentID != nil
}

func (o *Order) ID() uuid.UUID                   { return o.id }
func (o *Order) BuyerID() uuid.UUID              { return o.buyerID }
func (o *Order) Resource() Resource              { return o.resource }
func (o *Order) AmountTotal() decimal.Decimal    { return o.amountTotal }
func (o *Order) Currency() string                { return o.currency }
func (o *Order) Status() Status                  { return o.status }
func (o *Order) RefundedAmount() decimal.Decimal { return o.refundedAmount }
func (o *Order) PaymentID() *string              { return o.paymentID }
func (o *Order) TransactionID() *string          { return o.transactionID }
func (o *Order) CheckoutToken() *string          { return o.checkoutToken }
func (o *Order) Coupon() *Coupon                 { return o.coupon }
func (o *Order) CreatedAt() time.Time            { return o.createdAt }
func (o *Order) UpdatedAt() time.Time            { return o.updatedAt }
