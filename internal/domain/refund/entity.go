package refund

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveAmount = errors.New("requested refund amount must be positive")
	ErrNotPending        = errors.New("refund request is not pending")
	ErrInvalidType       = errors.New("invalid refund type")
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Type string

const (
	TypeStudentRequest Type = "student_request"
	TypeAdminInitiated Type = "admin_initiated"
	TypeGoodwillCredit Type = "goodwill_credit"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeStudentRequest, TypeAdminInitiated, TypeGoodwillCredit:
		return true
	default:
		return false
	}
}

// Request is a pending ask to return money on an order. At most one pending
// request exists per order at a time.
type Request struct {
	id              uuid.UUID
	orderID         uuid.UUID
	requesterID     uuid.UUID
	reason          string
	status          Status
	refundType      Type
	requestedAmount decimal.Decimal
	approvedAmount  *decimal.Decimal
	createdAt       time.Time
	updatedAt       time.Time
}

func NewRequest(
	orderID, requesterID uuid.UUID,
	reason string,
	refundType Type,
	requestedAmount decimal.Decimal,
	now time.Time,
) (*Request, error) {
	if !refundType.IsValid() {
		return nil, ErrInvalidType
	}
	if !requestedAmount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	return &Request{
		id:              uuid.New(),
		orderID:         orderID,
		requesterID:     requesterID,
		reason:          reason,
		status:          StatusPending,
		refundType:      refundType,
		requestedAmount: requestedAmount,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

func Reconstruct(
	id, orderID, requesterID uuid.UUID,
	reason string,
	status Status,
	refundType Type,
	requestedAmount decimal.Decimal,
	approvedAmount *decimal.Decimal,
	createdAt, updatedAt time.Time,
) *Request {
	return &Request{
		id:              id,
		orderID:         orderID,
		requesterID:     requesterID,
		reason:          reason,
		status:          status,
		refundType:      refundType,
		requestedAmount: requestedAmount,
		approvedAmount:  approvedAmount,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (r *Request) Approve(amount decimal.Decimal, now time.Time) error {
	if r.status != StatusPending {
		return ErrNotPending
	}
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	r.status = StatusApproved
	r.approvedAmount = &amount
	r.updatedAt = now
	return nil
}

func (r *Request) Reject(now time.Time) error {
	if r.status != StatusPending {
		return ErrNotPending
	}
	r.status = StatusRejected
	r.updatedAt = now
	return nil
}

func (r *Request) ID() uuid.UUID                    { return r.id }
func (r *Request) OrderID() uuid.UUID               { return r.orderID }
func (r *Request) RequesterID() uuid.UUID           { return r.requesterID }
func (r *Request) Reason() string                   { return r.reason }
func (r *Request) Status() Status                   { return r.status }
func (r *Request) RefundType() Type                 { return r.refundType }
func (r *Request) RequestedAmount() decimal.Decimal { return r.requestedAmount }
func (r *Request) ApprovedAmount() *decimal.Decimal { return r.approvedAmount }
func (r *Request) CreatedAt() time.Time             { return r.createdAt }
func (r *Request) UpdatedAt() time.Time             { return r.updatedAt }
