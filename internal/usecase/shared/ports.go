package shared

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VerifyResult is the provider's answer for a checkout token. Success false
// means the provider answered and the payment did not happen; a transport
// error is returned separately and means nothing about the payment.
type VerifyResult struct {
	Success       bool
	OrderID       uuid.UUID
	PaymentID     string
	TransactionID string
	Amount        decimal.Decimal
	FailureReason string
}

type RefundResult struct {
	Success          bool
	ProviderRefundID string
	FailureReason    string
}

// PaymentProvider is the external PSP. Implementations must apply explicit
// timeouts; callers treat transport errors as "unknown", never as "failed".
type PaymentProvider interface {
	Verify(ctx context.Context, checkoutToken string) (VerifyResult, error)
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (RefundResult, error)
}

// VideoProvider manages session rooms. CompleteRoom is idempotent when the
// room is already closed.
type VideoProvider interface {
	CompleteRoom(ctx context.Context, roomName string) error
}

// SettingsStore serves runtime-configurable platform settings from a cached
// table. Defaults apply when a key is absent or unparseable.
type SettingsStore interface {
	GetDecimal(ctx context.Context, key string, def decimal.Decimal) decimal.Decimal
	GetInt(ctx context.Context, key string, def int) int
	GetBool(ctx context.Context, key string, def bool) bool
	InvalidateAll()
}

// Platform setting keys.
const (
	SettingCommissionRate     = "billing.commission_rate"
	SettingOrderExpiryMinutes = "billing.order_expiry_minutes"
	SettingBookingHoldbackHrs = "billing.booking_holdback_hours"
	SettingCourseHoldbackHrs  = "billing.course_holdback_hours"
)

// AuditLog records administrative history. Fire-and-forget: implementations
// swallow their own failures so auditing can never roll back a transaction.
type AuditLog interface {
	Record(ctx context.Context, entityType string, entityID uuid.UUID, action, oldValue, newValue, description string, actorID *uuid.UUID)
}

// Event is an outbound domain event. Delivery is decoupled from the domain
// transaction: publish failures are logged and dropped, never propagated.
type Event struct {
	Topic   string
	Key     string
	Payload any
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}

// Event topics consumed by the notification collaborator.
const (
	TopicBookingConfirmed = "booking.confirmed"
	TopicBookingCancelled = "booking.cancelled"
	TopicBookingCompleted = "booking.completed"
	TopicBookingNoShow    = "booking.no_show"
	TopicBookingExpired   = "booking.expired"
	TopicOrderRefunded    = "order.refunded"
	TopicPayoutReleased   = "payout.released"
)
