package fake

import (
	"context"

	"mentorbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundCall records one provider refund attempt.
type RefundCall struct {
	TransactionID string
	Amount        decimal.Decimal
}

// PaymentProvider is a scriptable shared.PaymentProvider. The zero value
// verifies nothing and approves every refund.
type PaymentProvider struct {
	VerifyFunc  func(checkoutToken string) (shared.VerifyResult, error)
	RefundFunc  func(transactionID string, amount decimal.Decimal) (shared.RefundResult, error)
	RefundCalls []RefundCall
}

func (p *PaymentProvider) Verify(_ context.Context, checkoutToken string) (shared.VerifyResult, error) {
	if p.VerifyFunc != nil {
		return p.VerifyFunc(checkoutToken)
	}
	return shared.VerifyResult{Success: false, FailureReason: "unknown token"}, nil
}

func (p *PaymentProvider) Refund(_ context.Context, transactionID string, amount decimal.Decimal) (shared.RefundResult, error) {
	p.RefundCalls = append(p.RefundCalls, RefundCall{TransactionID: transactionID, Amount: amount})
	if p.RefundFunc != nil {
		return p.RefundFunc(transactionID, amount)
	}
	return shared.RefundResult{Success: true, ProviderRefundID: "re_" + transactionID}, nil
}

// VideoProvider records room completions and optionally fails them.
type VideoProvider struct {
	CompletedRooms []string
	CompleteErr    error
}

func (p *VideoProvider) CompleteRoom(_ context.Context, roomName string) error {
	if p.CompleteErr != nil {
		return p.CompleteErr
	}
	p.CompletedRooms = append(p.CompletedRooms, roomName)
	return nil
}

// Publisher collects published events for assertions.
type Publisher struct {
	Events []shared.Event
}

func (p *Publisher) Publish(_ context.Context, event shared.Event) {
	p.Events = append(p.Events, event)
}

// Topics returns the published topics in order.
func (p *Publisher) Topics() []string {
	out := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.Topic)
	}
	return out
}

// AuditRecord is one captured audit call.
type AuditRecord struct {
	EntityType  string
	EntityID    uuid.UUID
	Action      string
	OldValue    string
	NewValue    string
	Description string
	ActorID     *uuid.UUID
}

// Audit collects audit records for assertions.
type Audit struct {
	Records []AuditRecord
}

func (a *Audit) Record(_ context.Context, entityType string, entityID uuid.UUID, action, oldValue, newValue, description string, actorID *uuid.UUID) {
	a.Records = append(a.Records, AuditRecord{
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		OldValue:    oldValue,
		NewValue:    newValue,
		Description: description,
		ActorID:     actorID,
	})
}

// Settings is a map-backed shared.SettingsStore falling back to the caller's
// defaults, like the real store does for missing keys.
type Settings struct {
	Decimals map[string]decimal.Decimal
	Ints     map[string]int
	Bools    map[string]bool
}

func (s *Settings) GetDecimal(_ context.Context, key string, def decimal.Decimal) decimal.Decimal {
	if v, ok := s.Decimals[key]; ok {
		return v
	}
	return def
}

func (s *Settings) GetInt(_ context.Context, key string, def int) int {
	if v, ok := s.Ints[key]; ok {
		return v
	}
	return def
}

func (s *Settings) GetBool(_ context.Context, key string, def bool) bool {
	if v, ok := s.Bools[key]; ok {
		return v
	}
	return def
}

func (s *Settings) InvalidateAll() {}
