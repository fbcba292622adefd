package provider

import (
	"context"

	"mentorbook/internal/pkg/errs"
	"mentorbook/internal/usecase/shared"

	"github.com/shopspring/decimal"
)

var ErrNotConfigured = errs.New("external provider not configured")

// UnconfiguredPayment stands in when no PSP integration is wired. Every call
// errors as a transport failure, which callers treat as "unknown": nothing
// gets confirmed, failed, or refunded on its word.
type UnconfiguredPayment struct{}

func (UnconfiguredPayment) Verify(context.Context, string) (shared.VerifyResult, error) {
	return shared.VerifyResult{}, ErrNotConfigured
}

func (UnconfiguredPayment) Refund(context.Context, string, decimal.Decimal) (shared.RefundResult, error) {
	return shared.RefundResult{}, ErrNotConfigured
}

// UnconfiguredVideo accepts room completions silently so session enforcement
// can run without a video backend.
type UnconfiguredVideo struct{}

func (UnconfiguredVideo) CompleteRoom(context.Context, string) error { return nil }
