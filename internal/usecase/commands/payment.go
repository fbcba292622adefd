package commands

import (
	"context"
	"log/slog"
	"time"

	"mentorbook/internal/domain/booking"
	"mentorbook/internal/domain/ledger"
	"mentorbook/internal/domain/order"
	"mentorbook/internal/infra"
	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/pkg/errs"
	"mentorbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound          = errs.New("order not found")
	ErrPaymentNotVerified     = errs.New("payment was not verified by the provider")
	ErrPaymentProviderFailure = errs.New("payment provider unreachable")
)

var defaultCommissionRate = decimal.RequireFromString("0.15")

// ConfirmResult reports whether this caller performed the confirmation or a
// concurrent actor (webhook vs reconciliation) already had.
type ConfirmResult struct {
	OrderID       uuid.UUID
	AlreadyPaid   bool
	MentorNet     decimal.Decimal
	PlatformShare decimal.Decimal
}

type PaymentCommands interface {
	// HandlePaymentWebhook verifies a checkout token with the provider and
	// confirms the matching order.
	HandlePaymentWebhook(ctx context.Context, checkoutToken string) (*ConfirmResult, error)
	// ConfirmOrderPayment marks the order paid and writes the escrow split.
	// Idempotent: the second caller in the webhook/reconciliation race sees
	// AlreadyPaid and changes nothing.
	ConfirmOrderPayment(ctx context.Context, orderID uuid.UUID, paymentID, transactionID string) (*ConfirmResult, error)
}

type paymentCommandsImpl struct {
	orderRepo   OrderRepository
	bookingRepo BookingRepository
	slotRepo    SlotRepository
	ledgerRepo  LedgerRepository
	provider    shared.PaymentProvider
	settings    shared.SettingsStore
	publisher   shared.EventPublisher
	audit       shared.AuditLog
	db          shared.DB
	clock       clock.Clock
}

func NewPaymentCommands(
	orderRepo OrderRepository,
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	ledgerRepo LedgerRepository,
	provider shared.PaymentProvider,
	settings shared.SettingsStore,
	publisher shared.EventPublisher,
	audit shared.AuditLog,
	db shared.DB,
	clock clock.Clock,
) PaymentCommands {
	return &paymentCommandsImpl{
		orderRepo:   orderRepo,
		bookingRepo: bookingRepo,
		slotRepo:    slotRepo,
		ledgerRepo:  ledgerRepo,
		provider:    provider,
		settings:    settings,
		publisher:   publisher,
		audit:       audit,
		db:          db,
		clock:       clock,
	}
}

func (p *paymentCommandsImpl) HandlePaymentWebhook(ctx context.Context, checkoutToken string) (*ConfirmResult, error) {
	verification, err := p.provider.Verify(ctx, checkoutToken)
	if err != nil {
		// unreachable is not "unpaid": leave the order for reconciliation
		return nil, errs.Mark(err, ErrPaymentProviderFailure)
	}
	if !verification.Success {
		return nil, ErrPaymentNotVerified
	}

	return p.ConfirmOrderPayment(ctx, verification.OrderID, verification.PaymentID, verification.TransactionID)
}

func (p *paymentCommandsImpl) ConfirmOrderPayment(ctx context.Context, orderID uuid.UUID, paymentID, transactionID string) (*ConfirmResult, error) {
	now := p.clock.Now()
	rate := p.settings.GetDecimal(ctx, shared.SettingCommissionRate, defaultCommissionRate)

	result, err := shared.WithDefaultRetry(ctx, p.db, func(tx db.DBTX) (*ConfirmResult, error) {
		o, err := p.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, ErrOrderNotFound
			}
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		// the race: whoever confirmed first wins, the other exits cleanly
		if o.Status() == order.StatusPaid {
			return &ConfirmResult{OrderID: orderID, AlreadyPaid: true}, nil
		}

		if err := o.MarkPaid(paymentID, transactionID, now); err != nil {
			return nil, errs.Mark(err, ErrInvalidTransition)
		}
		if err := p.orderRepo.Update(ctx, tx, o, order.StatusPending); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				// a concurrent confirm slipped in between read and write
				return &ConfirmResult{OrderID: orderID, AlreadyPaid: true}, nil
			}
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		split, err := p.settleBookingOrder(ctx, tx, o, rate, now)
		if err != nil {
			return nil, err
		}

		return &ConfirmResult{
			OrderID:       orderID,
			MentorNet:     split.MentorNet,
			PlatformShare: split.PlatformShare,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyPaid {
		p.publisher.Publish(ctx, shared.Event{
			Topic: shared.TopicBookingConfirmed,
			Key:   orderID.String(),
			Payload: map[string]any{
				"order_id":   orderID,
				"payment_id": paymentID,
			},
		})
		p.audit.Record(ctx, "order", orderID, "paid", string(order.StatusPending), string(order.StatusPaid), "payment confirmed, escrow split written", nil)
	}
	return result, nil
}

// settleBookingOrder confirms the linked booking, claims its slot, and writes
// the escrow/commission entries. Everything happens in the caller's tx.
func (p *paymentCommandsImpl) settleBookingOrder(ctx context.Context, tx db.DBTX, o *order.Order, rate decimal.Decimal, now time.Time) (ledger.Split, error) {
	var mentorID uuid.UUID

	if o.Resource().Type == order.TypeBooking {
		b, err := p.bookingRepo.FindByID(ctx, tx, o.Resource().ID)
		if err != nil {
			return ledger.Split{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		mentorID = b.MentorID()

		if err := b.Confirm(now); err != nil {
			return ledger.Split{}, errs.Mark(err, ErrInvalidTransition)
		}
		if err := p.bookingRepo.Update(ctx, tx, b, booking.StatusPendingPayment); err != nil {
			return ledger.Split{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if b.SlotID() != nil {
			if err := p.slotRepo.SetBooked(ctx, tx, *b.SlotID(), true); err != nil {
				return ledger.Split{}, errs.Mark(err, ErrDatabaseOperationFailed)
			}
		}
	}

	discount := decimal.Zero
	adminFunded := false
	if c := o.Coupon(); c != nil {
		discount = c.Discount
		adminFunded = c.CreatorRole == order.CouponRoleAdmin
	}

	split, err := ledger.CommissionSplit(o.AmountTotal(), discount, adminFunded, rate)
	if err != nil {
		return ledger.Split{}, errs.Mark(err, ErrInvalidTransition)
	}

	entries := make([]ledger.Entry, 0, 2)
	escrow, err := ledger.NewEntry(ledger.AccountMentorEscrow, ownerPtr(mentorID), ledger.Credit, split.MentorNet, o.Currency(), ledger.RefOrderPayment, o.ID(), now)
	if err != nil {
		return ledger.Split{}, errs.Mark(err, ErrInvalidTransition)
	}
	entries = append(entries, escrow)

	// a heavily subsidized admin coupon can leave the platform share at or
	// below zero; the ledger records only positive facts
	if split.PlatformShare.IsPositive() {
		fee, err := ledger.NewEntry(ledger.AccountPlatform, nil, ledger.Credit, split.PlatformShare, o.Currency(), ledger.RefOrderPayment, o.ID(), now)
		if err != nil {
			return ledger.Split{}, errs.Mark(err, ErrInvalidTransition)
		}
		entries = append(entries, fee)
	} else if split.PlatformShare.IsNegative() {
		subsidy, err := ledger.NewEntry(ledger.AccountPlatform, nil, ledger.Debit, split.PlatformShare.Neg(), o.Currency(), ledger.RefOrderPayment, o.ID(), now)
		if err != nil {
			return ledger.Split{}, errs.Mark(err, ErrInvalidTransition)
		}
		entries = append(entries, subsidy)
	}

	if err := p.ledgerRepo.Insert(ctx, tx, entries...); err != nil {
		return ledger.Split{}, errs.Mark(err, ErrDatabaseOperationFailed)
	}

	slog.Debug("escrow split written",
		"order_id", o.ID(),
		"mentor_net", split.MentorNet.String(),
		"platform_share", split.PlatformShare.String())
	return split, nil
}

func ownerPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
