package commands

import (
	"context"
	"log/slog"
	"time"

	"mentorbook/internal/domain/ledger"
	"mentorbook/internal/domain/order"
	"mentorbook/internal/domain/refund"
	"mentorbook/internal/infra"
	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/pkg/errs"
	"mentorbook/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrRefundRequestNotFound  = errs.New("refund request not found")
	ErrPendingRefundExists    = errs.New("order already has a pending refund request")
	ErrOrderNotRefundable     = errs.New("order has no refundable payment")
	ErrRefundExceedsRemainder = errs.New("refund amount exceeds the refundable remainder")
	ErrNotRequester           = errs.New("only the order's buyer may request a refund")
)

type RefundCommands interface {
	// RequestRefund files a student-side ask. At most one pending request per
	// order; a second files fails with ErrPendingRefundExists.
	RequestRefund(ctx context.Context, orderID, studentID uuid.UUID, amount decimal.Decimal, reason string) (uuid.UUID, error)
	// ApproveRefundRequest approves the pending request and executes the
	// refund for the approved amount.
	ApproveRefundRequest(ctx context.Context, requestID, adminID uuid.UUID, amount decimal.Decimal) error
	RejectRefundRequest(ctx context.Context, requestID, adminID uuid.UUID) error
	// InitiateRefund moves money back to the student: provider first, ledger
	// and order state second. A provider failure leaves everything untouched.
	InitiateRefund(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, refundType refund.Type, reason string, actorID *uuid.UUID) error
	RefundInitiator
}

type refundCommandsImpl struct {
	orderRepo   OrderRepository
	bookingRepo BookingRepository
	slotRepo    SlotRepository
	ledgerRepo  LedgerRepository
	requestRepo RefundRequestRepository
	provider    shared.PaymentProvider
	publisher   shared.EventPublisher
	audit       shared.AuditLog
	db          shared.DB
	clock       clock.Clock
}

func NewRefundCommands(
	orderRepo OrderRepository,
	bookingRepo BookingRepository,
	slotRepo SlotRepository,
	ledgerRepo LedgerRepository,
	requestRepo RefundRequestRepository,
	provider shared.PaymentProvider,
	publisher shared.EventPublisher,
	audit shared.AuditLog,
	db shared.DB,
	clock clock.Clock,
) RefundCommands {
	return &refundCommandsImpl{
		orderRepo:   orderRepo,
		bookingRepo: bookingRepo,
		slotRepo:    slotRepo,
		ledgerRepo:  ledgerRepo,
		requestRepo: requestRepo,
		provider:    provider,
		publisher:   publisher,
		audit:       audit,
		db:          db,
		clock:       clock,
	}
}

func (r *refundCommandsImpl) RequestRefund(ctx context.Context, orderID, studentID uuid.UUID, amount decimal.Decimal, reason string) (uuid.UUID, error) {
	now := r.clock.Now()

	id, err := shared.WithDefaultRetry(ctx, r.db, func(tx db.DBTX) (uuid.UUID, error) {
		o, err := r.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return uuid.Nil, ErrOrderNotFound
			}
			return uuid.Nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if o.BuyerID() != studentID {
			return uuid.Nil, ErrNotRequester
		}
		if !o.HasProviderPayment() {
			return uuid.Nil, ErrOrderNotRefundable
		}
		if amount.GreaterThan(o.RefundableRemainder()) {
			return uuid.Nil, ErrRefundExceedsRemainder
		}
		if _, err := r.requestRepo.FindPendingByOrder(ctx, tx, orderID); err == nil {
			return uuid.Nil, ErrPendingRefundExists
		} else if !infra.IsKind(err, infra.KindNotFound) {
			return uuid.Nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		req, err := refund.NewRequest(orderID, studentID, reason, refund.TypeStudentRequest, amount, now)
		if err != nil {
			return uuid.Nil, errs.Mark(err, ErrInvalidTransition)
		}
		if err := r.requestRepo.Create(ctx, tx, req); err != nil {
			if infra.IsKind(err, infra.KindConflict) || infra.IsKind(err, infra.KindDuplicateKey) {
				return uuid.Nil, ErrPendingRefundExists
			}
			return uuid.Nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return req.ID(), nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	r.audit.Record(ctx, "refund_request", id, "created", "", string(refund.StatusPending), reason, &studentID)
	return id, nil
}

func (r *refundCommandsImpl) ApproveRefundRequest(ctx context.Context, requestID, adminID uuid.UUID, amount decimal.Decimal) error {
	now := r.clock.Now()

	req, err := shared.WithDefaultRetry(ctx, r.db, func(tx db.DBTX) (*refund.Request, error) {
		req, err := r.requestRepo.FindByID(ctx, tx, requestID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil, ErrRefundRequestNotFound
			}
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := req.Approve(amount, now); err != nil {
			return nil, errs.Mark(err, ErrInvalidTransition)
		}
		if err := r.requestRepo.Update(ctx, tx, req); err != nil {
			return nil, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return req, nil
	})
	if err != nil {
		return err
	}

	r.audit.Record(ctx, "refund_request", requestID, "approved", string(refund.StatusPending), string(refund.StatusApproved), req.Reason(), &adminID)
	return r.InitiateRefund(ctx, req.OrderID(), amount, req.RefundType(), req.Reason(), &adminID)
}

func (r *refundCommandsImpl) RejectRefundRequest(ctx context.Context, requestID, adminID uuid.UUID) error {
	now := r.clock.Now()

	_, err := shared.WithDefaultRetry(ctx, r.db, func(tx db.DBTX) (struct{}, error) {
		req, err := r.requestRepo.FindByID(ctx, tx, requestID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return struct{}{}, ErrRefundRequestNotFound
			}
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		if err := req.Reject(now); err != nil {
			return struct{}{}, errs.Mark(err, ErrInvalidTransition)
		}
		if err := r.requestRepo.Update(ctx, tx, req); err != nil {
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	r.audit.Record(ctx, "refund_request", requestID, "rejected", string(refund.StatusPending), string(refund.StatusRejected), "", &adminID)
	return nil
}

func (r *refundCommandsImpl) InitiateRefund(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, refundType refund.Type, reason string, actorID *uuid.UUID) error {
	now := r.clock.Now()

	// Pre-flight read so provider money never moves for an order that cannot
	// absorb the refund. The tx below re-validates under the claim guard.
	o, err := r.orderRepo.FindByID(ctx, r.db, orderID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return ErrOrderNotFound
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if o.TransactionID() == nil {
		return ErrOrderNotRefundable
	}
	if amount.GreaterThan(o.RefundableRemainder()) {
		return ErrRefundExceedsRemainder
	}

	// Refunds reference the provider transaction, not the payment id.
	res, err := r.provider.Refund(ctx, *o.TransactionID(), amount)
	if err != nil {
		return errs.Mark(err, ErrPaymentProviderFailure)
	}
	if !res.Success {
		slog.Warn("provider rejected refund", "order_id", orderID, "reason", res.FailureReason)
		return errs.Wrapf(ErrPaymentProviderFailure, "refund rejected: %s", res.FailureReason)
	}

	_, err = shared.WithDefaultRetry(ctx, r.db, func(tx db.DBTX) (struct{}, error) {
		o, err := r.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}
		prev := o.Status()
		if err := o.ApplyRefund(amount, now); err != nil {
			return struct{}{}, errs.Mark(err, ErrRefundExceedsRemainder)
		}
		if err := r.orderRepo.Update(ctx, tx, o, prev); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				return struct{}{}, ErrRefundExceedsRemainder
			}
			return struct{}{}, errs.Mark(err, ErrDatabaseOperationFailed)
		}

		if err := r.writeRefundEntries(ctx, tx, o, amount, refundType, now); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, r.releaseBooking(ctx, tx, o, reason, now)
	})
	if err != nil {
		return err
	}

	r.publisher.Publish(ctx, shared.Event{
		Topic: shared.TopicOrderRefunded,
		Key:   orderID.String(),
		Payload: map[string]any{
			"order_id":           orderID,
			"amount":             amount.String(),
			"refund_type":        string(refundType),
			"provider_refund_id": res.ProviderRefundID,
		},
	})
	r.audit.Record(ctx, "order", orderID, "refunded", "", amount.String(), reason, actorID)
	return nil
}

// InitiateRefundForBooking resolves the booking's order and refunds the given
// fraction of the amount paid, capped at what is still refundable.
func (r *refundCommandsImpl) InitiateRefundForBooking(ctx context.Context, bookingID uuid.UUID, percentage decimal.Decimal, reason string) error {
	o, err := r.orderRepo.FindByResource(ctx, r.db, order.Resource{Type: order.TypeBooking, ID: bookingID})
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return ErrOrderNotFound
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}

	amount := o.AmountTotal().Mul(percentage).Round(2)
	if remainder := o.RefundableRemainder(); amount.GreaterThan(remainder) {
		amount = remainder
	}
	if !amount.IsPositive() {
		return nil
	}
	return r.InitiateRefund(ctx, o.ID(), amount, refund.TypeAdminInitiated, reason, nil)
}

// writeRefundEntries reverses the payment split proportionally. The mentor
// side comes out of escrow until the payout job has moved the funds, after
// which it comes out of the available balance. Goodwill credits never touch
// the mentor and land entirely on the platform.
func (r *refundCommandsImpl) writeRefundEntries(ctx context.Context, tx db.DBTX, o *order.Order, amount decimal.Decimal, refundType refund.Type, now time.Time) error {
	buyerID := o.BuyerID()
	entries := make([]ledger.Entry, 0, 3)

	if refundType == refund.TypeGoodwillCredit {
		platform, err := ledger.NewEntry(ledger.AccountPlatform, nil, ledger.Debit, amount, o.Currency(), ledger.RefOrderRefund, o.ID(), now)
		if err != nil {
			return errs.Mark(err, ErrInvalidTransition)
		}
		entries = append(entries, platform)
	} else {
		var (
			mentorNet = decimal.Zero
			mentorID  *uuid.UUID
		)
		paid, err := r.ledgerRepo.ListByReference(ctx, tx, o.ID())
		if err != nil {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
		for _, e := range paid {
			if e.Account == ledger.AccountMentorEscrow && e.Direction == ledger.Credit && e.ReferenceType == ledger.RefOrderPayment {
				mentorNet = e.Amount
				mentorID = e.OwnerID
				break
			}
		}

		split, err := ledger.RefundSplit(amount, mentorNet, o.AmountTotal())
		if err != nil {
			return errs.Mark(err, ErrInvalidTransition)
		}

		if split.MentorNet.IsPositive() {
			// After payout release the escrow is empty and the clawback hits
			// the mentor's available balance instead.
			account := ledger.AccountMentorEscrow
			released, err := r.ledgerRepo.HasEntry(ctx, tx, ledger.AccountMentorEscrow, ledger.Debit, ledger.RefBookingPayout, o.ID())
			if err != nil {
				return errs.Mark(err, ErrDatabaseOperationFailed)
			}
			if released {
				account = ledger.AccountMentorAvailable
			}
			mentor, err := ledger.NewEntry(account, mentorID, ledger.Debit, split.MentorNet, o.Currency(), ledger.RefOrderRefund, o.ID(), now)
			if err != nil {
				return errs.Mark(err, ErrInvalidTransition)
			}
			entries = append(entries, mentor)
		}

		if split.PlatformShare.IsPositive() {
			platform, err := ledger.NewEntry(ledger.AccountPlatform, nil, ledger.Debit, split.PlatformShare, o.Currency(), ledger.RefOrderRefund, o.ID(), now)
			if err != nil {
				return errs.Mark(err, ErrInvalidTransition)
			}
			entries = append(entries, platform)
		} else if split.PlatformShare.IsNegative() {
			// Admin-coupon orders carry a mentor net above the paid amount;
			// unwinding them recovers the subsidy.
			platform, err := ledger.NewEntry(ledger.AccountPlatform, nil, ledger.Credit, split.PlatformShare.Neg(), o.Currency(), ledger.RefOrderRefund, o.ID(), now)
			if err != nil {
				return errs.Mark(err, ErrInvalidTransition)
			}
			entries = append(entries, platform)
		}
	}

	student, err := ledger.NewEntry(ledger.AccountStudentRefund, &buyerID, ledger.Credit, amount, o.Currency(), ledger.RefOrderRefund, o.ID(), now)
	if err != nil {
		return errs.Mark(err, ErrInvalidTransition)
	}
	entries = append(entries, student)

	if err := r.ledgerRepo.Insert(ctx, tx, entries...); err != nil {
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	return nil
}

// releaseBooking cancels the refunded order's booking and frees its slot.
// No-op when the booking already left its active states, which is the normal
// path when the refund was triggered by the cancellation itself.
func (r *refundCommandsImpl) releaseBooking(ctx context.Context, tx db.DBTX, o *order.Order, reason string, now time.Time) error {
	if o.Resource().Type != order.TypeBooking {
		return nil
	}
	b, err := r.bookingRepo.FindByID(ctx, tx, o.Resource().ID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if !b.Status().IsActive() {
		return nil
	}

	prev := b.Status()
	if err := b.Cancel(reason, now); err != nil {
		return errs.Mark(err, ErrInvalidTransition)
	}
	if err := r.bookingRepo.Update(ctx, tx, b, prev); err != nil {
		if infra.IsKind(err, infra.KindConflict) {
			return nil
		}
		return errs.Mark(err, ErrDatabaseOperationFailed)
	}
	if b.SlotID() != nil {
		if err := r.slotRepo.SetBooked(ctx, tx, *b.SlotID(), false); err != nil && !infra.IsKind(err, infra.KindConflict) {
			return errs.Mark(err, ErrDatabaseOperationFailed)
		}
	}
	return nil
}
