package queries

import (
	"context"

	"mentorbook/internal/domain/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LedgerViewRepo interface {
	EntriesByReference(ctx context.Context, refID uuid.UUID) ([]*LedgerEntryView, error)
	// AccountNetForOwner is credits minus debits for one account restricted
	// to an owner.
	AccountNetForOwner(ctx context.Context, account ledger.Account, ownerID uuid.UUID) (decimal.Decimal, error)
}

type LedgerQueries interface {
	// EntriesForOrder lists the full audit trail of one financial event.
	EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]*LedgerEntryView, error)
	// MentorBalance recomputes the mentor's escrow, available and paid-out
	// balances from the entries.
	MentorBalance(ctx context.Context, mentorID uuid.UUID) (*MentorBalanceView, error)
}

type ledgerQueriesImpl struct {
	repo LedgerViewRepo
}

func NewLedgerQueries(repo LedgerViewRepo) LedgerQueries {
	return &ledgerQueriesImpl{repo: repo}
}

func (q *ledgerQueriesImpl) EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]*LedgerEntryView, error) {
	return q.repo.EntriesByReference(ctx, orderID)
}

func (q *ledgerQueriesImpl) MentorBalance(ctx context.Context, mentorID uuid.UUID) (*MentorBalanceView, error) {
	escrow, err := q.repo.AccountNetForOwner(ctx, ledger.AccountMentorEscrow, mentorID)
	if err != nil {
		return nil, err
	}
	available, err := q.repo.AccountNetForOwner(ctx, ledger.AccountMentorAvailable, mentorID)
	if err != nil {
		return nil, err
	}
	paidOut, err := q.repo.AccountNetForOwner(ctx, ledger.AccountMentorPayout, mentorID)
	if err != nil {
		return nil, err
	}
	return &MentorBalanceView{
		MentorID:  mentorID,
		Escrow:    escrow,
		Available: available,
		PaidOut:   paidOut,
	}, nil
}
