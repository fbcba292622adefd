package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAccount    = errors.New("invalid ledger account")
	ErrInvalidDirection  = errors.New("invalid ledger direction")
	ErrNonPositiveAmount = errors.New("ledger amount must be positive")
)

// Account is one of the named money buckets. Ownership is per mentor for the
// mentor accounts, per student for refunds, global for the platform account.
type Account string

const (
	AccountPlatform        Account = "platform"
	AccountMentorEscrow    Account = "mentor_escrow"
	AccountMentorAvailable Account = "mentor_available"
	AccountMentorPayout    Account = "mentor_payout"
	AccountStudentRefund   Account = "student_refund"
)

func (a Account) IsValid() bool {
	switch a {
	case AccountPlatform, AccountMentorEscrow, AccountMentorAvailable,
		AccountMentorPayout, AccountStudentRefund:
		return true
	default:
		return false
	}
}

type Direction string

const (
	Credit Direction = "credit"
	Debit  Direction = "debit"
)

// ReferenceType names the financial event a group of entries belongs to.
type ReferenceType string

const (
	RefOrderPayment  ReferenceType = "order_payment"
	RefOrderRefund   ReferenceType = "order_refund"
	RefBookingPayout ReferenceType = "booking_payout"
	RefCoursePayout  ReferenceType = "course_payout"
)

// Entry is an immutable ledger fact. There is no update and no delete; the
// balance of any account is always recomputed from its entries.
type Entry struct {
	ID            uuid.UUID
	Account       Account
	OwnerID       *uuid.UUID
	Direction     Direction
	Amount        decimal.Decimal
	Currency      string
	ReferenceType ReferenceType
	ReferenceID   uuid.UUID
	CreatedAt     time.Time
}

func NewEntry(
	account Account,
	ownerID *uuid.UUID,
	direction Direction,
	amount decimal.Decimal,
	currency string,
	refType ReferenceType,
	refID uuid.UUID,
	now time.Time,
) (Entry, error) {
	if !account.IsValid() {
		return Entry{}, ErrInvalidAccount
	}
	if direction != Credit && direction != Debit {
		return Entry{}, ErrInvalidDirection
	}
	if !amount.IsPositive() {
		return Entry{}, ErrNonPositiveAmount
	}
	return Entry{
		ID:            uuid.New(),
		Account:       account,
		OwnerID:       ownerID,
		Direction:     direction,
		Amount:        amount,
		Currency:      currency,
		ReferenceType: refType,
		ReferenceID:   refID,
		CreatedAt:     now,
	}, nil
}

// Signed is the entry's contribution to its account balance.
func (e Entry) Signed() decimal.Decimal {
	if e.Direction == Debit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Balance sums credits minus debits for one account across entries.
func Balance(entries []Entry, account Account) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		if e.Account == account {
			total = total.Add(e.Signed())
		}
	}
	return total
}

// Net sums every entry regardless of account. For a fully settled reference
// (paid then fully refunded) this is zero: money is conserved.
func Net(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Signed())
	}
	return total
}
