package queries

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Read models (DTO for read side)
type BookableWindowView struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

type BookingView struct {
	ID               uuid.UUID  `json:"id"`
	StudentID        uuid.UUID  `json:"student_id"`
	MentorID         uuid.UUID  `json:"mentor_id"`
	OfferingID       uuid.UUID  `json:"offering_id"`
	StartAt          time.Time  `json:"start_at"`
	EndAt            time.Time  `json:"end_at"`
	Status           string     `json:"status"`
	CancelReason     *string    `json:"cancel_reason,omitempty"`
	ProposedStartAt  *time.Time `json:"proposed_start_at,omitempty"`
	ProposedBy       *string    `json:"proposed_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type BookingListItem struct {
	ID      uuid.UUID `json:"id"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
	Status  string    `json:"status"`
}

type OrderView struct {
	ID             uuid.UUID       `json:"id"`
	BuyerID        uuid.UUID       `json:"buyer_id"`
	ResourceType   string          `json:"resource_type"`
	ResourceID     uuid.UUID       `json:"resource_id"`
	AmountTotal    decimal.Decimal `json:"amount_total"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

type LedgerEntryView struct {
	ID            uuid.UUID       `json:"id"`
	Account       string          `json:"account"`
	OwnerID       *uuid.UUID      `json:"owner_id,omitempty"`
	Direction     string          `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	ReferenceType string          `json:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MentorBalanceView is recomputed from entries on every call; balances are
// never stored.
type MentorBalanceView struct {
	MentorID  uuid.UUID       `json:"mentor_id"`
	Escrow    decimal.Decimal `json:"escrow"`
	Available decimal.Decimal `json:"available"`
	PaidOut   decimal.Decimal `json:"paid_out"`
}
