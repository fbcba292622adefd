package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidDuration      = errors.New("booking duration must be positive")
	ErrNotPendingPayment    = errors.New("booking is not awaiting payment")
	ErrNotConfirmed         = errors.New("booking is not confirmed")
	ErrNotCancellable       = errors.New("booking cannot be cancelled in its current status")
	ErrNotDisputable        = errors.New("booking cannot be disputed in its current status")
	ErrNoPendingReschedule  = errors.New("booking has no pending reschedule")
	ErrRescheduleInProgress = errors.New("booking already has a pending reschedule")
)

// Booking is one mentor session. Content is immutable once confirmed; only
// the status and reschedule fields move.
type Booking struct {
	id              uuid.UUID
	studentID       uuid.UUID
	mentorID        uuid.UUID
	offeringID      uuid.UUID
	slotID          *uuid.UUID
	startAt         time.Time
	endAt           time.Time
	durationMinutes int
	status          Status
	cancelReason    string
	disputeReason   string
	proposedStartAt *time.Time
	proposedBy      *RescheduleParty
	createdAt       time.Time
	updatedAt       time.Time
}

func NewBooking(
	studentID, mentorID, offeringID uuid.UUID,
	slotID *uuid.UUID,
	startAt time.Time,
	durationMinutes int,
	now time.Time,
) (*Booking, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}
	return &Booking{
		id:              uuid.New(),
		studentID:       studentID,
		mentorID:        mentorID,
		offeringID:      offeringID,
		slotID:          slotID,
		startAt:         startAt.UTC(),
		endAt:           startAt.UTC().Add(time.Duration(durationMinutes) * time.Minute),
		durationMinutes: durationMinutes,
		status:          StatusPendingPayment,
		createdAt:       now,
		updatedAt:       now,
	}, nil
}

func Reconstruct(
	id, studentID, mentorID, offeringID uuid.UUID,
	slotID *uuid.UUID,
	startAt, endAt time.Time,
	durationMinutes int,
	status Status,
	cancelReason, disputeReason string,
	proposedStartAt *time.Time,
	proposedBy *RescheduleParty,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		studentID:       studentID,
		mentorID:        mentorID,
		offeringID:      offeringID,
		slotID:          slotID,
		startAt:         startAt,
		endAt:           endAt,
		durationMinutes: durationMinutes,
		status:          status,
		cancelReason:    cancelReason,
		disputeReason:   disputeReason,
		proposedStartAt: proposedStartAt,
		proposedBy:      proposedBy,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// Confirm moves the booking out of PendingPayment after the order is paid.
func (b *Booking) Confirm(now time.Time) error {
	if b.status != StatusPendingPayment {
		return ErrNotPendingPayment
	}
	b.status = StatusConfirmed
	b.updatedAt = now
	return nil
}

// Complete closes a held session, driven by attendance detection or the hard
// session-end job.
func (b *Booking) Complete(now time.Time) error {
	if b.status != StatusConfirmed {
		return ErrNotConfirmed
	}
	b.status = StatusCompleted
	b.updatedAt = now
	return nil
}

func (b *Booking) MarkAsNoShow(now time.Time) error {
	if b.status != StatusConfirmed {
		return ErrNotConfirmed
	}
	b.status = StatusNoShow
	b.updatedAt = now
	return nil
}

// MarkAsExpired abandons a booking that was never paid for.
func (b *Booking) MarkAsExpired(now time.Time) error {
	if b.status != StatusPendingPayment {
		return ErrNotPendingPayment
	}
	b.status = StatusExpired
	b.updatedAt = now
	return nil
}

func (b *Booking) Cancel(reason string, now time.Time) error {
	switch b.status {
	case StatusConfirmed, StatusDisputed, StatusPendingPayment:
		b.status = StatusCancelled
		b.cancelReason = reason
		b.updatedAt = now
		return nil
	default:
		return ErrNotCancellable
	}
}

// Dispute is open to either party after the session concluded, and to the
// student while it is still upcoming.
func (b *Booking) Dispute(reason string, now time.Time) error {
	switch b.status {
	case StatusConfirmed, StatusCompleted, StatusNoShow:
		b.status = StatusDisputed
		b.disputeReason = reason
		b.updatedAt = now
		return nil
	default:
		return ErrNotDisputable
	}
}

// Reschedule moves the session immediately. Callers must have run the
// conflict check for the new window first.
func (b *Booking) Reschedule(newStart time.Time, now time.Time) error {
	if b.status != StatusConfirmed {
		return ErrNotConfirmed
	}
	b.startAt = newStart.UTC()
	b.endAt = b.startAt.Add(time.Duration(b.durationMinutes) * time.Minute)
	b.proposedStartAt = nil
	b.proposedBy = nil
	b.updatedAt = now
	return nil
}

// ProposeReschedule records a pending change that the other party must accept.
func (b *Booking) ProposeReschedule(newStart time.Time, by RescheduleParty, now time.Time) error {
	if b.status != StatusConfirmed {
		return ErrNotConfirmed
	}
	if b.proposedStartAt != nil {
		return ErrRescheduleInProgress
	}
	start := newStart.UTC()
	b.proposedStartAt = &start
	b.proposedBy = &by
	b.updatedAt = now
	return nil
}

// ApproveReschedule commits the pending change. The conflict check for the
// proposed window runs at approval time, same as a direct reschedule.
func (b *Booking) ApproveReschedule(now time.Time) error {
	if b.proposedStartAt == nil {
		return ErrNoPendingReschedule
	}
	return b.Reschedule(*b.proposedStartAt, now)
}

func (b *Booking) RejectReschedule(now time.Time) error {
	if b.proposedStartAt == nil {
		return ErrNoPendingReschedule
	}
	b.proposedStartAt = nil
	b.proposedBy = nil
	b.updatedAt = now
	return nil
}

func (b *Booking) ID() uuid.UUID               { return b.id }
func (b *Booking) StudentID() uuid.UUID        { return b.studentID }
func (b *Booking) MentorID() uuid.UUID         { return b.mentorID }
func (b *Booking) OfferingID() uuid.UUID       { return b.offeringID }
func (b *Booking) SlotID() *uuid.UUID          { return b.slotID }
func (b *Booking) StartAt() time.Time          { return b.startAt }
func (b *Booking) EndAt() time.Time            { return b.endAt }
func (b *Booking) DurationMinutes() int        { return b.durationMinutes }
func (b *Booking) Status() Status              { return b.status }
func (b *Booking) CancelReason() string        { return b.cancelReason }
func (b *Booking) DisputeReason() string       { return b.disputeReason }
func (b *Booking) ProposedStartAt() *time.Time { return b.proposedStartAt }
func (b *Booking) ProposedBy() *RescheduleParty {
	return b.proposedBy
}
func (b *Booking) CreatedAt() time.Time { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }
