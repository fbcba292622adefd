package booking

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusConfirmed      Status = "confirmed"
	StatusCompleted      Status = "completed"
	StatusNoShow         Status = "no_show"
	StatusDisputed       Status = "disputed"
	StatusCancelled      Status = "cancelled"
	StatusExpired        Status = "expired"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusConfirmed, StatusCompleted,
		StatusNoShow, StatusDisputed, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// IsActive reports whether the booking still occupies its time slot for
// conflict purposes.
func (s Status) IsActive() bool {
	return s == StatusPendingPayment || s == StatusConfirmed
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusExpired, StatusDisputed:
		return true
	default:
		return false
	}
}

// RescheduleParty identifies who proposed a pending reschedule.
type RescheduleParty string

const (
	RescheduleByStudent RescheduleParty = "student"
	RescheduleByMentor  RescheduleParty = "mentor"
)
