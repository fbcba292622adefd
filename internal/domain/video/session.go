package video

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionLive  SessionStatus = "live"
	SessionEnded SessionStatus = "ended"
)

// Session is the attendance record for one booking's video room. A booking
// may have no session at all if nobody ever connected.
type Session struct {
	ID              uuid.UUID
	BookingID       uuid.UUID
	RoomName        string
	Status          SessionStatus
	MentorJoinedAt  *time.Time
	StudentJoinedAt *time.Time
	MentorSeconds   int
	StudentSeconds  int
	EndedAt         *time.Time
	CreatedAt       time.Time
}

// Attendance classifies a session against the scheduled duration.
type Attendance int

const (
	// AttendanceNone means neither side ever joined.
	AttendanceNone Attendance = iota
	// AttendanceInsufficient means someone joined but both sides stayed under
	// the minimum fraction of the scheduled time.
	AttendanceInsufficient
	// AttendanceHeld means the session counts as having taken place.
	AttendanceHeld
)

// minAttendanceFraction is the share of the scheduled duration at least one
// side must have been present for the session to count.
const minAttendanceFraction = 0.25

// Classify applies the no-show policy. A nil session is treated as neither
// side joining: missing records must not block no-show detection.
func Classify(s *Session, scheduledMinutes int) Attendance {
	if s == nil || (s.MentorJoinedAt == nil && s.StudentJoinedAt == nil) {
		return AttendanceNone
	}

	threshold := float64(scheduledMinutes*60) * minAttendanceFraction
	if float64(s.MentorSeconds) < threshold && float64(s.StudentSeconds) < threshold {
		return AttendanceInsufficient
	}
	return AttendanceHeld
}
