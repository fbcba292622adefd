package jobs

import (
	"context"
	"log/slog"
	"time"

	"mentorbook/internal/domain/booking"
	"mentorbook/internal/domain/video"
	"mentorbook/internal/infra"
	"mentorbook/internal/infra/db"
	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/pkg/errs"
	"mentorbook/internal/usecase/commands"
	"mentorbook/internal/usecase/shared"
)

// EnforceSessionEndJob force-closes video rooms that outlived their booking's
// scheduled end plus grace, then completes the booking when the session
// counted as held. The bypass flag turns enforcement off for local
// development, where sessions are left running on purpose.
type EnforceSessionEndJob struct {
	sessionRepo SessionRepository
	bookingRepo commands.BookingRepository
	rooms       shared.VideoProvider
	publisher   shared.EventPublisher
	db          shared.DB
	clock       clock.Clock
	interval    time.Duration
	grace       time.Duration
	bypass      bool
}

func NewEnforceSessionEndJob(
	sessionRepo SessionRepository,
	bookingRepo commands.BookingRepository,
	rooms shared.VideoProvider,
	publisher shared.EventPublisher,
	db shared.DB,
	clock clock.Clock,
	interval, grace time.Duration,
	bypass bool,
) *EnforceSessionEndJob {
	return &EnforceSessionEndJob{
		sessionRepo: sessionRepo,
		bookingRepo: bookingRepo,
		rooms:       rooms,
		publisher:   publisher,
		db:          db,
		clock:       clock,
		interval:    interval,
		grace:       grace,
		bypass:      bypass,
	}
}

func (j *EnforceSessionEndJob) Name() string            { return "enforce_session_end" }
func (j *EnforceSessionEndJob) Interval() time.Duration { return j.interval }

func (j *EnforceSessionEndJob) Run(ctx context.Context) error {
	if j.bypass {
		return nil
	}
	now := j.clock.Now()
	cutoff := now.Add(-j.grace)

	overdue, err := j.sessionRepo.ListLivePastBookingEnd(ctx, j.db, cutoff, expireBatchSize)
	if err != nil {
		return errs.Wrap(err, "listing overdue live sessions")
	}

	for _, s := range overdue {
		// the provider call stays outside the tx; CompleteRoom is idempotent
		// so a crash between the call and the write heals on the next sweep
		if err := j.rooms.CompleteRoom(ctx, s.RoomName); err != nil {
			slog.Warn("room completion failed", "room", s.RoomName, "error", err)
			continue
		}

		sessionID, bookingID := s.ID, s.BookingID
		completed, err := shared.WithDefaultRetry(ctx, j.db, func(tx db.DBTX) (bool, error) {
			if err := j.sessionRepo.MarkEnded(ctx, tx, sessionID, now); err != nil {
				return false, err
			}

			b, err := j.bookingRepo.FindByID(ctx, tx, bookingID)
			if err != nil {
				if infra.IsKind(err, infra.KindNotFound) {
					return false, nil
				}
				return false, err
			}
			if b.Status() != booking.StatusConfirmed {
				return false, nil
			}

			s2, err := j.sessionRepo.FindByBooking(ctx, tx, bookingID)
			if err != nil {
				return false, err
			}
			if video.Classify(s2, b.DurationMinutes()) != video.AttendanceHeld {
				// insufficient attendance is the no-show job's call
				return false, nil
			}

			if err := b.Complete(now); err != nil {
				return false, err
			}
			if err := j.bookingRepo.Update(ctx, tx, b, booking.StatusConfirmed); err != nil {
				if infra.IsKind(err, infra.KindConflict) {
					return false, nil
				}
				return false, err
			}
			return true, nil
		})
		if err != nil {
			slog.Error("session end enforcement failed", "session_id", sessionID, "error", err)
			continue
		}
		if completed {
			j.publisher.Publish(ctx, shared.Event{
				Topic:   shared.TopicBookingCompleted,
				Key:     bookingID.String(),
				Payload: map[string]any{"booking_id": bookingID},
			})
		}
	}
	return nil
}
