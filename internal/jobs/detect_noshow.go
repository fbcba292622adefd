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

	"github.com/google/uuid"
)

// DetectNoShowJob inspects confirmed bookings whose scheduled end plus grace
// has passed and settles them by attendance: held sessions complete, the rest
// become no-shows. Bookings without any session record are no-shows too.
type DetectNoShowJob struct {
	bookingFinder BookingFinder
	bookingRepo   commands.BookingRepository
	sessionRepo   SessionRepository
	publisher     shared.EventPublisher
	db            shared.DB
	clock         clock.Clock
	interval      time.Duration
	grace         time.Duration
}

func NewDetectNoShowJob(
	bookingFinder BookingFinder,
	bookingRepo commands.BookingRepository,
	sessionRepo SessionRepository,
	publisher shared.EventPublisher,
	db shared.DB,
	clock clock.Clock,
	interval, grace time.Duration,
) *DetectNoShowJob {
	return &DetectNoShowJob{
		bookingFinder: bookingFinder,
		bookingRepo:   bookingRepo,
		sessionRepo:   sessionRepo,
		publisher:     publisher,
		db:            db,
		clock:         clock,
		interval:      interval,
		grace:         grace,
	}
}

func (j *DetectNoShowJob) Name() string            { return "detect_no_show" }
func (j *DetectNoShowJob) Interval() time.Duration { return j.interval }

func (j *DetectNoShowJob) Run(ctx context.Context) error {
	now := j.clock.Now()
	cutoff := now.Add(-j.grace)

	due, err := j.bookingFinder.ListConfirmedEndedBefore(ctx, j.db, cutoff, expireBatchSize)
	if err != nil {
		return errs.Wrap(err, "listing ended confirmed bookings")
	}

	for _, b := range due {
		id := b.ID()
		topic, err := shared.WithDefaultRetry(ctx, j.db, func(tx db.DBTX) (string, error) {
			return j.settleOne(ctx, tx, id, now)
		})
		if err != nil {
			slog.Error("no-show detection failed", "booking_id", id, "error", err)
			continue
		}
		if topic != "" {
			j.publisher.Publish(ctx, shared.Event{
				Topic:   topic,
				Key:     id.String(),
				Payload: map[string]any{"booking_id": id},
			})
		}
	}
	return nil
}

// settleOne returns the event topic to publish, or empty when nothing
// changed.
func (j *DetectNoShowJob) settleOne(ctx context.Context, tx db.DBTX, bookingID uuid.UUID, now time.Time) (string, error) {
	b, err := j.bookingRepo.FindByID(ctx, tx, bookingID)
	if err != nil {
		return "", err
	}
	if b.Status() != booking.StatusConfirmed {
		return "", nil
	}

	s, err := j.sessionRepo.FindByBooking(ctx, tx, bookingID)
	if err != nil {
		return "", err
	}

	var topic string
	switch video.Classify(s, b.DurationMinutes()) {
	case video.AttendanceHeld:
		if err := b.Complete(now); err != nil {
			return "", err
		}
		topic = shared.TopicBookingCompleted
	default:
		if err := b.MarkAsNoShow(now); err != nil {
			return "", err
		}
		topic = shared.TopicBookingNoShow
	}

	if err := j.bookingRepo.Update(ctx, tx, b, booking.StatusConfirmed); err != nil {
		if infra.IsKind(err, infra.KindConflict) {
			return "", nil
		}
		return "", err
	}
	return topic, nil
}
