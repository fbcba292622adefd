package queries

import (
	"context"
	"time"

	"mentorbook/internal/domain/schedule"
	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrMentorNotBookable = errs.New("mentor has no availability template")
	ErrUnknownOffering   = errs.New("offering not found")
)

// AvailabilityViewRepo reads the slot inventory and the bookings standing
// against it.
type AvailabilityViewRepo interface {
	TemplateByMentor(ctx context.Context, mentorID uuid.UUID) (*schedule.Template, error)
	UnbookedSlotsBetween(ctx context.Context, mentorID uuid.UUID, from, to time.Time) ([]schedule.Slot, error)
	ActiveBookingWindows(ctx context.Context, mentorID uuid.UUID, from, to time.Time) ([]schedule.Window, error)
	OfferingDurationMinutes(ctx context.Context, offeringID uuid.UUID) (int, uuid.UUID, error)
}

type AvailabilityQueries interface {
	// ListBookableWindows returns every start a student can book for the
	// offering between from and to, already filtered for notice, buffers and
	// existing sessions.
	ListBookableWindows(ctx context.Context, offeringID uuid.UUID, from, to time.Time) ([]BookableWindowView, error)
}

type availabilityQueriesImpl struct {
	repo  AvailabilityViewRepo
	clock clock.Clock
}

func NewAvailabilityQueries(repo AvailabilityViewRepo, clock clock.Clock) AvailabilityQueries {
	return &availabilityQueriesImpl{repo: repo, clock: clock}
}

func (q *availabilityQueriesImpl) ListBookableWindows(ctx context.Context, offeringID uuid.UUID, from, to time.Time) ([]BookableWindowView, error) {
	now := q.clock.Now()

	durationMin, mentorID, err := q.repo.OfferingDurationMinutes(ctx, offeringID)
	if err != nil {
		return nil, ErrUnknownOffering
	}
	tpl, err := q.repo.TemplateByMentor(ctx, mentorID)
	if err != nil {
		return nil, ErrMentorNotBookable
	}

	// The caller's range is advisory; the template's notice and horizon
	// always win.
	earliest := now.Add(tpl.MinNotice())
	if from.Before(earliest) {
		from = earliest
	}
	horizon := now.AddDate(0, 0, tpl.MaxDaysAhead)
	if to.After(horizon) || to.IsZero() {
		to = horizon
	}
	if !from.Before(to) {
		return []BookableWindowView{}, nil
	}

	slots, err := q.repo.UnbookedSlotsBetween(ctx, mentorID, from, to)
	if err != nil {
		return nil, err
	}
	existing, err := q.repo.ActiveBookingWindows(ctx, mentorID, from.Add(-24*time.Hour), to.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMin) * time.Minute
	views := make([]BookableWindowView, 0, len(slots)*4)
	for _, s := range slots {
		windows := schedule.EnumerateBookableWindows(
			schedule.Interval{Start: s.StartAt, End: s.EndAt},
			duration, tpl.Granularity(), existing, tpl.Buffer(),
		)
		for _, w := range windows {
			if w.Start.Before(from) || w.End.After(to) {
				continue
			}
			views = append(views, BookableWindowView{StartAt: w.Start, EndAt: w.End})
		}
	}
	return views, nil
}
