//go:build unit

package queries_test

import (
	"context"
	"testing"
	"time"

	"mentorbook/internal/domain/schedule"
	"mentorbook/internal/pkg/clock"
	"mentorbook/internal/pkg/errs"
	"mentorbook/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 4, 6, 12, 0, 0, 0, time.UTC)

type offeringRow struct {
	durationMinutes int
	mentorID        uuid.UUID
}

type availabilityViewStub struct {
	template  *schedule.Template
	slots     []schedule.Slot
	windows   []schedule.Window
	offerings map[uuid.UUID]offeringRow
}

func (s *availabilityViewStub) TemplateByMentor(_ context.Context, mentorID uuid.UUID) (*schedule.Template, error) {
	if s.template == nil || s.template.MentorID != mentorID {
		return nil, errs.New("no rows")
	}
	return s.template, nil
}

func (s *availabilityViewStub) UnbookedSlotsBetween(_ context.Context, mentorID uuid.UUID, from, to time.Time) ([]schedule.Slot, error) {
	var out []schedule.Slot
	for _, sl := range s.slots {
		if sl.MentorID == mentorID && sl.StartAt.Before(to) && sl.EndAt.After(from) {
			out = append(out, sl)
		}
	}
	return out, nil
}

func (s *availabilityViewStub) ActiveBookingWindows(context.Context, uuid.UUID, time.Time, time.Time) ([]schedule.Window, error) {
	return s.windows, nil
}

func (s *availabilityViewStub) OfferingDurationMinutes(_ context.Context, offeringID uuid.UUID) (int, uuid.UUID, error) {
	row, ok := s.offerings[offeringID]
	if !ok {
		return 0, uuid.Nil, errs.New("no rows")
	}
	return row.durationMinutes, row.mentorID, nil
}

type availabilityFixture struct {
	stub       *availabilityViewStub
	queries    queries.AvailabilityQueries
	mentorID   uuid.UUID
	offeringID uuid.UUID
}

func newAvailabilityFixture(t *testing.T) *availabilityFixture {
	t.Helper()
	mentorID := uuid.New()
	offeringID := uuid.New()
	stub := &availabilityViewStub{
		template: &schedule.Template{
			ID:                 uuid.New(),
			MentorID:           mentorID,
			TimeZone:           "UTC",
			MinNoticeHours:     24,
			MaxDaysAhead:       30,
			BufferMinutes:      15,
			GranularityMinutes: 30,
			MaxBookingsPerDay:  2,
		},
		offerings: map[uuid.UUID]offeringRow{
			offeringID: {durationMinutes: 60, mentorID: mentorID},
		},
	}
	return &availabilityFixture{
		stub:       stub,
		queries:    queries.NewAvailabilityQueries(stub, clock.NewMockClock(now)),
		mentorID:   mentorID,
		offeringID: offeringID,
	}
}

func (f *availabilityFixture) addSlot(start, end time.Time) {
	f.stub.slots = append(f.stub.slots, schedule.Slot{
		ID:       uuid.New(),
		MentorID: f.mentorID,
		StartAt:  start,
		EndAt:    end,
	})
}

func TestListBookableWindows_EnumeratesSlot(t *testing.T) {
	f := newAvailabilityFixture(t)
	slotStart := now.Add(48 * time.Hour)
	f.addSlot(slotStart, slotStart.Add(2*time.Hour))

	views, err := f.queries.ListBookableWindows(context.Background(), f.offeringID, now, now.Add(7*24*time.Hour))
	require.NoError(t, err)

	// 60-minute sessions on a 30-minute grid; the trailing 15-minute buffer
	// must also fit, so the last half-hour of the slot yields nothing
	require.Len(t, views, 2)
	assert.Equal(t, slotStart, views[0].StartAt)
	assert.Equal(t, slotStart.Add(time.Hour), views[0].EndAt)
	assert.Equal(t, slotStart.Add(30*time.Minute), views[1].StartAt)
}

func TestListBookableWindows_ClampsToMinNotice(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addSlot(now.Add(12*time.Hour), now.Add(26*time.Hour))

	views, err := f.queries.ListBookableWindows(context.Background(), f.offeringID, now, now.Add(7*24*time.Hour))
	require.NoError(t, err)

	earliest := now.Add(24 * time.Hour)
	require.NotEmpty(t, views)
	for _, v := range views {
		assert.False(t, v.StartAt.Before(earliest), "window %s starts inside the notice period", v.StartAt)
	}
	assert.Len(t, views, 2)
}

func TestListBookableWindows_ClampsToHorizon(t *testing.T) {
	f := newAvailabilityFixture(t)
	beyond := now.AddDate(0, 0, 31)
	f.addSlot(beyond, beyond.Add(2*time.Hour))

	views, err := f.queries.ListBookableWindows(context.Background(), f.offeringID, now, now.AddDate(0, 0, 60))
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestListBookableWindows_SkipsBufferedConflicts(t *testing.T) {
	f := newAvailabilityFixture(t)
	slotStart := now.Add(48 * time.Hour)
	f.addSlot(slotStart, slotStart.Add(3*time.Hour))
	f.stub.windows = []schedule.Window{
		{Start: slotStart.Add(time.Hour), End: slotStart.Add(2 * time.Hour)},
	}

	views, err := f.queries.ListBookableWindows(context.Background(), f.offeringID, now, now.Add(7*24*time.Hour))
	require.NoError(t, err)

	// only the window ending exactly at the existing session survives; every
	// later start falls inside the 15-minute buffer
	require.Len(t, views, 1)
	assert.Equal(t, slotStart, views[0].StartAt)
}

func TestListBookableWindows_EmptyRange(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.addSlot(now.Add(48*time.Hour), now.Add(50*time.Hour))

	views, err := f.queries.ListBookableWindows(context.Background(), f.offeringID, now.Add(72*time.Hour), now.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestListBookableWindows_UnknownOffering(t *testing.T) {
	f := newAvailabilityFixture(t)

	_, err := f.queries.ListBookableWindows(context.Background(), uuid.New(), now, now.Add(48*time.Hour))
	assert.ErrorIs(t, err, queries.ErrUnknownOffering)
}

func TestListBookableWindows_MentorWithoutTemplate(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.stub.template = nil

	_, err := f.queries.ListBookableWindows(context.Background(), f.offeringID, now, now.Add(48*time.Hour))
	assert.ErrorIs(t, err, queries.ErrMentorNotBookable)
}
