//go:build unit

package schedule_test

import (
	"testing"
	"time"

	"mentorbook/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mondayTemplate(tb testing.TB) schedule.Template {
	tb.Helper()
	return schedule.Template{
		ID:                 uuid.New(),
		MentorID:           uuid.New(),
		TimeZone:           "Europe/Istanbul",
		MaxDaysAhead:       7,
		BufferMinutes:      15,
		GranularityMinutes: 30,
		Rules: []schedule.Rule{
			{
				Weekday: time.Monday,
				Active:  true,
				Start:   schedule.MustTimeOfDay(9, 0),
				End:     schedule.MustTimeOfDay(12, 0),
			},
		},
	}
}

// istanbulDay returns the UTC instant for a local Istanbul wall-clock time on
// 2026-03-02 (a Monday) plus dayOffset days.
func istanbulAt(tb testing.TB, dayOffset, hour, minute int) time.Time {
	tb.Helper()
	ist, err := time.LoadLocation("Europe/Istanbul")
	require.NoError(tb, err)
	return time.Date(2026, 3, 2+dayOffset, hour, minute, 0, 0, ist).UTC()
}

func TestExpand_WeeklyRule(t *testing.T) {
	tpl := mondayTemplate(t)
	now := istanbulAt(t, 0, 0, 0) // Monday midnight local

	intervals := schedule.Expand(tpl, now, nil)

	// horizon of 7 days covers two Mondays
	require.Len(t, intervals, 2)
	assert.Equal(t, istanbulAt(t, 0, 9, 0), intervals[0].Start)
	assert.Equal(t, istanbulAt(t, 0, 12, 0), intervals[0].End)
	assert.Equal(t, istanbulAt(t, 7, 9, 0), intervals[1].Start)
	assert.Equal(t, istanbulAt(t, 7, 12, 0), intervals[1].End)
}

func TestExpand_InactiveRuleSkipped(t *testing.T) {
	tpl := mondayTemplate(t)
	tpl.Rules[0].Active = false

	intervals := schedule.Expand(tpl, istanbulAt(t, 0, 0, 0), nil)
	assert.Empty(t, intervals)
}

func TestExpand_BlockedOverrideSkipsDay(t *testing.T) {
	tpl := mondayTemplate(t)
	tpl.Overrides = []schedule.Override{
		{Date: schedule.Date{Year: 2026, Month: time.March, Day: 2}, Blocked: true},
	}

	intervals := schedule.Expand(tpl, istanbulAt(t, 0, 0, 0), nil)

	require.Len(t, intervals, 1)
	assert.Equal(t, istanbulAt(t, 7, 9, 0), intervals[0].Start)
}

func TestExpand_CustomOverrideReplacesRules(t *testing.T) {
	tpl := mondayTemplate(t)
	start := schedule.MustTimeOfDay(14, 0)
	end := schedule.MustTimeOfDay(16, 0)
	tpl.Overrides = []schedule.Override{
		{
			Date:  schedule.Date{Year: 2026, Month: time.March, Day: 2},
			Start: &start,
			End:   &end,
		},
	}

	intervals := schedule.Expand(tpl, istanbulAt(t, 0, 0, 0), nil)

	require.Len(t, intervals, 2)
	assert.Equal(t, istanbulAt(t, 0, 14, 0), intervals[0].Start)
	assert.Equal(t, istanbulAt(t, 0, 16, 0), intervals[0].End)
	assert.Equal(t, istanbulAt(t, 7, 9, 0), intervals[1].Start)
}

func TestExpand_PastWindowsDropped(t *testing.T) {
	tpl := mondayTemplate(t)
	now := istanbulAt(t, 0, 13, 0) // after Monday's window ended

	intervals := schedule.Expand(tpl, now, nil)

	require.Len(t, intervals, 1)
	assert.Equal(t, istanbulAt(t, 7, 9, 0), intervals[0].Start)
}

func TestExpand_WindowUnderwayClampedToNow(t *testing.T) {
	tpl := mondayTemplate(t)
	now := istanbulAt(t, 0, 10, 30) // mid-window

	intervals := schedule.Expand(tpl, now, nil)

	require.Len(t, intervals, 2)
	assert.Equal(t, now, intervals[0].Start)
	assert.Equal(t, istanbulAt(t, 0, 12, 0), intervals[0].End)
}

func TestExpand_BookedSlotsExcluded(t *testing.T) {
	tpl := mondayTemplate(t)
	booked := []schedule.Slot{
		{
			MentorID: tpl.MentorID,
			StartAt:  istanbulAt(t, 0, 9, 0),
			EndAt:    istanbulAt(t, 0, 10, 0),
			Booked:   true,
		},
	}

	intervals := schedule.Expand(tpl, istanbulAt(t, 0, 0, 0), booked)

	// the whole overlapping window is withheld; the booked slot itself is
	// preserved by the persistence layer, not re-emitted here
	require.Len(t, intervals, 1)
	assert.Equal(t, istanbulAt(t, 7, 9, 0), intervals[0].Start)
}

func TestExpand_Deterministic(t *testing.T) {
	tpl := mondayTemplate(t)
	tpl.Rules = append(tpl.Rules, schedule.Rule{
		Weekday:   time.Monday,
		Active:    true,
		Start:     schedule.MustTimeOfDay(14, 0),
		End:       schedule.MustTimeOfDay(17, 0),
		SlotIndex: 1,
	})
	now := istanbulAt(t, 0, 0, 0)

	first := schedule.Expand(tpl, now, nil)
	second := schedule.Expand(tpl, now, nil)

	assert.Equal(t, first, second)
	for i := 1; i < len(first); i++ {
		assert.True(t, first[i-1].Start.Before(first[i].Start), "intervals must be ordered")
	}
}

func TestResolveLocation_FallbackChain(t *testing.T) {
	t.Run("IANA id", func(t *testing.T) {
		loc := schedule.ResolveLocation("Europe/Istanbul")
		assert.Equal(t, "Europe/Istanbul", loc.String())
	})

	t.Run("Windows alias", func(t *testing.T) {
		loc := schedule.ResolveLocation("Turkey Standard Time")
		assert.Equal(t, "Europe/Istanbul", loc.String())
	})

	t.Run("unknown id falls back to fixed UTC+3", func(t *testing.T) {
		loc := schedule.ResolveLocation("Neverland/Nowhere")
		_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).In(loc).Zone()
		assert.Equal(t, 3*60*60, offset)
	})

	t.Run("empty id falls back to fixed UTC+3", func(t *testing.T) {
		loc := schedule.ResolveLocation("")
		_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).In(loc).Zone()
		assert.Equal(t, 3*60*60, offset)
	})
}

func TestTemplateValidate(t *testing.T) {
	start := schedule.MustTimeOfDay(10, 0)
	testCases := []struct {
		name   string
		mutate func(*schedule.Template)
		errIs  error
	}{
		{
			name:   "valid template",
			mutate: func(*schedule.Template) {},
		},
		{
			name: "active rule with inverted window",
			mutate: func(tpl *schedule.Template) {
				tpl.Rules[0].Start = schedule.MustTimeOfDay(12, 0)
				tpl.Rules[0].End = schedule.MustTimeOfDay(9, 0)
			},
			errIs: schedule.ErrRuleWindowInverted,
		},
		{
			name: "inactive rule with inverted window passes",
			mutate: func(tpl *schedule.Template) {
				tpl.Rules[0].Active = false
				tpl.Rules[0].Start = schedule.MustTimeOfDay(12, 0)
				tpl.Rules[0].End = schedule.MustTimeOfDay(9, 0)
			},
		},
		{
			name: "non-blocked override missing end",
			mutate: func(tpl *schedule.Template) {
				tpl.Overrides = []schedule.Override{
					{Date: schedule.Date{Year: 2026, Month: time.March, Day: 2}, Start: &start},
				}
			},
			errIs: schedule.ErrOverrideMissingTimes,
		},
		{
			name: "zero granularity",
			mutate: func(tpl *schedule.Template) {
				tpl.GranularityMinutes = 0
			},
			errIs: schedule.ErrInvalidGranularity,
		},
		{
			name: "zero horizon",
			mutate: func(tpl *schedule.Template) {
				tpl.MaxDaysAhead = 0
			},
			errIs: schedule.ErrInvalidHorizon,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tpl := mondayTemplate(t)
			tc.mutate(&tpl)
			err := tpl.Validate()
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
