package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRuleWindowInverted   = errors.New("rule start must be before end")
	ErrInvalidWeekday       = errors.New("rule weekday must be between 0 and 6")
	ErrOverrideMissingTimes = errors.New("non-blocked override requires start and end")
	ErrOverrideInverted     = errors.New("override start must be before end")
	ErrInvalidGranularity   = errors.New("slot granularity must be positive")
	ErrInvalidHorizon       = errors.New("max booking days ahead must be positive")
)

// Rule is one recurring weekly availability block.
type Rule struct {
	ID        uuid.UUID
	Weekday   time.Weekday
	Active    bool
	Start     TimeOfDay
	End       TimeOfDay
	SlotIndex int
}

func (r Rule) Validate() error {
	if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
		return ErrInvalidWeekday
	}
	if r.Active && !r.Start.Before(r.End) {
		return ErrRuleWindowInverted
	}
	return nil
}

// Override replaces the weekly rules for one specific date: either the whole
// day is blocked, or a custom window applies.
type Override struct {
	ID      uuid.UUID
	Date    Date
	Blocked bool
	Start   *TimeOfDay
	End     *TimeOfDay
}

func (o Override) Validate() error {
	if o.Blocked {
		return nil
	}
	if o.Start == nil || o.End == nil {
		return ErrOverrideMissingTimes
	}
	if !o.Start.Before(*o.End) {
		return ErrOverrideInverted
	}
	return nil
}

// Template is a mentor's availability configuration: weekly rules,
// date overrides, and the scheduling parameters applied to generated slots.
type Template struct {
	ID                 uuid.UUID
	MentorID           uuid.UUID
	TimeZone           string
	MinNoticeHours     int
	MaxDaysAhead       int
	BufferMinutes      int
	GranularityMinutes int
	MaxBookingsPerDay  int
	Rules              []Rule
	Overrides          []Override
	UpdatedAt          time.Time
}

func (t Template) Validate() error {
	if t.MaxDaysAhead <= 0 {
		return ErrInvalidHorizon
	}
	if t.GranularityMinutes <= 0 {
		return ErrInvalidGranularity
	}
	for _, r := range t.Rules {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	for _, o := range t.Overrides {
		if err := o.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (t Template) Buffer() time.Duration {
	return time.Duration(t.BufferMinutes) * time.Minute
}

func (t Template) Granularity() time.Duration {
	return time.Duration(t.GranularityMinutes) * time.Minute
}

func (t Template) MinNotice() time.Duration {
	return time.Duration(t.MinNoticeHours) * time.Hour
}

// overrideFor returns the override for a date, if any.
func (t Template) overrideFor(d Date) (Override, bool) {
	for _, o := range t.Overrides {
		if o.Date == d {
			return o, true
		}
	}
	return Override{}, false
}

// activeRulesFor returns the active rules for a weekday, ordered by start time
// then slot index.
func (t Template) activeRulesFor(day time.Weekday) []Rule {
	var rules []Rule
	for _, r := range t.Rules {
		if r.Active && r.Weekday == day {
			rules = append(rules, r)
		}
	}
	for i := 1; i < len(rules); i++ {
		for j := i; j > 0; j-- {
			prev, cur := rules[j-1], rules[j]
			if cur.Start.Before(prev.Start) || (cur.Start == prev.Start && cur.SlotIndex < prev.SlotIndex) {
				rules[j-1], rules[j] = cur, prev
			}
		}
	}
	return rules
}

// Slot is a concrete bookable interval generated from a template.
type Slot struct {
	ID         uuid.UUID
	MentorID   uuid.UUID
	TemplateID *uuid.UUID
	StartAt    time.Time
	EndAt      time.Time
	Booked     bool
}
