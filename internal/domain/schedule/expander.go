package schedule

import (
	"sort"
	"time"
)

// Expand turns a template's weekly rules and date overrides into the set of
// bookable intervals from now until the template's horizon.
//
// Already-booked slots are inputs only: expansion never emits an interval that
// overlaps one, and callers replace unbooked slots while leaving booked rows
// untouched. The result is deterministic for a given template and booked set.
func Expand(t Template, now time.Time, bookedSlots []Slot) []Interval {
	loc := ResolveLocation(t.TimeZone)
	today := DateOf(now.In(loc))

	var out []Interval
	for day := 0; day <= t.MaxDaysAhead; day++ {
		date := today.AddDays(day)

		if ov, ok := t.overrideFor(date); ok {
			if ov.Blocked {
				continue
			}
			emit(&out, ov.Start.At(date, loc), ov.End.At(date, loc), now, bookedSlots)
			continue
		}

		for _, rule := range t.activeRulesFor(date.Weekday()) {
			emit(&out, rule.Start.At(date, loc), rule.End.At(date, loc), now, bookedSlots)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

func emit(out *[]Interval, start, end time.Time, now time.Time, booked []Slot) {
	if !end.After(now) {
		return
	}
	// A window already underway is still usable from this moment on.
	if start.Before(now) {
		start = now
	}
	if !start.Before(end) {
		return
	}
	for _, s := range booked {
		if s.StartAt.Before(end) && s.EndAt.After(start) {
			return
		}
	}
	*out = append(*out, Interval{Start: start, End: end})
}
