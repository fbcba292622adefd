package schedule

import "time"

// Window is an occupied time range a candidate booking is checked against.
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share any instant.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// IsBookable decides whether a candidate interval can coexist with the given
// active bookings under the post-session buffer.
//
// The buffer is one-directional: a candidate must start at or after
// existing.End + buffer, but may end exactly at existing.Start with no gap.
// A session needs recovery time after it, not before.
func IsBookable(candStart, candEnd time.Time, existing []Window, buffer time.Duration) bool {
	if !candStart.Before(candEnd) {
		return false
	}
	for _, w := range existing {
		startsAfterBuffer := !candStart.Before(w.End.Add(buffer))
		endsBefore := !candEnd.After(w.Start)
		if !startsAfterBuffer && !endsBefore {
			return false
		}
	}
	return true
}

// EnumerateBookableWindows slides a cursor across an availability interval at
// the configured granularity and keeps every duration-length window that both
// fits (with its trailing buffer) inside the interval and passes IsBookable.
func EnumerateBookableWindows(
	slot Interval,
	duration, granularity time.Duration,
	existing []Window,
	buffer time.Duration,
) []Window {
	if duration <= 0 || granularity <= 0 {
		return nil
	}

	var out []Window
	for cursor := slot.Start; !cursor.Add(duration + buffer).After(slot.End); cursor = cursor.Add(granularity) {
		end := cursor.Add(duration)
		if IsBookable(cursor, end, existing, buffer) {
			out = append(out, Window{Start: cursor, End: end})
		}
	}
	return out
}
