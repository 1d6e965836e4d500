// Package recurrence computes the next valid trigger time of a reminder from
// its anchor and repeat rule. The calculator is pure: "now" is always passed
// in explicitly.
package recurrence

import (
	"fmt"
	"time"

	"github.com/recallhq/recall/pkg/knowledge"
)

// Next returns the first occurrence of the series strictly after now.
//
// For one-shot reminders (RecurrenceNone) the anchor itself is returned when
// it is still in the future; a past anchor is a knowledge.ValidationError
// because a non-recurring reminder cannot resolve to a past trigger.
//
// For recurring reminders the anchor is advanced by interval units until the
// result is after now. Daily and weekly steps are exact multiples of 24h and
// 7×24h. Monthly and yearly steps preserve the anchor's day-of-month and
// clamp it to the last day of shorter target months (Jan 31 → Feb 28/29 →
// Mar 31); each step is computed from the original anchor, not the previous
// clamped result, so the day never drifts.
//
// An unrecognized type is a knowledge.ConfigurationError.
func Next(anchor time.Time, typ knowledge.RecurrenceType, interval int, now time.Time) (time.Time, error) {
	if interval < 1 {
		return time.Time{}, knowledge.ValidationError{
			Reason: fmt.Sprintf("recurrence interval must be >= 1, got %d", interval),
		}
	}

	switch typ {
	case knowledge.RecurrenceNone:
		if anchor.After(now) {
			return anchor, nil
		}
		return time.Time{}, knowledge.ValidationError{
			Reason: "non-recurring reminder cannot be scheduled in the past",
		}

	case knowledge.RecurrenceDaily:
		return nextByDays(anchor, interval, now), nil

	case knowledge.RecurrenceWeekly:
		return nextByDays(anchor, 7*interval, now), nil

	case knowledge.RecurrenceMonthly:
		return nextByMonths(anchor, interval, now), nil

	case knowledge.RecurrenceYearly:
		return nextByMonths(anchor, 12*interval, now), nil
	}

	return time.Time{}, knowledge.ConfigurationError{
		Reason: fmt.Sprintf("unsupported recurrence type %q", typ),
	}
}

// nextByDays advances anchor in exact multiples of step days until the result
// is after now.
func nextByDays(anchor time.Time, step int, now time.Time) time.Time {
	next := anchor
	for !next.After(now) {
		next = next.AddDate(0, 0, step)
	}
	return next
}

// nextByMonths advances anchor in multiples of step months until the result is
// after now. Each candidate is derived from the original anchor so clamping in
// a short month never shifts later occurrences.
func nextByMonths(anchor time.Time, step int, now time.Time) time.Time {
	next := anchor
	for n := 1; !next.After(now); n++ {
		next = addMonthsClamped(anchor, n*step)
	}
	return next
}

// addMonthsClamped adds months to t, clamping the day-of-month to the last
// day of the target month instead of letting time.AddDate overflow into the
// following month.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()

	target := time.Date(year, month+time.Month(months), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

	if last := daysIn(target.Year(), target.Month()); day > last {
		day = last
	}

	return time.Date(target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
