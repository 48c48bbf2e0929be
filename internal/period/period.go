// Package period maps a report frequency and an instant onto a calendar period.
//
// All arithmetic is done in UTC. Period ids are stable for the whole period and
// change exactly at its boundary, which is what makes re-runs within the same
// period idempotent.
package period

import (
	"fmt"
	"time"

	"ChairReports/internal/domain"
)

// Compute returns the calendar-aligned period containing ref.
// ok is false for FrequencyNone.
func Compute(freq domain.Frequency, ref time.Time) (domain.Period, bool) {
	ref = ref.UTC()
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)

	switch freq {
	case domain.FrequencyNone:
		return domain.Period{}, false
	case domain.FrequencyDaily:
		return domain.Period{
			ID:        day.Format("2006-01-02"),
			Frequency: freq,
			Window:    domain.Window{Start: day, End: day.AddDate(0, 0, 1)},
		}, true
	case domain.FrequencyWeekly:
		year, week := ref.ISOWeek()
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return domain.Period{
			ID:        fmt.Sprintf("%04d-W%02d", year, week),
			Frequency: freq,
			Window:    domain.Window{Start: start, End: start.AddDate(0, 0, 7)},
		}, true
	case domain.FrequencyBiweekly:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		mid := first.AddDate(0, 0, 15)
		half, w := 1, domain.Window{Start: first, End: mid}
		if ref.Day() > 15 {
			half, w = 2, domain.Window{Start: mid, End: first.AddDate(0, 1, 0)}
		}
		return domain.Period{
			ID:        fmt.Sprintf("%s-%d", first.Format("2006-01"), half),
			Frequency: freq,
			Window:    w,
		}, true
	default:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return domain.Period{
			ID:        first.Format("2006-01"),
			Frequency: domain.FrequencyMonthly,
			Window:    domain.Window{Start: first, End: first.AddDate(0, 1, 0)},
		}, true
	}
}

// ComputeSince behaves like Compute but starts the window at priorEnd when it
// falls before the calendar end. The id stays calendar-aligned; only the
// window moves. Used by the period debugger, never by the scheduler.
func ComputeSince(freq domain.Frequency, ref, priorEnd time.Time) (domain.Period, bool) {
	p, ok := Compute(freq, ref)
	if !ok || priorEnd.IsZero() {
		return p, ok
	}
	priorEnd = priorEnd.UTC()
	if priorEnd.Before(p.Window.End) {
		p.Window.Start = priorEnd
	}
	return p, true
}

// ID is a shortcut returning only the period id, or "" for FrequencyNone.
func ID(freq domain.Frequency, ref time.Time) string {
	p, ok := Compute(freq, ref)
	if !ok {
		return ""
	}
	return p.ID
}
