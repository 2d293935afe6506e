// Package interval holds the date arithmetic behind zone bookings: overlap
// tests, calendar-day enumeration and the billed stay duration.
package interval

import (
	"errors"
	"sort"
	"time"

	"github.com/Domenick1991/paintballpark/internal/clock"
)

var ErrInvalidInterval = errors.New("check-out must be after check-in")

// Interval is a closed [Start, End] occupancy window.
type Interval struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (Interval, error) {
	i := Interval{Start: start, End: end}
	if err := i.Validate(); err != nil {
		return Interval{}, err
	}
	return i, nil
}

func (i Interval) Validate() error {
	if !i.Start.Before(i.End) {
		return ErrInvalidInterval
	}
	return nil
}

// Overlaps is inclusive on both ends: a check-out equal to another
// booking's check-in is a conflict.
func Overlaps(a, b Interval) bool {
	return !a.Start.After(b.End) && !b.Start.After(a.End)
}

// Covers reports whether t lies within i, bounds included.
func (i Interval) Covers(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

// DaysBetween returns the inclusive number of calendar days from a to b.
func DaysBetween(a, b time.Time, loc clock.Locale) int {
	if b.Before(a) {
		a, b = b, a
	}
	return dayIndex(loc.Midnight(b)) - dayIndex(loc.Midnight(a)) + 1
}

// Days enumerates the calendar days (as local midnights) touched by i.
func Days(i Interval, loc clock.Locale) []time.Time {
	first := loc.Midnight(i.Start)
	n := DaysBetween(i.Start, i.End, loc)
	days := make([]time.Time, 0, n)
	for d := 0; d < n; d++ {
		days = append(days, first.AddDate(0, 0, d))
	}
	return days
}

// OverlapDates is the intersection of the calendar days of a and b, sorted.
func OverlapDates(a, b Interval, loc clock.Locale) []time.Time {
	inA := make(map[int]time.Time)
	for _, d := range Days(a, loc) {
		inA[dayIndex(d)] = d
	}
	out := make([]time.Time, 0)
	for _, d := range Days(b, loc) {
		if _, ok := inA[dayIndex(d)]; ok {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// dayIndex maps a local midnight to a day ordinal that ignores DST shifts.
func dayIndex(midnight time.Time) int {
	y, m, d := midnight.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
