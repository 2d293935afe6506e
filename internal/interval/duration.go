package interval

import (
	"time"

	"github.com/Domenick1991/paintballpark/internal/clock"
)

// GraceRule is the late check-out forgiveness window. With Minutes == 0
// any time past midnight of the check-out day is billed as a day.
type GraceRule struct {
	Minutes int
	// Strict switches the threshold comparison from >= to >.
	Strict bool
}

func (g GraceRule) chargesExtraDay(leftover time.Duration) bool {
	if leftover <= 0 {
		return false
	}
	if g.Minutes <= 0 {
		return true
	}
	grace := time.Duration(g.Minutes) * time.Minute
	if g.Strict {
		return leftover > grace
	}
	return leftover >= grace
}

// ComputeDuration returns the number of billed days between checkin and
// checkout. Whole days are calendar-day differences in loc; the time of
// day past the check-out day's midnight adds one more day unless the
// grace rule forgives it. Any valid pair bills at least one day.
func ComputeDuration(checkin, checkout time.Time, rule GraceRule, loc clock.Locale) int {
	wholeDays := DaysBetween(checkin, checkout, loc) - 1
	if checkout.Before(checkin) {
		wholeDays = 0
	}

	leftover := loc.In(checkout).Sub(loc.Midnight(checkout))
	duration := wholeDays
	if rule.chargesExtraDay(leftover) {
		duration++
	}
	if duration < 1 {
		return 1
	}
	return duration
}
