package clock

import "time"

// Clock allows injecting time into services and the scheduler.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock that always returns the same instant.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// Locale carries the park's timezone. Calendar-day arithmetic always
// happens in this location.
type Locale struct {
	Location *time.Location
}

func NewLocale(loc *time.Location) Locale {
	if loc == nil {
		loc = time.UTC
	}
	return Locale{Location: loc}
}

// UTC is the zero-configuration locale.
var UTC = NewLocale(time.UTC)

func (l Locale) loc() *time.Location {
	if l.Location == nil {
		return time.UTC
	}
	return l.Location
}

// In converts t into the locale's timezone.
func (l Locale) In(t time.Time) time.Time {
	return t.In(l.loc())
}

// Midnight returns the start of t's calendar day in the locale.
func (l Locale) Midnight(t time.Time) time.Time {
	lt := l.In(t)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, l.loc())
}
