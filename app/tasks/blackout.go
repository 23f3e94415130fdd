package tasks

import "time"

// Blackout is a weekly window during which polling is skipped.
type Blackout struct {
	Enabled     bool
	Weekday     time.Weekday
	Hour        int
	StartMinute int
	EndMinute   int
}

var DefaultBlackout = Blackout{
	Enabled:     true,
	Weekday:     time.Saturday,
	Hour:        18,
	StartMinute: 58,
	EndMinute:   59,
}

// Contains reports whether t falls in the window, in t's location.
// Both minute bounds are inclusive.
func (b Blackout) Contains(t time.Time) bool {
	if !b.Enabled {
		return false
	}
	return t.Weekday() == b.Weekday &&
		t.Hour() == b.Hour &&
		t.Minute() >= b.StartMinute &&
		t.Minute() <= b.EndMinute
}
