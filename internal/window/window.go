// Package window derives the rolling analysis interval from a configured
// month count.
package window

import (
	"fmt"
	"time"
)

// Month bounds for the rolling window. Out-of-range values clamp rather
// than error so a misconfigured deployment still produces a usable window.
const (
	MinMonths = 1
	MaxMonths = 12

	// DaysPerMonth is the fixed month length used for window arithmetic.
	DaysPerMonth = 30
)

// Window is the date range over which complaints are analyzed.
// Immutable once computed for a run.
type Window struct {
	Start time.Time
	End   time.Time
}

// ClampMonths constrains a month count to [MinMonths, MaxMonths].
func ClampMonths(months int) int {
	if months < MinMonths {
		return MinMonths
	}
	if months > MaxMonths {
		return MaxMonths
	}
	return months
}

// Compute builds the rolling window ending at now. The now function exists
// so tests and reproducible historical runs can pin the clock.
func Compute(months int, now func() time.Time) Window {
	if now == nil {
		now = time.Now
	}
	months = ClampMonths(months)
	end := now()
	return Window{
		Start: end.AddDate(0, 0, -DaysPerMonth*months),
		End:   end,
	}
}

// Contains reports whether t falls inside the window, inclusive on both ends.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days returns the window length in whole days.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
}
