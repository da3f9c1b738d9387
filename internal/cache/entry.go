// Package cache persists previously-fetched, already-filtered complaint
// corpora in a local sqlite file and an optional remote redis store.
package cache

import (
	"fmt"
	"time"

	"harmwatch/internal/model"
	"harmwatch/internal/window"
)

// Entry is one cached corpus for a month-count. Entries are superseded on
// refresh, never mutated.
type Entry struct {
	RetrievedAt time.Time
	CoversMin   time.Time
	CoversMax   time.Time
	Records     []model.Complaint
	Months      int
}

// Usable evaluates the entry against a window. An entry serves a window
// only when it is younger than the freshness threshold and its coverage
// spans the window, allowing tolerance at the end for reporting lag. The
// reason string explains an unusable verdict so operators can tell
// expiry from insufficient coverage.
func (e *Entry) Usable(w window.Window, freshness, tolerance time.Duration, now time.Time) (bool, string) {
	if age := now.Sub(e.RetrievedAt); age > freshness {
		return false, fmt.Sprintf("expired: retrieved %s ago, threshold %s",
			age.Round(time.Hour), freshness)
	}
	if e.CoversMin.After(w.Start) {
		return false, fmt.Sprintf("insufficient coverage: starts %s, window needs %s",
			e.CoversMin.Format("2006-01-02"), w.Start.Format("2006-01-02"))
	}
	if e.CoversMax.Before(w.End.Add(-tolerance)) {
		return false, fmt.Sprintf("insufficient coverage: ends %s, window needs %s (tolerance %s)",
			e.CoversMax.Format("2006-01-02"), w.End.Format("2006-01-02"), tolerance)
	}
	return true, ""
}

// coverage returns the min and max received dates across records.
func coverage(records []model.Complaint) (time.Time, time.Time) {
	var minDate, maxDate time.Time
	for i := range records {
		d := records[i].DateReceived
		if d.IsZero() {
			continue
		}
		if minDate.IsZero() || d.Before(minDate) {
			minDate = d
		}
		if maxDate.IsZero() || d.After(maxDate) {
			maxDate = d
		}
	}
	return minDate, maxDate
}
