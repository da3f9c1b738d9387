// Package filter applies the date-window, narrative-presence, and
// product-exclusion predicates to a raw complaint batch.
package filter

import (
	"log/slog"

	"harmwatch/internal/exclusion"
	"harmwatch/internal/model"
	"harmwatch/internal/window"
)

// Batch is a raw record batch plus the semantic fields its source could
// not supply. Missing fields degrade their predicate to "always true".
type Batch struct {
	Records []model.Complaint
	Missing []Field
}

// NewBatch wraps records whose source supplied every semantic field.
func NewBatch(records []model.Complaint) Batch {
	return Batch{Records: records}
}

// IsMissing reports whether the batch's source lacked the given field.
func (b Batch) IsMissing(field Field) bool {
	for _, f := range b.Missing {
		if f == field {
			return true
		}
	}
	return false
}

// Options configures one filtering pass.
type Options struct {
	Policy           exclusion.Policy
	Window           window.Window
	RequireNarrative bool
}

// Apply runs the three predicates conjunctively and returns the records
// that pass all of them. Pure except for the missing-field warnings;
// applying it twice yields the same result as applying it once.
func Apply(batch Batch, opts Options, logger *slog.Logger) []model.Complaint {
	if logger == nil {
		logger = slog.Default()
	}

	dateActive := !batch.IsMissing(FieldDateReceived)
	if !dateActive {
		logger.Warn("date_received absent from batch, date predicate disabled")
	}
	narrativeActive := opts.RequireNarrative && !batch.IsMissing(FieldNarrative)
	if opts.RequireNarrative && !narrativeActive {
		logger.Warn("narrative column absent from batch, narrative predicate disabled")
	}
	productActive := !batch.IsMissing(FieldProduct)
	if !productActive {
		logger.Warn("product column absent from batch, exclusion predicate disabled")
	}

	out := make([]model.Complaint, 0, len(batch.Records))
	for i := range batch.Records {
		c := &batch.Records[i]
		if dateActive && !opts.Window.Contains(c.DateReceived) {
			continue
		}
		if narrativeActive && !c.HasNarrative() {
			continue
		}
		if productActive && opts.Policy.IsExcludedProduct(c.Product) {
			continue
		}
		out = append(out, *c)
	}
	return out
}
