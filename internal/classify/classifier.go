// Package classify tags complaint narratives with harm-mechanism labels
// and derives per-label aggregate statistics.
package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"harmwatch/internal/model"
)

// compiledLabel holds one label's alternatives OR-combined into a single
// case-insensitive pattern.
type compiledLabel struct {
	regex *regexp.Regexp
	label string
}

// Classifier is a deterministic multi-label tagger. For a fixed corpus and
// taxonomy the assignment and summary values are identical across runs.
type Classifier struct {
	labels []compiledLabel
}

// LabeledComplaint is a complaint plus its derived harm labels. Labels are
// a computed view, never persisted as ground truth.
type LabeledComplaint struct {
	model.Complaint
	HarmLabels []string
}

// Result carries the labeled corpus and the per-label summary table.
type Result struct {
	Labeled   []LabeledComplaint
	Summaries []model.CategorySummary
}

// NewClassifier compiles the taxonomy. Each label's alternatives are
// joined with OR into one pattern; an invalid alternative fails the whole
// constructor so a broken taxonomy is caught at startup.
func NewClassifier(taxonomy []LabelPatterns) (*Classifier, error) {
	labels := make([]compiledLabel, 0, len(taxonomy))
	for _, lp := range taxonomy {
		if len(lp.Patterns) == 0 {
			return nil, fmt.Errorf("label %q has no patterns", lp.Label)
		}
		combined := "(?i)(?:" + strings.Join(lp.Patterns, "|") + ")"
		re, err := regexp.Compile(combined)
		if err != nil {
			return nil, fmt.Errorf("failed to compile patterns for label %q: %w", lp.Label, err)
		}
		labels = append(labels, compiledLabel{label: lp.Label, regex: re})
	}
	return &Classifier{labels: labels}, nil
}

// LabelCount returns the number of labels in the compiled taxonomy.
func (c *Classifier) LabelCount() int {
	return len(c.labels)
}

// Labels returns the taxonomy's label names in definition order.
func (c *Classifier) Labels() []string {
	out := make([]string, len(c.labels))
	for i, l := range c.labels {
		out[i] = l.label
	}
	return out
}

// ClassifyNarrative returns every label whose pattern matches the
// narrative, in taxonomy order. A missing or empty narrative yields no
// labels, never an error.
func (c *Classifier) ClassifyNarrative(narrative string) []string {
	if strings.TrimSpace(narrative) == "" {
		return nil
	}
	var labels []string
	for _, l := range c.labels {
		if l.regex.MatchString(narrative) {
			labels = append(labels, l.label)
		}
	}
	return labels
}

// Run labels the whole corpus and builds a CategorySummary per label.
// Labels with zero matches are omitted from the summary. Percentages are
// relative to the full corpus, so multi-label overlap can push the column
// total past 100%.
func (c *Classifier) Run(corpus []model.Complaint) *Result {
	labeled := make([]LabeledComplaint, 0, len(corpus))

	type labelStats struct {
		products  *frequency
		companies *frequency
		count     int
	}
	stats := make(map[string]*labelStats, len(c.labels))

	for i := range corpus {
		labels := c.ClassifyNarrative(corpus[i].Narrative)
		labeled = append(labeled, LabeledComplaint{
			Complaint:  corpus[i],
			HarmLabels: labels,
		})
		for _, label := range labels {
			st := stats[label]
			if st == nil {
				st = &labelStats{products: newFrequency(), companies: newFrequency()}
				stats[label] = st
			}
			st.count++
			st.products.add(corpus[i].Product)
			st.companies.add(corpus[i].Company)
		}
	}

	summaries := make([]model.CategorySummary, 0, len(stats))
	total := len(corpus)
	for _, l := range c.labels {
		st, ok := stats[l.label]
		if !ok {
			continue
		}
		summaries = append(summaries, model.CategorySummary{
			Label:      l.label,
			Count:      st.count,
			Percentage: float64(st.count) / float64(total) * 100,
			TopProduct: st.products.top(),
			TopCompany: st.companies.top(),
		})
	}

	// Highest-count first; taxonomy order breaks ties deterministically.
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Count > summaries[j].Count
	})

	return &Result{Labeled: labeled, Summaries: summaries}
}

// frequency counts string values preserving first-encountered order for
// tie-breaking.
type frequency struct {
	counts map[string]int
	order  []string
}

func newFrequency() *frequency {
	return &frequency{counts: make(map[string]int)}
}

func (f *frequency) add(value string) {
	if _, seen := f.counts[value]; !seen {
		f.order = append(f.order, value)
	}
	f.counts[value]++
}

// top returns the most frequent value; ties go to the value seen first.
func (f *frequency) top() string {
	best := ""
	bestCount := 0
	for _, v := range f.order {
		if f.counts[v] > bestCount {
			best = v
			bestCount = f.counts[v]
		}
	}
	return best
}

// topN returns up to n values ordered by count descending, first-seen
// breaking ties.
func (f *frequency) topN(n int) []ValueCount {
	out := make([]ValueCount, 0, len(f.order))
	for _, v := range f.order {
		out = append(out, ValueCount{Value: v, Count: f.counts[v]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ValueCount pairs a categorical value with its occurrence count.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}
