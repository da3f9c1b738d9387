package cli

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"harmwatch/internal/classify"
	"harmwatch/internal/model"
)

func TestRenderSummaryTable(t *testing.T) {
	out := RenderSummaryTable([]model.CategorySummary{
		{Label: "Unauthorized Fees", Count: 12, Percentage: 24.0, TopProduct: "Checking or savings account", TopCompany: "BIG BANK"},
		{Label: "Debt Collection Harassment", Count: 5, Percentage: 10.0, TopProduct: "Debt collection", TopCompany: "COLLECTOR LLC"},
	})

	assert.Contains(t, out, "Unauthorized Fees")
	assert.Contains(t, out, "24.0%")
	assert.Contains(t, out, "BIG BANK")
	assert.Contains(t, out, "Harm Mechanism")
}

func TestRenderSummaryTableEmpty(t *testing.T) {
	out := RenderSummaryTable(nil)
	assert.Contains(t, out, "No harm mechanisms matched")
}

func TestRenderCorpusStatsTruncated(t *testing.T) {
	out := RenderCorpusStats(model.CorpusStats{
		WindowStart:     "2025-02-15",
		WindowEnd:       "2025-06-15",
		Source:          "api",
		TotalComplaints: 5000,
		Truncated:       true,
	})

	assert.Contains(t, out, "2025-02-15")
	assert.Contains(t, out, "truncated")
}

func TestRenderCompanies(t *testing.T) {
	out := RenderCompanies([]classify.CompanyTrend{
		{Company: "BIG BANK", Count: 40, TopIssues: []classify.ValueCount{{Value: "Fee problem", Count: 18}}},
	})
	assert.Contains(t, out, "BIG BANK (40)")
	assert.Contains(t, out, "Fee problem (18)")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a very l...", truncate("a very long company name", 11))
}

func TestTruncateMultibyte(t *testing.T) {
	got := truncate("Crédito Ação Financeira Sociedade Anónima", 10)
	assert.Equal(t, "Crédito...", got)
	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
}
