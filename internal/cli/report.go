package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"harmwatch/internal/classify"
	"harmwatch/internal/model"
)

// RenderCorpusStats renders the corpus overview box shown before the
// harm breakdown.
func RenderCorpusStats(stats model.CorpusStats) string {
	lines := []string{
		fmt.Sprintf("Window:     %s to %s", stats.WindowStart, stats.WindowEnd),
		fmt.Sprintf("Source:     %s", stats.Source),
		fmt.Sprintf("Complaints: %d", stats.TotalComplaints),
		fmt.Sprintf("Companies:  %d", stats.UniqueCompanies),
		fmt.Sprintf("Products:   %d", stats.UniqueProducts),
		fmt.Sprintf("States:     %d", stats.UniqueStates),
	}
	if stats.Truncated {
		lines = append(lines, WarningStyle.Render("Result truncated by the record budget; totals understate actual volume."))
	}
	return RenderBox("Corpus Overview", strings.Join(lines, "\n"))
}

// RenderSummaryTable renders the per-label harm breakdown as an aligned
// table, highest count first.
func RenderSummaryTable(summaries []model.CategorySummary) string {
	if len(summaries) == 0 {
		return SubtleStyle.Render("No harm mechanisms matched in this corpus.")
	}

	headers := []string{"Harm Mechanism", "Count", "Share", "Top Product", "Top Company"}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Label,
			fmt.Sprintf("%d", s.Count),
			fmt.Sprintf("%.1f%%", s.Percentage),
			truncate(s.TopProduct, 40),
			truncate(s.TopCompany, 36),
		})
	}
	return renderTable(headers, rows)
}

// RenderTrends renders the product/issue leaders.
func RenderTrends(trends classify.Trends) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render("Top Products"))
	b.WriteString("\n")
	b.WriteString(renderValueCounts(trends.TopProducts))
	b.WriteString("\n")
	b.WriteString(TitleStyle.Render("Top Issues"))
	b.WriteString("\n")
	b.WriteString(renderValueCounts(trends.TopIssues))

	if len(trends.TopCombos) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Top Product / Issue Pairs"))
		b.WriteString("\n")
		rows := make([][]string, 0, len(trends.TopCombos))
		for _, c := range trends.TopCombos {
			rows = append(rows, []string{
				truncate(c.Product, 40), truncate(c.Issue, 44), fmt.Sprintf("%d", c.Count),
			})
		}
		b.WriteString(renderTable([]string{"Product", "Issue", "Count"}, rows))
	}
	return b.String()
}

// RenderCompanies renders the most-complained-about companies with their
// leading issues.
func RenderCompanies(companies []classify.CompanyTrend) string {
	if len(companies) == 0 {
		return SubtleStyle.Render("No companies to report.")
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Most Complained-About Companies"))
	b.WriteString("\n")
	for _, c := range companies {
		b.WriteString(BoldStyle.Render(fmt.Sprintf("%s (%d)", c.Company, c.Count)))
		b.WriteString("\n")
		for _, issue := range c.TopIssues {
			b.WriteString(SubtleStyle.Render(fmt.Sprintf("  %s (%d)", issue.Value, issue.Count)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderValueCounts(counts []classify.ValueCount) string {
	if len(counts) == 0 {
		return SubtleStyle.Render("(none)") + "\n"
	}
	var b strings.Builder
	for _, vc := range counts {
		b.WriteString(fmt.Sprintf("  %s %s\n",
			TableCellStyle.Render(truncate(vc.Value, 60)),
			SubtleStyle.Render(fmt.Sprintf("(%d)", vc.Count))))
	}
	return b.String()
}

func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	headerCells := make([]string, len(headers))
	for i, h := range headers {
		headerCells[i] = TableHeaderStyle.Render(pad(h, widths[i]))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headerCells...))
	b.WriteString("\n")

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = TableCellStyle.Render(pad(cell, widths[i]))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}

func pad(s string, width int) string {
	if diff := width - lipgloss.Width(s); diff > 0 {
		return s + strings.Repeat(" ", diff)
	}
	return s
}

// truncate shortens s to max runes. Byte slicing would split multi-byte
// characters in company and product names.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
