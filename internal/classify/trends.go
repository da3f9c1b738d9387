package classify

import (
	"harmwatch/internal/exclusion"
	"harmwatch/internal/model"
)

// ComboCount pairs a product/issue combination with its occurrence count.
type ComboCount struct {
	Product string `json:"product"`
	Issue   string `json:"issue"`
	Count   int    `json:"count"`
}

// Trends summarizes the most frequent products, issues, and
// product/issue combinations in a filtered corpus.
type Trends struct {
	TopProducts []ValueCount `json:"top_products"`
	TopIssues   []ValueCount `json:"top_issues"`
	TopCombos   []ComboCount `json:"top_combos"`
}

// CompanyTrend aggregates complaint volume and leading issues for one company.
type CompanyTrend struct {
	Company   string       `json:"company"`
	TopIssues []ValueCount `json:"top_issues"`
	Count     int          `json:"count"`
}

// TopTrends computes the corpus-wide product and issue leaders.
func TopTrends(corpus []model.Complaint, topN int) Trends {
	products := newFrequency()
	issues := newFrequency()
	combos := newFrequency()
	comboKeys := make(map[string][2]string)

	for i := range corpus {
		products.add(corpus[i].Product)
		issues.add(corpus[i].Issue)
		key := corpus[i].Product + "\x00" + corpus[i].Issue
		combos.add(key)
		comboKeys[key] = [2]string{corpus[i].Product, corpus[i].Issue}
	}

	comboCounts := make([]ComboCount, 0, len(combos.order))
	for _, vc := range combos.topN(topN) {
		pair := comboKeys[vc.Value]
		comboCounts = append(comboCounts, ComboCount{
			Product: pair[0],
			Issue:   pair[1],
			Count:   vc.Count,
		})
	}

	return Trends{
		TopProducts: products.topN(topN),
		TopIssues:   issues.topN(topN),
		TopCombos:   comboCounts,
	}
}

// TopCompanies ranks companies by complaint volume with the credit-bureau
// exclusion applied, attaching each company's leading issues.
func TopCompanies(corpus []model.Complaint, policy exclusion.Policy, topN int) []CompanyTrend {
	companies := newFrequency()
	issuesByCompany := make(map[string]*frequency)

	for i := range corpus {
		company := corpus[i].Company
		if policy.IsExcludedCompany(company) {
			continue
		}
		companies.add(company)
		f := issuesByCompany[company]
		if f == nil {
			f = newFrequency()
			issuesByCompany[company] = f
		}
		f.add(corpus[i].Issue)
	}

	top := companies.topN(topN)
	out := make([]CompanyTrend, 0, len(top))
	for _, vc := range top {
		out = append(out, CompanyTrend{
			Company:   vc.Value,
			Count:     vc.Count,
			TopIssues: issuesByCompany[vc.Value].topN(5),
		})
	}
	return out
}

// CorpusStats summarizes a filtered corpus for display.
func CorpusStats(corpus []model.Complaint) (companies, products, states int) {
	uc := make(map[string]struct{})
	up := make(map[string]struct{})
	us := make(map[string]struct{})
	for i := range corpus {
		uc[corpus[i].Company] = struct{}{}
		up[corpus[i].Product] = struct{}{}
		us[corpus[i].State] = struct{}{}
	}
	return len(uc), len(up), len(us)
}
