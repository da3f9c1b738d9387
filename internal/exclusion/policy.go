// Package exclusion holds the fixed rule set that drops credit-reporting
// product families and credit-bureau companies from analysis.
package exclusion

// Policy answers whether a product or company is excluded from the corpus.
// Matching is verbatim: upstream data is inconsistently cased, so every
// known spelling is listed rather than normalized.
type Policy struct {
	products  map[string]struct{}
	companies map[string]struct{}
}

// excludedProducts is the credit-reporting product family.
var excludedProducts = []string{
	"Credit reporting, credit repair services, or other personal consumer reports",
	"Credit reporting",
	"Credit repair services",
	"Other personal consumer reports",
}

// excludedCompanies lists the three major credit bureaus under every
// spelling observed in the data.
var excludedCompanies = []string{
	"EQUIFAX, INC.",
	"Experian Information Solutions Inc.",
	"TRANSUNION INTERMEDIATE HOLDINGS, INC.",
	"TransUnion Intermediate Holdings, Inc.",
	"EXPERIAN INFORMATION SOLUTIONS INC.",
	"Equifax Information Services LLC",
	"EXPERIAN",
	"EQUIFAX",
}

// DefaultPolicy returns the standard exclusion policy.
func DefaultPolicy() Policy {
	p := Policy{
		products:  make(map[string]struct{}, len(excludedProducts)),
		companies: make(map[string]struct{}, len(excludedCompanies)),
	}
	for _, s := range excludedProducts {
		p.products[s] = struct{}{}
	}
	for _, s := range excludedCompanies {
		p.companies[s] = struct{}{}
	}
	return p
}

// IsExcludedProduct reports whether the product belongs to the
// credit-reporting family.
func (p Policy) IsExcludedProduct(product string) bool {
	_, ok := p.products[product]
	return ok
}

// IsExcludedCompany reports whether the company is one of the major
// credit bureaus.
func (p Policy) IsExcludedCompany(company string) bool {
	_, ok := p.companies[company]
	return ok
}
