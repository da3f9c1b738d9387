package model

// CategorySummary contains aggregated statistics for one harm label.
// It is derived from a labeled corpus and recomputed on demand, never persisted.
type CategorySummary struct {
	Label      string  `json:"label"`
	TopProduct string  `json:"top_product"`
	TopCompany string  `json:"top_company"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// CorpusStats describes a filtered corpus at a glance.
type CorpusStats struct {
	WindowStart     string `json:"window_start"`
	WindowEnd       string `json:"window_end"`
	Source          string `json:"source"`
	TotalComplaints int    `json:"total_complaints"`
	UniqueCompanies int    `json:"unique_companies"`
	UniqueProducts  int    `json:"unique_products"`
	UniqueStates    int    `json:"unique_states"`
	Truncated       bool   `json:"truncated"`
}
