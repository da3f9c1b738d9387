// Package fetch retrieves complaint records from the search API and the
// bulk archive download.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"harmwatch/internal/common"
	"harmwatch/internal/model"
	"harmwatch/internal/window"
)

// OffsetCeiling is the provider-imposed maximum pagination offset.
const OffsetCeiling = 10000

// defaultAPITimeout bounds a single search request.
const defaultAPITimeout = 90 * time.Second

// APIConfig holds search API client configuration.
type APIConfig struct {
	BaseURL    string
	PageSize   int
	MaxRecords int
	LiteMode   bool
	Timeout    time.Duration
}

// Validate ensures all required fields are present.
func (c *APIConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("search API base URL is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive")
	}
	if c.MaxRecords <= 0 {
		return fmt.Errorf("max records must be positive")
	}
	return nil
}

// SearchClient pages through the search API under a record budget and the
// provider's offset ceiling.
type SearchClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	pageSize   int
	maxRecords int
	liteMode   bool
}

// NewSearchClient creates a search API client with the given configuration.
func NewSearchClient(cfg APIConfig) (*SearchClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultAPITimeout
	}
	return &SearchClient{
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.Default().With("component", "search_api"),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/") + "/",
		pageSize:   cfg.PageSize,
		maxRecords: cfg.MaxRecords,
		liteMode:   cfg.LiteMode,
	}, nil
}

// Fetch pages through the API for the given window. The returned flag
// reports truncation: the fetch stopped at the record budget or offset
// ceiling before exhausting the provider. It never yields more than the
// configured record budget and never queries beyond the offset ceiling.
func (c *SearchClient) Fetch(ctx context.Context, w window.Window) ([]model.Complaint, bool, error) {
	c.logger.Info("Fetching complaints from search API",
		"window", w.String(),
		"page_size", c.pageSize,
		"max_records", c.maxRecords)

	var all []model.Complaint
	offset := 0
	truncated := false

	for {
		if offset >= OffsetCeiling || len(all) >= c.maxRecords {
			truncated = true
			c.logger.Warn("Pagination stopped at record budget",
				"offset", offset,
				"yielded", len(all),
				"max_records", c.maxRecords)
			break
		}

		size := c.pageSize
		if remaining := c.maxRecords - len(all); remaining < size {
			size = remaining
		}

		page, stop, err := c.fetchPage(ctx, w, offset, size)
		if err != nil {
			return nil, false, err
		}
		if stop {
			// Provider signaled the offset/size is out of range; the
			// records yielded so far are the final result.
			c.logger.Warn("Pagination stopped by provider", "offset", offset)
			break
		}
		if len(page) == 0 {
			break
		}

		all = append(all, page...)

		c.logger.Debug("Fetched page",
			"count", len(page),
			"offset", offset,
			"total", len(all))

		if len(page) < size {
			break
		}
		offset += c.pageSize
	}

	c.logger.Info("Search API fetch complete", "count", len(all), "truncated", truncated)
	return all, truncated, nil
}

// fetchPage requests one page. A true stop return means the provider
// rejected the paging parameters (HTTP 400) and pagination must end.
func (c *SearchClient) fetchPage(ctx context.Context, w window.Window, offset, size int) ([]model.Complaint, bool, error) {
	params := url.Values{}
	params.Set("date_received_min", w.Start.Format("2006-01-02"))
	params.Set("date_received_max", w.End.Format("2006-01-02"))
	params.Set("no_aggs", "true")
	params.Set("no_highlight", "true")
	params.Set("size", fmt.Sprintf("%d", size))
	params.Set("frm", fmt.Sprintf("%d", offset))
	if !c.liteMode {
		params.Set("has_narrative", "yes")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: search request failed: %v", common.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusBadRequest {
		return nil, true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("%w: search API returned status %d", common.ErrSourceUnavailable, resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("%w: failed to decode search response: %v", common.ErrMalformedResponse, err)
	}

	page := make([]model.Complaint, 0, len(decoded.Hits.Hits))
	for _, hit := range decoded.Hits.Hits {
		page = append(page, hit.Source.toComplaint())
	}
	return page, false, nil
}

// searchResponse mirrors the {hits:{hits:[{_source:{...}}]}} envelope.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source complaintSource `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// complaintSource is one record as the search API returns it.
type complaintSource struct {
	ComplaintID       flexibleID `json:"complaint_id"`
	DateReceived      string     `json:"date_received"`
	DateSentToCompany string     `json:"date_sent_to_company"`
	Product           string     `json:"product"`
	Issue             string     `json:"issue"`
	Company           string     `json:"company"`
	State             string     `json:"state"`
	Narrative         string     `json:"complaint_what_happened"`
	CompanyResponse   string     `json:"company_response"`
	TimelyResponse    string     `json:"timely"`
}

func (s *complaintSource) toComplaint() model.Complaint {
	return model.Complaint{
		ID:                string(s.ComplaintID),
		DateReceived:      parseDate(s.DateReceived),
		DateSentToCompany: parseDate(s.DateSentToCompany),
		Product:           s.Product,
		Issue:             s.Issue,
		Company:           s.Company,
		State:             s.State,
		Narrative:         s.Narrative,
		CompanyResponse:   s.CompanyResponse,
		TimelyResponse:    s.TimelyResponse,
	}
}

// flexibleID decodes a complaint id delivered as either a JSON string or
// a JSON number.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*f = flexibleID(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return fmt.Errorf("complaint_id is neither string nor number: %s", string(data))
	}
	*f = flexibleID(asNumber.String())
	return nil
}

// dateLayouts covers the date formats the two sources emit.
var dateLayouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseDate parses a source date, returning the zero time on failure so a
// malformed date fails the window predicate instead of aborting ingestion.
func parseDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
