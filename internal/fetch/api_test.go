package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harmwatch/internal/common"
	"harmwatch/internal/window"
)

func testWindow() window.Window {
	end := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	return window.Window{Start: end.AddDate(0, 0, -120), End: end}
}

// hitsPayload builds a search response with count sequential records
// starting at the given id.
func hitsPayload(startID, count int) map[string]any {
	hits := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		hits = append(hits, map[string]any{
			"_source": map[string]any{
				"complaint_id":            strconv.Itoa(startID + i),
				"date_received":           "2025-05-01T12:00:00",
				"product":                 "Credit card",
				"issue":                   "Billing dispute",
				"company":                 "ACME BANK",
				"state":                   "CA",
				"complaint_what_happened": "they charged a hidden fee",
			},
		})
	}
	return map[string]any{"hits": map[string]any{"hits": hits}}
}

func newTestClient(t *testing.T, serverURL string, pageSize, maxRecords int) *SearchClient {
	t.Helper()
	c, err := NewSearchClient(APIConfig{
		BaseURL:    serverURL,
		PageSize:   pageSize,
		MaxRecords: maxRecords,
	})
	require.NoError(t, err)
	return c
}

func TestNewSearchClientValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  APIConfig
	}{
		{name: "missing base URL", cfg: APIConfig{PageSize: 10, MaxRecords: 10}},
		{name: "zero page size", cfg: APIConfig{BaseURL: "http://x", MaxRecords: 10}},
		{name: "zero max records", cfg: APIConfig{BaseURL: "http://x", PageSize: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewSearchClient(tt.cfg)
			assert.Error(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestFetchRespectsRecordBudget(t *testing.T) {
	var requests []struct{ frm, size int }
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		frm, _ := strconv.Atoi(r.URL.Query().Get("frm"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		requests = append(requests, struct{ frm, size int }{frm, size})
		_ = json.NewEncoder(w).Encode(hitsPayload(frm, size))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 100, 250)
	records, truncated, err := c.Fetch(context.Background(), testWindow())

	require.NoError(t, err)
	assert.Len(t, records, 250)
	assert.True(t, truncated, "stopping at the budget must set the truncation flag")

	require.Len(t, requests, 3)
	assert.Equal(t, struct{ frm, size int }{0, 100}, requests[0])
	assert.Equal(t, struct{ frm, size int }{100, 100}, requests[1])
	assert.Equal(t, struct{ frm, size int }{200, 50}, requests[2])
}

func TestFetchStopsOnEmptyPage(t *testing.T) {
	pages := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		if pages == 1 {
			_ = json.NewEncoder(w).Encode(hitsPayload(0, 100))
			return
		}
		_ = json.NewEncoder(w).Encode(hitsPayload(0, 0))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 100, 5000)
	records, truncated, err := c.Fetch(context.Background(), testWindow())

	require.NoError(t, err)
	assert.Len(t, records, 100)
	assert.False(t, truncated)
}

func TestFetchShortPageEndsPagination(t *testing.T) {
	pages := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		_ = json.NewEncoder(w).Encode(hitsPayload(0, 37))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 100, 5000)
	records, truncated, err := c.Fetch(context.Background(), testWindow())

	require.NoError(t, err)
	assert.Len(t, records, 37)
	assert.False(t, truncated)
	assert.Equal(t, 1, pages)
}

func TestFetchBadRequestKeepsYieldedRecords(t *testing.T) {
	pages := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		if pages == 1 {
			_ = json.NewEncoder(w).Encode(hitsPayload(0, 100))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 100, 5000)
	records, truncated, err := c.Fetch(context.Background(), testWindow())

	require.NoError(t, err, "a 400 mid-pagination is not a fatal error")
	assert.Len(t, records, 100)
	assert.False(t, truncated)
}

func TestFetchServerErrorIsSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 100, 5000)
	_, _, err := c.Fetch(context.Background(), testWindow())

	assert.ErrorIs(t, err, common.ErrSourceUnavailable)
}

func TestFetchMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html>not json</html>")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 100, 5000)
	_, _, err := c.Fetch(context.Background(), testWindow())

	assert.ErrorIs(t, err, common.ErrMalformedResponse)
}

func TestFetchRequestParameters(t *testing.T) {
	var query map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_ = json.NewEncoder(w).Encode(hitsPayload(0, 0))
	}))
	defer srv.Close()

	t.Run("standard mode requests narratives", func(t *testing.T) {
		c := newTestClient(t, srv.URL, 100, 5000)
		_, _, err := c.Fetch(context.Background(), testWindow())
		require.NoError(t, err)

		assert.Equal(t, "2025-02-15", query["date_received_min"][0])
		assert.Equal(t, "2025-06-15", query["date_received_max"][0])
		assert.Equal(t, "true", query["no_aggs"][0])
		assert.Equal(t, "true", query["no_highlight"][0])
		assert.Equal(t, "yes", query["has_narrative"][0])
	})

	t.Run("lite mode omits has_narrative", func(t *testing.T) {
		c, err := NewSearchClient(APIConfig{
			BaseURL:    srv.URL,
			PageSize:   100,
			MaxRecords: 5000,
			LiteMode:   true,
		})
		require.NoError(t, err)

		_, _, err = c.Fetch(context.Background(), testWindow())
		require.NoError(t, err)
		assert.NotContains(t, query, "has_narrative")
	})
}

func TestFlexibleIDDecodesStringAndNumber(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "string id", raw: `{"complaint_id": "12345"}`, want: "12345"},
		{name: "numeric id", raw: `{"complaint_id": 12345}`, want: "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var src complaintSource
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &src))
			assert.Equal(t, tt.want, string(src.ComplaintID))
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		zero  bool
	}{
		{name: "date only", value: "2025-05-01"},
		{name: "datetime", value: "2025-05-01T12:30:00"},
		{name: "datetime with offset", value: "2025-05-01T12:30:00-05:00"},
		{name: "empty", value: "", zero: true},
		{name: "garbage", value: "last tuesday", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDate(tt.value)
			if tt.zero {
				assert.True(t, got.IsZero())
			} else {
				assert.Equal(t, 2025, got.Year())
				assert.Equal(t, time.May, got.Month())
			}
		})
	}
}
