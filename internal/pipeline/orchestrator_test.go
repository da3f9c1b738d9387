package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harmwatch/internal/cache"
	"harmwatch/internal/common"
	"harmwatch/internal/exclusion"
	"harmwatch/internal/filter"
	"harmwatch/internal/model"
	"harmwatch/internal/window"
)

type mockStore struct {
	name       string
	entry      *cache.Entry
	missReason string
	getErr     error
	putErr     error

	gets int
	puts []putCall
}

type putCall struct {
	months      int
	records     []model.Complaint
	retrievedAt time.Time
}

func (m *mockStore) Name() string { return m.name }

func (m *mockStore) Get(_ context.Context, _ int, _ window.Window) (*cache.Entry, string, error) {
	m.gets++
	if m.getErr != nil {
		return nil, "", m.getErr
	}
	if m.entry == nil {
		return nil, m.missReason, nil
	}
	return m.entry, "", nil
}

func (m *mockStore) Put(_ context.Context, months int, records []model.Complaint, retrievedAt time.Time) error {
	m.puts = append(m.puts, putCall{months: months, records: records, retrievedAt: retrievedAt})
	return m.putErr
}

type mockAPI struct {
	records   []model.Complaint
	truncated bool
	err       error
	calls     int
}

func (m *mockAPI) Fetch(_ context.Context, _ window.Window) ([]model.Complaint, bool, error) {
	m.calls++
	return m.records, m.truncated, m.err
}

type mockBulk struct {
	records []model.Complaint
	err     error
	calls   int
}

func (m *mockBulk) Fetch(_ context.Context, _ filter.Options) ([]model.Complaint, error) {
	m.calls++
	return m.records, m.err
}

func testWindow() window.Window {
	return window.Window{
		Start: time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
	}
}

func testFilterOptions() filter.Options {
	return filter.Options{
		Policy:           exclusion.DefaultPolicy(),
		Window:           testWindow(),
		RequireNarrative: true,
	}
}

func passingComplaints(w window.Window) []model.Complaint {
	return []model.Complaint{
		{ID: "1", DateReceived: w.Start, Product: "Debt collection", Company: "COLLECTOR LLC", Narrative: "Called me at work repeatedly."},
		{ID: "2", DateReceived: w.End, Product: "Mortgage", Company: "LENDER INC", Narrative: "Payment applied to the wrong account."},
	}
}

func newTestOrchestrator(t *testing.T, opts Options) *Orchestrator {
	t.Helper()
	if opts.Filter.Window.Start.IsZero() {
		opts.Filter = testFilterOptions()
	}
	if opts.Months == 0 {
		opts.Months = 4
	}
	o, err := New(opts)
	require.NoError(t, err)
	return o
}

func TestRunRemoteCacheHit(t *testing.T) {
	w := testWindow()
	remote := &mockStore{name: "remote cache", entry: &cache.Entry{Months: 4, Records: passingComplaints(w)}}
	local := &mockStore{name: "local cache"}
	api := &mockAPI{}

	o := newTestOrchestrator(t, Options{Remote: remote, Local: local, API: api})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceRemoteCache, result.Source)
	assert.Len(t, result.Complaints, 2)
	assert.Zero(t, api.calls, "API should not be consulted on a cache hit")
	require.Len(t, local.puts, 1, "remote hit should backfill the local cache")
	assert.Equal(t, 4, local.puts[0].months)
}

func TestRunLocalCacheHitBackfillsRemote(t *testing.T) {
	w := testWindow()
	remote := &mockStore{name: "remote cache", missReason: "no remote cache entry for this window size"}
	local := &mockStore{name: "local cache", entry: &cache.Entry{Months: 4, Records: passingComplaints(w)}}

	o := newTestOrchestrator(t, Options{Remote: remote, Local: local})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceLocalCache, result.Source)
	require.Len(t, remote.puts, 1)
	assert.Len(t, remote.puts[0].records, 2)
}

func TestRunCacheHitIsRefiltered(t *testing.T) {
	w := testWindow()
	records := append(passingComplaints(w), model.Complaint{
		ID:           "3",
		DateReceived: w.End,
		Product:      "Credit reporting, credit repair services, or other personal consumer reports",
		Company:      "EQUIFAX, INC.",
		Narrative:    "Wrong account on my report.",
	})
	local := &mockStore{name: "local cache", entry: &cache.Entry{Months: 4, Records: records}}

	o := newTestOrchestrator(t, Options{Local: local})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Complaints, 2, "excluded product must be dropped even from a cache hit")
}

func TestRunFallsThroughToAPI(t *testing.T) {
	w := testWindow()
	local := &mockStore{name: "local cache", missReason: "no cache entry for this window size"}
	api := &mockAPI{records: passingComplaints(w), truncated: true}
	bulk := &mockBulk{}

	o := newTestOrchestrator(t, Options{Local: local, API: api, Bulk: bulk})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceAPI, result.Source)
	assert.True(t, result.Truncated)
	assert.Len(t, result.Complaints, 2)
	assert.Zero(t, bulk.calls)
	require.Len(t, local.puts, 1, "API result should populate the local cache")
}

func TestRunAPIResultIsFiltered(t *testing.T) {
	w := testWindow()
	local := &mockStore{name: "local cache", missReason: "no cache entry for this window size"}
	api := &mockAPI{records: []model.Complaint{
		{ID: "1", DateReceived: w.End, Product: "Mortgage", Company: "LENDER INC", Narrative: "Escrow shortage appeared from nowhere."},
		{ID: "2", DateReceived: w.Start.AddDate(0, 0, -30), Product: "Mortgage", Company: "LENDER INC", Narrative: "Too old for the window."},
		{ID: "3", DateReceived: w.End, Product: "Mortgage", Company: "LENDER INC", Narrative: "   "},
	}}

	o := newTestOrchestrator(t, Options{Local: local, API: api})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Complaints, 1)
	assert.Equal(t, "1", result.Complaints[0].ID)
}

func TestRunFallsThroughToBulk(t *testing.T) {
	w := testWindow()
	local := &mockStore{name: "local cache", missReason: "no cache entry for this window size"}
	api := &mockAPI{err: fmt.Errorf("%w: connect: connection refused", common.ErrSourceUnavailable)}
	bulk := &mockBulk{records: passingComplaints(w)}

	o := newTestOrchestrator(t, Options{Local: local, API: api, Bulk: bulk})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceBulk, result.Source)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, 1, bulk.calls)
	require.Len(t, local.puts, 1)
}

func TestRunCacheReadErrorIsRecoverable(t *testing.T) {
	w := testWindow()
	local := &mockStore{name: "local cache", getErr: errors.New("database locked")}
	api := &mockAPI{records: passingComplaints(w)}

	o := newTestOrchestrator(t, Options{Local: local, API: api})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceAPI, result.Source)
}

func TestRunCacheWriteErrorIsRecoverable(t *testing.T) {
	w := testWindow()
	local := &mockStore{name: "local cache", missReason: "no cache entry for this window size", putErr: errors.New("disk full")}
	api := &mockAPI{records: passingComplaints(w)}

	o := newTestOrchestrator(t, Options{Local: local, API: api})
	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Complaints, 2)
}

func TestRunAllSourcesExhausted(t *testing.T) {
	local := &mockStore{name: "local cache", missReason: "no cache entry for this window size"}
	api := &mockAPI{err: fmt.Errorf("%w: 503 from upstream", common.ErrSourceUnavailable)}
	bulk := &mockBulk{err: fmt.Errorf("%w: download failed", common.ErrSourceUnavailable)}

	o := newTestOrchestrator(t, Options{Local: local, API: api, Bulk: bulk})
	result, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)

	assert.ErrorIs(t, err, common.ErrNoData)
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Contains(t, err.Error(), "503 from upstream")
	assert.Contains(t, err.Error(), "download failed")
	assert.Contains(t, err.Error(), "no cache entry")
}

func TestRunEmptyAPIResultIsSuccess(t *testing.T) {
	local := &mockStore{name: "local cache", missReason: "no cache entry for this window size"}
	api := &mockAPI{records: nil}
	bulk := &mockBulk{}

	o := newTestOrchestrator(t, Options{Local: local, API: api, Bulk: bulk})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Complaints)
	assert.Zero(t, bulk.calls, "an empty but successful API result should not trigger the bulk fallback")
	assert.Empty(t, local.puts, "empty corpus should not be cached")
}

func TestRunLiteModeStripsNarratives(t *testing.T) {
	w := testWindow()
	local := &mockStore{name: "local cache", missReason: "no cache entry for this window size"}
	api := &mockAPI{records: passingComplaints(w)}

	o := newTestOrchestrator(t, Options{
		Local: local,
		API:   api,
		Lite:  true,
		Filter: filter.Options{
			Policy:           exclusion.DefaultPolicy(),
			Window:           w,
			RequireNarrative: false,
		},
	})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Complaints, 2)
	for _, c := range result.Complaints {
		assert.Empty(t, c.Narrative, "lite mode must not retain narratives")
	}
	require.Len(t, local.puts, 1)
	for _, c := range local.puts[0].records {
		assert.Empty(t, c.Narrative, "lite mode must not cache narratives")
	}
}

func TestRunLiteModeStripsCachedNarratives(t *testing.T) {
	w := testWindow()
	remote := &mockStore{name: "remote cache", entry: &cache.Entry{
		Months:      4,
		RetrievedAt: time.Now().Add(-time.Hour),
		Records:     passingComplaints(w),
	}}
	local := &mockStore{name: "local cache"}

	o := newTestOrchestrator(t, Options{
		Remote: remote,
		Local:  local,
		Lite:   true,
		Filter: filter.Options{
			Policy:           exclusion.DefaultPolicy(),
			Window:           w,
			RequireNarrative: false,
		},
	})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	for _, c := range result.Complaints {
		assert.Empty(t, c.Narrative)
	}
	require.Len(t, local.puts, 1)
	for _, c := range local.puts[0].records {
		assert.Empty(t, c.Narrative)
	}
}

func TestRunBackfillPreservesRetrievalTime(t *testing.T) {
	w := testWindow()
	origin := time.Now().Add(-6 * 24 * time.Hour).Truncate(time.Second)
	remote := &mockStore{name: "remote cache", entry: &cache.Entry{
		Months:      4,
		RetrievedAt: origin,
		Records:     passingComplaints(w),
	}}
	local := &mockStore{name: "local cache"}

	o := newTestOrchestrator(t, Options{Remote: remote, Local: local})
	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.RetrievedAt.Equal(origin))
	require.Len(t, local.puts, 1)
	assert.True(t, local.puts[0].retrievedAt.Equal(origin),
		"backfill must carry the origin retrieval time, not restart the freshness clock")
}

func TestRunFetchStampsRetrievalTime(t *testing.T) {
	w := testWindow()
	local := &mockStore{name: "local cache", missReason: "no cache entry for this window size"}
	api := &mockAPI{records: passingComplaints(w)}

	o := newTestOrchestrator(t, Options{Local: local, API: api})
	fetchedAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return fetchedAt }

	result, err := o.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.RetrievedAt.Equal(fetchedAt))
	require.Len(t, local.puts, 1)
	assert.True(t, local.puts[0].retrievedAt.Equal(fetchedAt))
}

func TestRunNonRecoverableAPIErrorAborts(t *testing.T) {
	local := &mockStore{name: "local cache", missReason: "no cache entry for this window size"}
	api := &mockAPI{err: errors.New("base URL is not a valid URL")}
	bulk := &mockBulk{}

	o := newTestOrchestrator(t, Options{Local: local, API: api, Bulk: bulk})
	result, err := o.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.NotErrorIs(t, err, common.ErrNoData)
	assert.Zero(t, bulk.calls, "a non-recoverable failure must not advance to the next source")
}

func TestNewValidation(t *testing.T) {
	_, err := New(Options{Months: 4})
	assert.ErrorContains(t, err, "local cache store is required")

	_, err = New(Options{Local: &mockStore{name: "local cache"}})
	assert.ErrorContains(t, err, "months must be positive")
}
