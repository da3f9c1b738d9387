package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"harmwatch/internal/common"
	"harmwatch/internal/filter"
	"harmwatch/internal/model"
	"harmwatch/internal/window"
)

type state string

const (
	stateCheckRemoteCache state = "check_remote_cache"
	stateCheckLocalCache  state = "check_local_cache"
	stateFetchAPI         state = "fetch_api"
	stateFetchBulk        state = "fetch_bulk_download"
	stateDone             state = "done"
	stateFailed           state = "failed"
)

// Orchestrator walks the source fallback chain for one window size.
type Orchestrator struct {
	remote  CacheStore
	local   CacheStore
	api     APISource
	bulk    BulkSource
	opts    filter.Options
	months  int
	lite    bool
	logger  *slog.Logger
	now     func() time.Time
	current state
}

// Options configures an Orchestrator. Remote may be nil when the remote
// cache is not configured; that stage is skipped. API and Bulk may be nil
// to disable a fetch stage, which only tests should want. Lite strips
// narratives from the resolved corpus before retention and cache writes.
type Options struct {
	Remote CacheStore
	Local  CacheStore
	API    APISource
	Bulk   BulkSource
	Filter filter.Options
	Months int
	Lite   bool
}

// New builds an Orchestrator for the given sources.
func New(opts Options) (*Orchestrator, error) {
	if opts.Local == nil {
		return nil, fmt.Errorf("local cache store is required")
	}
	if opts.Months <= 0 {
		return nil, fmt.Errorf("months must be positive, got %d", opts.Months)
	}
	return &Orchestrator{
		remote: opts.Remote,
		local:  opts.Local,
		api:    opts.API,
		bulk:   opts.Bulk,
		opts:   opts.Filter,
		months: opts.Months,
		lite:   opts.Lite,
		logger: slog.Default().With("component", "pipeline"),
		now:    time.Now,
	}, nil
}

func (o *Orchestrator) transition(to state, reason string) {
	o.logger.Info("Pipeline transition",
		"from", string(o.current), "to", string(to), "reason", reason)
	o.current = to
}

// Run resolves the corpus, trying each source in order. Cache reads and
// writes never abort the run. A recoverable source failure advances to the
// next source; only exhausting every source fails the run, and that error
// carries the full attempt trail.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	w := o.opts.Window
	var attempts []string

	o.current = stateCheckRemoteCache
	if o.remote != nil {
		if result, note := o.tryCache(ctx, o.remote, SourceRemoteCache, w); result != nil {
			o.writeBack(ctx, result, o.local)
			o.transition(stateDone, "remote cache hit")
			return result, nil
		} else {
			attempts = append(attempts, note)
			o.transition(stateCheckLocalCache, note)
		}
	} else {
		o.transition(stateCheckLocalCache, "remote cache not configured")
	}

	if result, note := o.tryCache(ctx, o.local, SourceLocalCache, w); result != nil {
		o.writeBack(ctx, result, o.remote)
		o.transition(stateDone, "local cache hit")
		return result, nil
	} else {
		attempts = append(attempts, note)
		o.transition(stateFetchAPI, note)
	}

	if o.api != nil {
		records, truncated, err := o.api.Fetch(ctx, w)
		if err == nil {
			records = o.prepare(filter.Apply(filter.NewBatch(records), o.opts, o.logger))
			result := &Result{
				Source:      SourceAPI,
				Window:      w,
				Complaints:  records,
				Truncated:   truncated,
				RetrievedAt: o.now(),
			}
			o.writeBack(ctx, result, o.local, o.remote)
			o.transition(stateDone, "fetched via search API")
			return result, nil
		}
		if !common.IsRecoverable(err) {
			o.transition(stateFailed, err.Error())
			return nil, err
		}
		note := fmt.Sprintf("api: %v", err)
		attempts = append(attempts, note)
		o.transition(stateFetchBulk, note)
	} else {
		o.transition(stateFetchBulk, "api source not configured")
	}

	if o.bulk != nil {
		records, err := o.bulk.Fetch(ctx, o.opts)
		if err == nil {
			result := &Result{
				Source:      SourceBulk,
				Window:      w,
				Complaints:  o.prepare(records),
				RetrievedAt: o.now(),
			}
			o.writeBack(ctx, result, o.local, o.remote)
			o.transition(stateDone, "fetched via bulk download")
			return result, nil
		}
		if !common.IsRecoverable(err) {
			o.transition(stateFailed, err.Error())
			return nil, err
		}
		attempts = append(attempts, fmt.Sprintf("bulk: %v", err))
	} else {
		attempts = append(attempts, "bulk: source not configured")
	}

	o.transition(stateFailed, "all sources exhausted")
	return nil, common.NewUserError(
		"Could not retrieve complaint data from any source. Check your network connection and try again.",
		fmt.Errorf("all sources exhausted (%s): %w", strings.Join(attempts, "; "), common.ErrNoData))
}

// tryCache reads one cache store, re-filtering any hit so stale entries
// written under older filter rules cannot leak unfiltered records. The
// entry's original retrieval time is carried into the result so backfills
// never restart the freshness clock.
func (o *Orchestrator) tryCache(ctx context.Context, store CacheStore, src Source, w window.Window) (*Result, string) {
	entry, reason, err := store.Get(ctx, o.months, w)
	if err != nil {
		o.logger.Warn("Cache read failed, continuing", "store", store.Name(), "error", err)
		return nil, fmt.Sprintf("%s: %v", store.Name(), err)
	}
	if entry == nil {
		return nil, fmt.Sprintf("%s: %s", store.Name(), reason)
	}

	records := filter.Apply(filter.NewBatch(entry.Records), o.opts, o.logger)
	if dropped := len(entry.Records) - len(records); dropped > 0 {
		o.logger.Info("Dropped cached records on re-filter",
			"store", store.Name(), "dropped", dropped)
	}

	return &Result{
		Source:      src,
		Window:      w,
		Complaints:  o.prepare(records),
		RetrievedAt: entry.RetrievedAt,
	}, ""
}

// prepare strips narratives in lite mode so they are neither retained in
// memory nor written into any cache tier.
func (o *Orchestrator) prepare(records []model.Complaint) []model.Complaint {
	if !o.lite {
		return records
	}
	for i := range records {
		records[i].Narrative = ""
	}
	return records
}

// writeBack populates the other cache tiers, stamped with the corpus's
// original retrieval time. Failures are logged, never propagated.
func (o *Orchestrator) writeBack(ctx context.Context, result *Result, stores ...CacheStore) {
	if len(result.Complaints) == 0 {
		return
	}
	for _, store := range stores {
		if store == nil {
			continue
		}
		if err := store.Put(ctx, o.months, result.Complaints, result.RetrievedAt); err != nil {
			o.logger.Warn("Cache write failed, continuing",
				"store", store.Name(), "error", err)
		}
	}
}
