// Package pipeline resolves a filtered complaint corpus for a time window,
// trying sources in fixed order: remote cache, local cache, Search API,
// bulk CSV download. The first source that yields data wins; every failure
// is recorded and carried into the final error when all sources miss.
package pipeline

import (
	"context"
	"time"

	"harmwatch/internal/cache"
	"harmwatch/internal/filter"
	"harmwatch/internal/model"
	"harmwatch/internal/window"
)

// CacheStore is the read/write contract shared by the local and remote
// caches. Get returns a nil entry with a human-readable reason on a miss;
// an error means the store itself failed.
type CacheStore interface {
	Name() string
	Get(ctx context.Context, months int, w window.Window) (*cache.Entry, string, error)
	Put(ctx context.Context, months int, records []model.Complaint, retrievedAt time.Time) error
}

// APISource pages complaints out of the Search API. The bool reports
// whether the result was truncated by the record budget or offset ceiling.
type APISource interface {
	Fetch(ctx context.Context, w window.Window) ([]model.Complaint, bool, error)
}

// BulkSource streams the full CSV export, filtering as it parses.
type BulkSource interface {
	Fetch(ctx context.Context, opts filter.Options) ([]model.Complaint, error)
}

// Source names where a corpus came from.
type Source string

const (
	SourceRemoteCache Source = "remote_cache"
	SourceLocalCache  Source = "local_cache"
	SourceAPI         Source = "api"
	SourceBulk        Source = "bulk_download"
)

// Result is a resolved corpus plus its provenance. RetrievedAt is when the
// corpus was originally fetched from upstream, not when this run resolved
// it; cache backfills preserve it so staleness accumulates across tiers.
type Result struct {
	Source      Source
	Window      window.Window
	Complaints  []model.Complaint
	RetrievedAt time.Time
	Truncated   bool
}
