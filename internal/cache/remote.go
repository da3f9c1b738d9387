package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"harmwatch/internal/model"
	"harmwatch/internal/window"
)

const (
	complaintKeyPrefix = "harmwatch:complaint:"
	windowKeyPrefix    = "harmwatch:window:"

	remotePingTimeout = 5 * time.Second
)

// RemoteConfig holds remote cache connection settings.
type RemoteConfig struct {
	Addr     string
	Password string
	DB       int
}

// RemoteStore implements the cache store contract on redis. Complaints
// upsert keyed by id, so concurrent writers from different runs converge
// instead of duplicating. A per-window meta key records retrieval time and
// coverage, since per-id records alone cannot answer usability.
type RemoteStore struct {
	client    *redis.Client
	logger    *slog.Logger
	now       func() time.Time
	freshness time.Duration
	tolerance time.Duration
}

// remoteComplaint is the wire form of a cached complaint.
type remoteComplaint struct {
	model.Complaint
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRemoteStore connects to redis. A missing address means the remote
// cache is not configured and yields a nil store, which is not an error;
// so does an unreachable server, since remote cache failure must never
// abort a run.
func NewRemoteStore(cfg RemoteConfig, freshness, tolerance time.Duration) *RemoteStore {
	logger := slog.Default().With("component", "remote_cache")

	if cfg.Addr == "" {
		logger.Debug("Remote cache not configured")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), remotePingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Remote cache unreachable, continuing without it", "error", err)
		_ = client.Close()
		return nil
	}

	return &RemoteStore{
		client:    client,
		logger:    logger,
		now:       time.Now,
		freshness: freshness,
		tolerance: tolerance,
	}
}

// Name identifies the store in orchestrator logs.
func (s *RemoteStore) Name() string { return "remote cache" }

// Close releases the redis connection.
func (s *RemoteStore) Close() error {
	return s.client.Close()
}

func windowKey(months int) string {
	return fmt.Sprintf("%s%d", windowKeyPrefix, months)
}

func windowIDsKey(months int) string {
	return windowKey(months) + ":ids"
}

// Get loads the remote entry for a month-count and evaluates usability.
func (s *RemoteStore) Get(ctx context.Context, months int, w window.Window) (*Entry, string, error) {
	meta, err := s.client.HGetAll(ctx, windowKey(months)).Result()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read remote cache meta: %w", err)
	}
	if len(meta) == 0 {
		return nil, "no remote cache entry for this window size", nil
	}

	entry := &Entry{
		Months:      months,
		RetrievedAt: parseStoredTime(meta["retrieved_at"]),
		CoversMin:   parseStoredTime(meta["covers_min"]),
		CoversMax:   parseStoredTime(meta["covers_max"]),
	}

	if ok, reason := entry.Usable(w, s.freshness, s.tolerance, s.now()); !ok {
		s.logger.Info("Remote cache entry unusable", "months", months, "reason", reason)
		return nil, reason, nil
	}

	ids, err := s.client.SMembers(ctx, windowIDsKey(months)).Result()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read remote cache ids: %w", err)
	}
	if len(ids) == 0 {
		return nil, "remote cache entry has no records", nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = complaintKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read remote cached complaints: %w", err)
	}

	records := make([]model.Complaint, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // id set member whose record expired
		}
		var rc remoteComplaint
		if err := json.Unmarshal([]byte(raw), &rc); err != nil {
			s.logger.Warn("Skipping undecodable remote cache record", "error", err)
			continue
		}
		records = append(records, rc.Complaint)
	}

	// MGet order follows the unordered id set; sort for determinism.
	sort.Slice(records, func(i, j int) bool {
		if !records[i].DateReceived.Equal(records[j].DateReceived) {
			return records[i].DateReceived.Before(records[j].DateReceived)
		}
		return records[i].ID < records[j].ID
	})

	entry.Records = records
	s.logger.Info("Remote cache hit", "months", months, "records", len(records))
	return entry, "", nil
}

// Put upserts the corpus by complaint id and refreshes the window meta.
func (s *RemoteStore) Put(ctx context.Context, months int, records []model.Complaint, retrievedAt time.Time) error {
	if len(records) == 0 {
		s.logger.Debug("Skipping remote cache write for empty corpus", "months", months)
		return nil
	}

	coversMin, coversMax := coverage(records)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		ids := make([]any, 0, len(records))
		for i := range records {
			c := records[i]
			payload, err := json.Marshal(remoteComplaint{Complaint: c, UpdatedAt: retrievedAt})
			if err != nil {
				return fmt.Errorf("failed to encode complaint %s: %w", c.ID, err)
			}
			pipe.Set(ctx, complaintKeyPrefix+c.ID, payload, 0)
			ids = append(ids, c.ID)
		}

		pipe.Del(ctx, windowIDsKey(months))
		pipe.SAdd(ctx, windowIDsKey(months), ids...)
		pipe.HSet(ctx, windowKey(months), map[string]any{
			"retrieved_at": formatStoredTime(retrievedAt),
			"covers_min":   formatStoredTime(coversMin),
			"covers_max":   formatStoredTime(coversMax),
			"record_count": len(records),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write remote cache: %w", err)
	}

	s.logger.Info("Upserted corpus to remote cache", "months", months, "records", len(records))
	return nil
}
