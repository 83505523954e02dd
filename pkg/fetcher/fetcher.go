package fetcher

import (
	"context"
	"fmt"
	"time"

	"postwatch/pkg/logger"
	"postwatch/pkg/posts"
)

// Provider fetches and normalizes the latest public posts for a handle
// on one platform. Implementations own their retry policy; the
// orchestrator never retries.
type Provider interface {
	Platform() posts.Platform
	FetchLatest(ctx context.Context, handle string, limit int) ([]posts.Post, error)
}

// SnapshotStore is the cache interface consumed by the orchestrator.
// GetSnapshot returns (nil, nil) when no snapshot exists for the target.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, target posts.Target) (*posts.Snapshot, error)
	ReplaceSnapshot(ctx context.Context, snapshot *posts.Snapshot) error
}

// Source indicates where a fetch result came from
type Source string

const (
	SourceCache Source = "cache"
	SourceLive  Source = "live"
)

// Fetcher orchestrates the cache-or-live decision for post fetches:
// read cache, decide staleness, optionally call the provider, write
// the new snapshot back, return the posts.
type Fetcher struct {
	providers map[posts.Platform]Provider
	store     SnapshotStore
	window    time.Duration
	postLimit int
	logger    logger.Logger
	now       func() time.Time
}

// Options configures a Fetcher
type Options struct {
	// FreshnessWindow is how long a snapshot stays servable without a live fetch
	FreshnessWindow time.Duration
	// PostLimit is the number of posts requested from providers per fetch
	PostLimit int
	// Now overrides the clock, for tests
	Now func() time.Time
	// Logger for fetch decisions
	Logger logger.Logger
}

// New creates a Fetcher over the given providers and snapshot store
func New(providers []Provider, store SnapshotStore, opts Options) *Fetcher {
	byPlatform := make(map[posts.Platform]Provider, len(providers))
	for _, p := range providers {
		byPlatform[p.Platform()] = p
	}

	if opts.FreshnessWindow <= 0 {
		opts.FreshnessWindow = 24 * time.Hour
	}
	if opts.PostLimit <= 0 {
		opts.PostLimit = 10
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}

	return &Fetcher{
		providers: byPlatform,
		store:     store,
		window:    opts.FreshnessWindow,
		postLimit: opts.PostLimit,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

// Latest returns the newest-first post sequence for the target, serving
// the cached snapshot when it is fresh and fetching live otherwise.
// A single call makes at most one provider call. An empty result with a
// nil error means the profile legitimately has no public posts.
func (f *Fetcher) Latest(ctx context.Context, target posts.Target, force bool) ([]posts.Post, Source, error) {
	provider, ok := f.providers[target.Platform]
	if !ok {
		return nil, "", fmt.Errorf("no provider registered for platform %q", target.Platform)
	}

	cached, err := f.store.GetSnapshot(ctx, target)
	if err != nil {
		// A broken cache read degrades to a live fetch, it never blocks one
		f.logger.WarnWithFields("cache read failed, fetching live", map[string]interface{}{
			"platform": string(target.Platform),
			"handle":   target.Handle,
			"error":    err.Error(),
		})
		cached = nil
	}

	now := f.now()
	state := Decide(cached, now, f.window, force)

	f.logger.DebugWithFields("staleness decision", map[string]interface{}{
		"platform": string(target.Platform),
		"handle":   target.Handle,
		"state":    state.String(),
		"forced":   force,
	})

	if state == StateFresh {
		return cached.Posts, SourceCache, nil
	}

	items, err := provider.FetchLatest(ctx, target.Handle, f.postLimit)
	if err != nil {
		return nil, "", err
	}

	// An empty result is cached too, so the freshness window also damps
	// repeat queries for profiles with nothing public.
	snapshot := posts.NewSnapshot(target, now, items)

	if cached != nil && cached.Fingerprint != "" && cached.Fingerprint == snapshot.Fingerprint {
		f.logger.DebugWithFields("fingerprint unchanged since last fetch", map[string]interface{}{
			"platform":    string(target.Platform),
			"handle":      target.Handle,
			"fingerprint": snapshot.Fingerprint,
		})
	}

	if err := f.store.ReplaceSnapshot(ctx, snapshot); err != nil {
		// Caching is an optimization, not a gate: the fetched posts are
		// still returned when the write fails.
		f.logger.WarnWithFields("cache write failed", map[string]interface{}{
			"platform": string(target.Platform),
			"handle":   target.Handle,
			"error":    err.Error(),
		})
	}

	f.logger.InfoWithFields("fetched latest posts", map[string]interface{}{
		"platform": string(target.Platform),
		"handle":   target.Handle,
		"count":    len(items),
	})

	return items, SourceLive, nil
}

// Platforms returns the platforms with a registered provider
func (f *Fetcher) Platforms() []posts.Platform {
	out := make([]posts.Platform, 0, len(f.providers))
	for p := range f.providers {
		out = append(out, p)
	}
	return out
}
