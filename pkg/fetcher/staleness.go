package fetcher

import (
	"time"

	"postwatch/pkg/posts"
)

// Staleness is the outcome of the cache freshness decision
type Staleness int

const (
	// StateUnknown means no cached snapshot exists; a live fetch is required
	StateUnknown Staleness = iota
	// StateStale means the snapshot is too old or a refresh was forced
	StateStale
	// StateFresh means the cached snapshot can be served as-is
	StateFresh
)

// String returns the staleness state name
func (s Staleness) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateStale:
		return "stale"
	case StateFresh:
		return "fresh"
	default:
		return "invalid"
	}
}

// Decide determines whether a cached snapshot can be served. It is a
// pure function over its inputs: the caller performs the cache read and
// passes the result in. A nil snapshot means no cache entry exists.
// The snapshot's fingerprint stays available to the caller for an
// optional unchanged-content short-circuit after a live fetch.
func Decide(snapshot *posts.Snapshot, now time.Time, window time.Duration, force bool) Staleness {
	if snapshot == nil {
		return StateUnknown
	}
	if force {
		return StateStale
	}
	if now.Sub(snapshot.FetchedAt) > window {
		return StateStale
	}
	return StateFresh
}
