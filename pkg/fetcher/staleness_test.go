package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"postwatch/pkg/posts"
)

func TestDecideUnknownWithoutSnapshot(t *testing.T) {
	state := Decide(nil, time.Now(), 30*time.Minute, false)
	assert.Equal(t, StateUnknown, state)

	// Force does not change an absent snapshot
	state = Decide(nil, time.Now(), 30*time.Minute, true)
	assert.Equal(t, StateUnknown, state)
}

func TestDecideFreshWithinWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snapshot := &posts.Snapshot{FetchedAt: now.Add(-10 * time.Minute)}

	state := Decide(snapshot, now, 30*time.Minute, false)
	assert.Equal(t, StateFresh, state)
}

func TestDecideStaleBeyondWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snapshot := &posts.Snapshot{FetchedAt: now.Add(-31 * time.Minute)}

	state := Decide(snapshot, now, 30*time.Minute, false)
	assert.Equal(t, StateStale, state)
}

func TestDecideStaleWhenForced(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snapshot := &posts.Snapshot{FetchedAt: now.Add(-time.Minute)}

	state := Decide(snapshot, now, 30*time.Minute, true)
	assert.Equal(t, StateStale, state)
}

func TestDecideBoundary(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Exactly at the window edge is still fresh; only strictly older is stale
	exactly := &posts.Snapshot{FetchedAt: now.Add(-30 * time.Minute)}
	assert.Equal(t, StateFresh, Decide(exactly, now, 30*time.Minute, false))

	justOver := &posts.Snapshot{FetchedAt: now.Add(-30*time.Minute - time.Nanosecond)}
	assert.Equal(t, StateStale, Decide(justOver, now, 30*time.Minute, false))
}

func TestStalenessString(t *testing.T) {
	assert.Equal(t, "unknown", StateUnknown.String())
	assert.Equal(t, "stale", StateStale.String())
	assert.Equal(t, "fresh", StateFresh.String())
	assert.Equal(t, "invalid", Staleness(99).String())
}
