package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postwatch/pkg/logger"
)

func TestScheduleRecordsObligation(t *testing.T) {
	obligations := &memObligations{}
	api := &fakeAPI{}
	s := NewScheduler(obligations, NewSender(api, 0, true, logger.NewTestLogger()), time.Minute, logger.NewTestLogger())

	before := time.Now()
	require.NoError(t, s.Schedule(context.Background(), 42, 7, time.Hour))

	require.Equal(t, 1, obligations.count())
	pd := obligations.rows[0]
	assert.NotEmpty(t, pd.ID)
	assert.Equal(t, int64(42), pd.ChatID)
	assert.Equal(t, 7, pd.MessageID)
	assert.WithinDuration(t, before.Add(time.Hour), pd.FireAt, 5*time.Second)
}

func TestScheduleUniqueIDs(t *testing.T) {
	obligations := &memObligations{}
	api := &fakeAPI{}
	s := NewScheduler(obligations, NewSender(api, 0, true, logger.NewTestLogger()), time.Minute, logger.NewTestLogger())

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Schedule(context.Background(), 1, i, time.Hour))
	}

	seen := make(map[string]bool)
	for _, pd := range obligations.rows {
		assert.False(t, seen[pd.ID], "obligation ids must be unique")
		seen[pd.ID] = true
	}
}

func TestSweepDeletesDueMessages(t *testing.T) {
	obligations := &memObligations{}
	api := &fakeAPI{}
	sender := NewSender(api, 0, true, logger.NewTestLogger())
	s := NewScheduler(obligations, sender, time.Minute, logger.NewTestLogger())
	ctx := context.Background()

	require.NoError(t, s.Schedule(ctx, 42, 7, -time.Minute)) // already due
	require.NoError(t, s.Schedule(ctx, 42, 8, 24*time.Hour)) // not yet

	s.Sweep(ctx)

	// One delete request went out, for the due message only.
	require.Len(t, api.requests, 1)
	del, ok := api.requests[0].(tgbotapi.DeleteMessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), del.ChatID)
	assert.Equal(t, 7, del.MessageID)

	assert.Equal(t, 1, obligations.count(), "the future obligation is untouched")
}

func TestSweepDischargesOnDeleteFailure(t *testing.T) {
	obligations := &memObligations{}
	api := &fakeAPI{deleteErr: errors.New("message to delete not found")}
	sender := NewSender(api, 0, true, logger.NewTestLogger())
	s := NewScheduler(obligations, sender, time.Minute, logger.NewTestLogger())
	ctx := context.Background()

	require.NoError(t, s.Schedule(ctx, 42, 7, -time.Minute))

	s.Sweep(ctx)

	assert.Equal(t, 0, obligations.count(), "a failed delete still discharges the obligation")

	// A second sweep finds nothing to retry.
	api.requests = nil
	s.Sweep(ctx)
	assert.Empty(t, api.requests)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	obligations := &memObligations{}
	api := &fakeAPI{}
	sender := NewSender(api, 0, true, logger.NewTestLogger())
	s := NewScheduler(obligations, sender, 10*time.Millisecond, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}

func TestRunSweepsPeriodically(t *testing.T) {
	obligations := &memObligations{}
	api := &fakeAPI{}
	sender := NewSender(api, 0, true, logger.NewTestLogger())
	s := NewScheduler(obligations, sender, 10*time.Millisecond, logger.NewTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Schedule(ctx, 42, 7, -time.Minute))

	go s.Run(ctx)

	deadline := time.After(2 * time.Second)
	for obligations.count() != 0 {
		select {
		case <-deadline:
			t.Fatal("due obligation was never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
