package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"postwatch/pkg/logger"
)

func TestPerChatFIFOOrdering(t *testing.T) {
	d := New(64, time.Minute, logger.NewTestLogger())
	defer d.Stop()

	var mu sync.Mutex
	seen := make(map[int64][]int)

	const chats = 4
	const jobsPerChat = 25

	for i := 0; i < jobsPerChat; i++ {
		for chat := int64(0); chat < chats; chat++ {
			chat, i := chat, i
			err := d.Submit(chat, func(ctx context.Context) {
				mu.Lock()
				seen[chat] = append(seen[chat], i)
				mu.Unlock()
			})
			if err != nil {
				t.Fatalf("submit failed: %v", err)
			}
		}
	}

	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	for chat := int64(0); chat < chats; chat++ {
		order := seen[chat]
		if len(order) != jobsPerChat {
			t.Fatalf("chat %d: expected %d jobs, got %d", chat, jobsPerChat, len(order))
		}
		for i, got := range order {
			if got != i {
				t.Errorf("chat %d: job %d ran out of order (got %d)", chat, i, got)
			}
		}
	}
}

func TestChatsRunConcurrently(t *testing.T) {
	d := New(4, time.Minute, logger.NewTestLogger())
	defer d.Stop()

	// The first chat blocks until the second chat's job has run. If
	// chats were serialized on one goroutine this would deadlock.
	release := make(chan struct{})
	done := make(chan struct{})

	if err := d.Submit(1, func(ctx context.Context) {
		select {
		case <-release:
		case <-time.After(5 * time.Second):
			t.Error("chat 1 was never released, chats are not concurrent")
		}
		close(done)
	}); err != nil {
		t.Fatal(err)
	}

	if err := d.Submit(2, func(ctx context.Context) {
		close(release)
	}); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("jobs did not complete")
	}
}

func TestQueueFullDropsJob(t *testing.T) {
	d := New(1, time.Minute, logger.NewTestLogger())
	defer d.Stop()

	block := make(chan struct{})
	defer close(block)

	// Occupy the drain goroutine, then fill the single queue slot.
	if err := d.Submit(1, func(ctx context.Context) { <-block }); err != nil {
		t.Fatal(err)
	}

	// The running job may or may not have been picked up yet; keep
	// submitting until the queue reports full.
	var dropped bool
	for i := 0; i < 3; i++ {
		if err := d.Submit(1, func(ctx context.Context) {}); err != nil {
			dropped = true
			break
		}
	}

	if !dropped {
		t.Error("expected a submission to be dropped once the queue filled")
	}
}

func TestSubmitAfterStop(t *testing.T) {
	d := New(4, time.Minute, logger.NewTestLogger())
	d.Stop()

	if err := d.Submit(1, func(ctx context.Context) {}); err == nil {
		t.Error("expected an error submitting after Stop")
	}
}

func TestStopDrainsPendingJobs(t *testing.T) {
	d := New(16, time.Minute, logger.NewTestLogger())

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 10; i++ {
		if err := d.Submit(1, func(ctx context.Context) {
			mu.Lock()
			ran++
			mu.Unlock()
		}); err != nil {
			t.Fatal(err)
		}
	}

	d.Stop()

	mu.Lock()
	defer mu.Unlock()
	if ran != 10 {
		t.Errorf("expected all 10 queued jobs to run before Stop returned, got %d", ran)
	}
}

func TestIdleQueueReaped(t *testing.T) {
	d := New(4, 20*time.Millisecond, logger.NewTestLogger())
	defer d.Stop()

	done := make(chan struct{})
	if err := d.Submit(1, func(ctx context.Context) { close(done) }); err != nil {
		t.Fatal(err)
	}
	<-done

	deadline := time.After(2 * time.Second)
	for d.ActiveChats() != 0 {
		select {
		case <-deadline:
			t.Fatal("idle chat queue was never reaped")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// A reaped chat accepts new work on a fresh queue.
	again := make(chan struct{})
	if err := d.Submit(1, func(ctx context.Context) { close(again) }); err != nil {
		t.Fatal(err)
	}
	select {
	case <-again:
	case <-time.After(2 * time.Second):
		t.Fatal("job submitted after reap never ran")
	}
}
