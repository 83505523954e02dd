package bot

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"postwatch/pkg/logger"
	"postwatch/pkg/storage"
)

// sweepBatchSize caps how many due obligations one sweep processes
const sweepBatchSize = 100

// ObligationStore is the slice of the store the scheduler needs.
type ObligationStore interface {
	AddPendingDeletion(ctx context.Context, pd storage.PendingDeletion) error
	DuePendingDeletions(ctx context.Context, now time.Time, limit int) ([]storage.PendingDeletion, error)
	RemovePendingDeletion(ctx context.Context, id string) error
}

// MessageDeleter deletes a previously sent chat message.
type MessageDeleter interface {
	deleteMessage(chatID int64, messageID int) error
}

// Scheduler persists message deletion obligations and fires them when
// due. Obligations live in the store, so they survive restarts; a fire
// attempt discharges the obligation whether or not the delete succeeds.
type Scheduler struct {
	store    ObligationStore
	deleter  MessageDeleter
	interval time.Duration
	now      func() time.Time
	logger   logger.Logger
}

// NewScheduler creates a scheduler sweeping at the given interval.
func NewScheduler(store ObligationStore, deleter MessageDeleter, interval time.Duration, log logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scheduler{
		store:    store,
		deleter:  deleter,
		interval: interval,
		now:      time.Now,
		logger:   log,
	}
}

// Schedule records an obligation to delete the message after delay.
func (s *Scheduler) Schedule(ctx context.Context, chatID int64, messageID int, delay time.Duration) error {
	pd := storage.PendingDeletion{
		ID:        ulid.Make().String(),
		ChatID:    chatID,
		MessageID: messageID,
		FireAt:    s.now().Add(delay),
	}

	if err := s.store.AddPendingDeletion(ctx, pd); err != nil {
		return err
	}

	s.logger.DebugWithFields("cleanup scheduled", map[string]interface{}{
		"obligation_id": pd.ID,
		"chat_id":       chatID,
		"message_id":    messageID,
		"fire_at":       pd.FireAt,
	})
	return nil
}

// Run sweeps until the context is cancelled. An initial sweep picks up
// obligations that came due while the process was down.
func (s *Scheduler) Run(ctx context.Context) {
	s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep fires every due obligation once. Deletion failures are expected
// (message already gone, permissions revoked) and are never retried:
// the row is removed regardless of the outcome.
func (s *Scheduler) Sweep(ctx context.Context) {
	due, err := s.store.DuePendingDeletions(ctx, s.now(), sweepBatchSize)
	if err != nil {
		s.logger.WarnWithFields("failed to load due deletions", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for _, pd := range due {
		if err := s.deleter.deleteMessage(pd.ChatID, pd.MessageID); err != nil {
			s.logger.DebugWithFields("message deletion failed, discharging anyway", map[string]interface{}{
				"obligation_id": pd.ID,
				"chat_id":       pd.ChatID,
				"message_id":    pd.MessageID,
				"error":         err.Error(),
			})
		}

		if err := s.store.RemovePendingDeletion(ctx, pd.ID); err != nil {
			s.logger.WarnWithFields("failed to discharge deletion obligation", map[string]interface{}{
				"obligation_id": pd.ID,
				"error":         err.Error(),
			})
		}
	}
}
