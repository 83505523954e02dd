package bot

import (
	"context"
	"sync"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"postwatch/internal/dispatch"
	"postwatch/pkg/config"
	"postwatch/pkg/fetcher"
	"postwatch/pkg/logger"
	"postwatch/pkg/posts"
)

// PostFetcher is the orchestrator surface the controller consumes.
type PostFetcher interface {
	Latest(ctx context.Context, target posts.Target, force bool) ([]posts.Post, fetcher.Source, error)
}

// Bot is the conversation controller: it receives updates, routes them
// through per-chat queues and turns commands into paginated post
// deliveries.
type Bot struct {
	cfg        *config.Config
	api        API
	sender     *Sender
	fetcher    PostFetcher
	scheduler  *Scheduler
	dispatcher *dispatch.Dispatcher
	logger     logger.Logger

	promptMu sync.Mutex
	prompts  map[int64]pendingPrompt

	force atomic.Bool
}

// New wires a Bot. The cleanup scheduler is built here so it deletes
// through the same paced sender; its run loop is started by Run.
func New(cfg *config.Config, api API, postFetcher PostFetcher, obligations ObligationStore, dispatcher *dispatch.Dispatcher, log logger.Logger) *Bot {
	if log == nil {
		log = logger.GetLogger()
	}

	sender := NewSender(api, cfg.Telegram.SendPacing, cfg.Telegram.LinkPreview, log)

	return &Bot{
		cfg:        cfg,
		api:        api,
		sender:     sender,
		fetcher:    postFetcher,
		scheduler:  NewScheduler(obligations, sender, cfg.Cleanup.SweepInterval, log),
		dispatcher: dispatcher,
		logger:     log,
		prompts:    make(map[int64]pendingPrompt),
	}
}

// Run polls for updates until the context is cancelled. It registers
// the command list, starts the cleanup scheduler, and hands every
// update to the per-chat dispatcher.
func (b *Bot) Run(ctx context.Context) error {
	b.registerCommands()

	go b.scheduler.Run(ctx)

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = int(b.cfg.Telegram.PollTimeout.Seconds())
	updateCfg.AllowedUpdates = []string{"message", "callback_query"}

	updates := b.api.GetUpdatesChan(updateCfg)
	if b.cfg.Telegram.DropPendingUpdates {
		updates.Clear()
	}

	b.logger.Info("bot started, polling for updates")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.dispatcher.Stop()
			b.logger.Info("bot stopped")
			return nil

		case update, ok := <-updates:
			if !ok {
				b.dispatcher.Stop()
				return nil
			}
			b.dispatchUpdate(update)
		}
	}
}

// dispatchUpdate queues one update onto its chat's FIFO queue. Each
// update carries a correlation id so its fetch, sends and cleanup
// registrations share one trace.
func (b *Bot) dispatchUpdate(update tgbotapi.Update) {
	chatID, ok := chatIDFor(update)
	if !ok {
		return
	}

	log := b.logger.WithFields(map[string]interface{}{
		"correlation_id": uuid.NewString(),
		"chat_id":        chatID,
	})

	err := b.dispatcher.Submit(chatID, func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.ErrorWithFields("update handler panicked", map[string]interface{}{
					"panic": r,
				})
			}
		}()
		b.handleUpdate(ctx, update, log)
	})
	if err != nil {
		log.WithError(err).Warn("update dropped")
	}
}

// handleUpdate routes one update to its handler.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update, log logger.Logger) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery, log)

	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message, log)

	case update.Message != nil && update.Message.Text != "":
		b.handleText(ctx, update.Message, log)
	}
}

// registerCommands publishes the command list to Telegram clients.
func (b *Bot) registerCommands() {
	commands := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "latest", Description: "Latest posts from a profile"},
		tgbotapi.BotCommand{Command: "xlatest", Description: "Latest posts from an X profile"},
		tgbotapi.BotCommand{Command: "iglatest", Description: "Latest posts from an Instagram profile"},
		tgbotapi.BotCommand{Command: "menu", Description: "Platform menu"},
		tgbotapi.BotCommand{Command: "forcemode", Description: "Toggle forced refresh"},
		tgbotapi.BotCommand{Command: "help", Description: "Usage help"},
	)

	if _, err := b.api.Request(commands); err != nil {
		b.logger.WithError(err).Warn("failed to register bot commands")
	}
}

// forceMode reports whether forced refresh is on.
func (b *Bot) forceMode() bool {
	return b.force.Load()
}

// toggleForceMode flips the process-wide forced refresh flag and
// returns the new state.
func (b *Bot) toggleForceMode() bool {
	for {
		old := b.force.Load()
		if b.force.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// chatIDFor extracts the chat an update belongs to.
func chatIDFor(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.Message != nil:
		return update.Message.Chat.ID, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		return update.CallbackQuery.Message.Chat.ID, true
	}
	return 0, false
}
