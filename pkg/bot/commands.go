package bot

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"postwatch/pkg/logger"
	"postwatch/pkg/posts"
)

// pendingPrompt is a chat waiting to send us a handle. Entries expire
// after the configured prompt timeout; expiry is enforced lazily when
// the next message from the chat arrives.
type pendingPrompt struct {
	command   string
	expiresAt time.Time
}

// handleCommand dispatches one slash command.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, log logger.Logger) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		markup := mainMenuKeyboard()
		if _, err := b.sender.sendText(chatID, welcomeText(), &markup); err != nil {
			log.WithError(err).Warn("failed to send welcome")
		}

	case "menu":
		markup := mainMenuKeyboard()
		if _, err := b.sender.sendText(chatID, "What would you like to see?", &markup); err != nil {
			log.WithError(err).Warn("failed to send menu")
		}

	case "help":
		if _, err := b.sender.sendText(chatID, helpText(), nil); err != nil {
			log.WithError(err).Warn("failed to send help")
		}

	case "latest", "xlatest", "iglatest":
		b.handleLatest(ctx, chatID, msg.Command(), msg.CommandArguments(), log)

	case "forcemode":
		on := b.toggleForceMode()
		text := "♻️ Forced refresh is now OFF. Cached posts are served while fresh."
		if on {
			text = "♻️ Forced refresh is now ON. Every request fetches live."
		}
		if _, err := b.sender.sendText(chatID, text, nil); err != nil {
			log.WithError(err).Warn("failed to send forcemode reply")
		}

	default:
		if _, err := b.sender.sendText(chatID, "Unknown command. Try /help.", nil); err != nil {
			log.WithError(err).Warn("failed to send unknown-command reply")
		}
	}
}

// handleLatest runs one latest-posts request. With no argument the chat
// is prompted and the next plain-text message is consumed as the handle.
func (b *Bot) handleLatest(ctx context.Context, chatID int64, command, arg string, log logger.Logger) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		platform := b.platformForCommand(command)
		b.promptForHandle(chatID, command, platform)
		return
	}

	target, err := b.targetForCommand(command, arg)
	if err != nil {
		if _, sendErr := b.sender.sendText(chatID,
			"I couldn't make sense of that handle. Send a name like <code>nasa</code> or a profile link.", nil); sendErr != nil {
			log.WithError(sendErr).Warn("failed to send handle error")
		}
		return
	}

	b.deliver(ctx, chatID, command, target, log)
}

// handleText consumes a plain-text message as the handle a prompt asked
// for. Texts from chats with no live prompt are ignored.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message, log logger.Logger) {
	chatID := msg.Chat.ID

	b.promptMu.Lock()
	prompt, ok := b.prompts[chatID]
	if ok {
		delete(b.prompts, chatID)
	}
	b.promptMu.Unlock()

	if !ok {
		return
	}
	if time.Now().After(prompt.expiresAt) {
		log.WithField("chat_id", chatID).Debug("prompt expired before a handle arrived")
		return
	}

	b.handleLatest(ctx, chatID, prompt.command, msg.Text, log)
}

// promptForHandle puts the chat into the awaiting-handle state.
func (b *Bot) promptForHandle(chatID int64, command string, platform posts.Platform) {
	b.promptMu.Lock()
	b.prompts[chatID] = pendingPrompt{
		command:   command,
		expiresAt: time.Now().Add(b.cfg.Telegram.PromptTimeout),
	}
	b.promptMu.Unlock()

	label := "profile"
	switch platform {
	case posts.PlatformX:
		label = "X profile"
	case posts.PlatformInstagram:
		label = "Instagram profile"
	}

	text := fmt.Sprintf("Which %s? Send a handle like <code>nasa</code> or a profile link.", label)
	if _, err := b.sender.sendText(chatID, text, nil); err != nil {
		b.logger.WithError(err).Warn("failed to send handle prompt")
	}
}

// deliver fetches, paginates and sends the first page, registering
// every sent message with the cleanup scheduler.
func (b *Bot) deliver(ctx context.Context, chatID int64, command string, target posts.Target, log logger.Logger) {
	items, source, err := b.fetcher.Latest(ctx, target, b.forceMode())
	if err != nil {
		log.WithError(err).WarnWithFields("fetch failed", map[string]interface{}{
			"platform": string(target.Platform),
			"handle":   target.Handle,
		})
		if _, sendErr := b.sender.sendText(chatID,
			fmt.Sprintf("Couldn't fetch posts for @%s right now. Please try again later.", target.Handle), nil); sendErr != nil {
			log.WithError(sendErr).Warn("failed to send fetch-failure notice")
		}
		return
	}

	if len(items) == 0 {
		if _, sendErr := b.sender.sendText(chatID,
			fmt.Sprintf("No posts found for @%s.", target.Handle), nil); sendErr != nil {
			log.WithError(sendErr).Warn("failed to send empty-result notice")
		}
		return
	}

	log.DebugWithFields("delivering posts", map[string]interface{}{
		"platform": string(target.Platform),
		"handle":   target.Handle,
		"count":    len(items),
		"source":   string(source),
	})

	page := posts.Paginate(items, 0, b.cfg.Pagination.PageSize)

	introID, err := b.sender.sendText(chatID, renderIntro(target.Handle, page), pageKeyboard(command, target.Handle, page))
	if err != nil {
		log.WithError(err).Warn("failed to send page intro")
		return
	}
	b.scheduleCleanup(ctx, chatID, introID, log)

	for _, post := range page.Posts {
		b.sender.pace(ctx)
		if id, sent := b.sender.sendPost(chatID, post); sent {
			b.scheduleCleanup(ctx, chatID, id, log)
		}
	}
}

// scheduleCleanup registers a sent message for deferred deletion. A
// failed registration only means the message outlives its welcome.
func (b *Bot) scheduleCleanup(ctx context.Context, chatID int64, messageID int, log logger.Logger) {
	if err := b.scheduler.Schedule(ctx, chatID, messageID, b.cfg.Cleanup.Delay); err != nil {
		log.WithError(err).WarnWithFields("failed to schedule cleanup", map[string]interface{}{
			"chat_id":    chatID,
			"message_id": messageID,
		})
	}
}

// targetForCommand resolves the platform for a command and builds the
// normalized target.
func (b *Bot) targetForCommand(command, input string) (posts.Target, error) {
	var platform posts.Platform
	switch command {
	case "xlatest":
		platform = posts.PlatformX
	case "iglatest":
		platform = posts.PlatformInstagram
	default:
		platform = classifyPlatform(input, b.platformForCommand("latest"))
	}

	target := posts.NewTarget(platform, input)
	if target.Handle == "" {
		return posts.Target{}, fmt.Errorf("no usable handle in %q", input)
	}
	return target, nil
}

// platformForCommand returns the explicit platform for the platform
// commands and the configured default otherwise.
func (b *Bot) platformForCommand(command string) posts.Platform {
	switch command {
	case "xlatest":
		return posts.PlatformX
	case "iglatest":
		return posts.PlatformInstagram
	}
	if p, err := posts.ParsePlatform(b.cfg.Telegram.DefaultPlatform); err == nil {
		return p
	}
	return posts.PlatformX
}

// classifyPlatform picks a platform for free-form input: profile URLs
// are classified by host, bare handles fall back to the default.
func classifyPlatform(input string, fallback posts.Platform) posts.Platform {
	s := strings.TrimSpace(input)
	if !strings.Contains(s, "://") && strings.Contains(s, ".") && strings.Contains(s, "/") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return fallback
	}

	host := strings.ToLower(strings.TrimPrefix(u.Host, "www."))
	switch {
	case host == "instagram.com" || strings.HasSuffix(host, ".instagram.com"):
		return posts.PlatformInstagram
	case host == "x.com" || host == "twitter.com" || strings.HasSuffix(host, ".twitter.com"):
		return posts.PlatformX
	}
	return fallback
}
