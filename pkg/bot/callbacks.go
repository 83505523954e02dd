package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"postwatch/pkg/logger"
	"postwatch/pkg/posts"
)

// pageCallbackData encodes pagination state into callback data. The
// callback payload is the only place page position lives; there is no
// server-side pagination state.
func pageCallbackData(command, account string, index int) string {
	return fmt.Sprintf("page_%s_%s_%d", command, account, index)
}

// pageCallback is a parsed pagination callback.
type pageCallback struct {
	Command string
	Account string
	Index   int
}

// parsePageCallback decodes page_<command>_<account>_<index>. The
// account may itself contain underscores, so the command is taken from
// the first segment, the index from the last, and everything between is
// rejoined as the account.
func parsePageCallback(data string) (pageCallback, error) {
	rest := strings.TrimPrefix(data, "page_")
	parts := strings.Split(rest, "_")
	if len(parts) < 3 {
		return pageCallback{}, fmt.Errorf("malformed page callback: %q", data)
	}

	command := parts[0]
	switch command {
	case "latest", "xlatest", "iglatest":
	default:
		return pageCallback{}, fmt.Errorf("unknown command in page callback: %q", command)
	}

	index, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || index < 0 {
		return pageCallback{}, fmt.Errorf("bad page index in callback: %q", data)
	}

	account := strings.Join(parts[1:len(parts)-1], "_")
	if account == "" {
		return pageCallback{}, fmt.Errorf("empty account in page callback: %q", data)
	}

	return pageCallback{Command: command, Account: account, Index: index}, nil
}

// handleCallback dispatches one callback query. Every callback is
// acknowledged, handled or not, so the client's spinner always stops.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, log logger.Logger) {
	defer b.sender.answerCallback(cb.ID)

	if cb.Message == nil {
		log.Debug("callback without an attached message, ignoring")
		return
	}
	chatID := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(cb.Data, "page_"):
		pc, err := parsePageCallback(cb.Data)
		if err != nil {
			log.WithError(err).Debug("ignoring malformed page callback")
			return
		}
		b.handlePageFlip(ctx, chatID, cb.Message.MessageID, pc, log)

	case cb.Data == "menu_x":
		b.promptForHandle(chatID, "xlatest", posts.PlatformX)

	case cb.Data == "menu_ig":
		b.promptForHandle(chatID, "iglatest", posts.PlatformInstagram)

	case cb.Data == "menu_help":
		if _, err := b.sender.sendText(chatID, helpText(), nil); err != nil {
			log.WithError(err).Warn("failed to send help text")
		}

	default:
		log.WithField("data", cb.Data).Debug("ignoring unknown callback")
	}
}

// handlePageFlip re-fetches (served from cache while fresh), paginates
// to the requested index and edits the intro message in place. A stale
// index is safe: pagination clamps it.
func (b *Bot) handlePageFlip(ctx context.Context, chatID int64, messageID int, pc pageCallback, log logger.Logger) {
	target, err := b.targetForCommand(pc.Command, pc.Account)
	if err != nil {
		log.WithError(err).Debug("page callback named an unusable target")
		return
	}

	items, _, err := b.fetcher.Latest(ctx, target, false)
	if err != nil {
		log.WithError(err).WarnWithFields("page flip fetch failed", map[string]interface{}{
			"platform": string(target.Platform),
			"handle":   target.Handle,
		})
		return
	}

	page := posts.Paginate(items, pc.Index, b.cfg.Pagination.PageSize)

	var markup tgbotapi.InlineKeyboardMarkup
	if kb := pageKeyboard(pc.Command, target.Handle, page); kb != nil {
		markup = *kb
	}

	if err := b.sender.editText(chatID, messageID, renderPageBody(target.Handle, page), markup); err != nil {
		log.WithError(err).Debug("page flip edit failed")
	}
}
