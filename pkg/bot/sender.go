package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	errs "postwatch/pkg/errors"
	"postwatch/pkg/logger"
	"postwatch/pkg/posts"
)

// API is the slice of the Telegram client the bot consumes. Tests
// substitute a fake.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Sender wraps the Telegram API with pacing, HTML formatting and the
// rich-media fallback chain.
type Sender struct {
	api         API
	pacing      time.Duration
	linkPreview bool
	logger      logger.Logger
}

// NewSender creates a Sender.
func NewSender(api API, pacing time.Duration, linkPreview bool, log logger.Logger) *Sender {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Sender{
		api:         api,
		pacing:      pacing,
		linkPreview: linkPreview,
		logger:      log,
	}
}

// sendText sends an HTML-formatted text message and returns its id.
func (s *Sender) sendText(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = !s.linkPreview
	if markup != nil {
		msg.ReplyMarkup = *markup
	}

	sent, err := s.api.Send(msg)
	if err != nil {
		return 0, errs.NewSend("failed to send message: " + err.Error())
	}
	return sent.MessageID, nil
}

// sendPost delivers one post, degrading from rich media to a document
// and finally to a plain text link. The chain itself never surfaces an
// error: a post that cannot be delivered at all is logged and skipped.
// The second return value reports whether anything was sent.
func (s *Sender) sendPost(chatID int64, post posts.Post) (int, bool) {
	if post.HasMedia() {
		if id, err := s.sendMedia(chatID, post); err == nil {
			return id, true
		} else {
			s.logger.DebugWithFields("rich media send failed, falling back to text", map[string]interface{}{
				"chat_id":   chatID,
				"post_id":   post.ID,
				"media_url": post.MediaURL,
				"error":     err.Error(),
			})
		}
	}

	id, err := s.sendText(chatID, renderPostText(post, post.HasMedia()), nil)
	if err != nil {
		// Last resort failed too; there is nothing further to degrade to.
		s.logger.ErrorWithFields("text fallback send failed, skipping post", map[string]interface{}{
			"chat_id": chatID,
			"post_id": post.ID,
			"error":   err.Error(),
		})
		return 0, false
	}
	return id, true
}

// sendMedia tries photo or video first, then a document upload.
func (s *Sender) sendMedia(chatID int64, post posts.Post) (int, error) {
	caption := renderCaption(post)

	var rich tgbotapi.Chattable
	if post.IsVideo {
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(post.MediaURL))
		video.Caption = caption
		video.ParseMode = tgbotapi.ModeHTML
		rich = video
	} else {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(post.MediaURL))
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeHTML
		rich = photo
	}

	sent, err := s.api.Send(rich)
	if err == nil {
		return sent.MessageID, nil
	}

	s.logger.DebugWithFields("media send failed, trying document", map[string]interface{}{
		"chat_id": chatID,
		"post_id": post.ID,
		"error":   err.Error(),
	})

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileURL(post.MediaURL))
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeHTML

	sent, err = s.api.Send(doc)
	if err != nil {
		return 0, errs.NewSend("failed to send media: " + err.Error())
	}
	return sent.MessageID, nil
}

// editText rewrites a previously sent message in place.
func (s *Sender) editText(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = !s.linkPreview

	if _, err := s.api.Send(edit); err != nil {
		return errs.NewSend("failed to edit message: " + err.Error())
	}
	return nil
}

// deleteMessage removes a previously sent message.
func (s *Sender) deleteMessage(chatID int64, messageID int) error {
	if _, err := s.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return errs.NewDelete("failed to delete message: " + err.Error())
	}
	return nil
}

// answerCallback acknowledges a callback query so the client stops its
// loading spinner.
func (s *Sender) answerCallback(callbackID string) {
	if _, err := s.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		s.logger.DebugWithFields("callback acknowledgement failed", map[string]interface{}{
			"callback_id": callbackID,
			"error":       err.Error(),
		})
	}
}

// pace waits the configured delay between successive sends, giving up
// early when the context is cancelled.
func (s *Sender) pace(ctx context.Context) {
	if s.pacing <= 0 {
		return
	}

	timer := time.NewTimer(s.pacing)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
