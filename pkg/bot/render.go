package bot

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"postwatch/pkg/posts"
)

// captionLimit keeps rendered captions comfortably inside Telegram's
// media caption cap.
const captionLimit = 900

// renderIntro builds the header message for a delivered page.
func renderIntro(handle string, page posts.Page) string {
	if page.TotalPages <= 1 {
		return fmt.Sprintf("📬 Latest posts from <b>@%s</b>", html.EscapeString(handle))
	}
	return fmt.Sprintf("📬 Latest posts from <b>@%s</b> (page %d of %d)",
		html.EscapeString(handle), page.Index+1, page.TotalPages)
}

// renderPageBody builds the compact post list used when a page flip
// edits the intro message in place.
func renderPageBody(handle string, page posts.Page) string {
	var b strings.Builder
	b.WriteString(renderIntro(handle, page))

	for _, post := range page.Posts {
		b.WriteString("\n\n")
		caption := strings.TrimSpace(post.Caption)
		if caption == "" {
			caption = "(no caption)"
		}
		b.WriteString(html.EscapeString(truncate(caption, 120)))
		b.WriteString(fmt.Sprintf("\n<a href=%q>View post</a>", post.URL))
	}

	return b.String()
}

// renderCaption builds the HTML caption attached to a media send.
func renderCaption(post posts.Post) string {
	caption := html.EscapeString(truncate(strings.TrimSpace(post.Caption), captionLimit))
	link := fmt.Sprintf("<a href=%q>View post</a>", post.URL)
	if caption == "" {
		return link
	}
	return caption + "\n\n" + link
}

// renderPostText builds the plain-text rendition of a post, used for
// text-only posts and as the rich-media fallback.
func renderPostText(post posts.Post, mediaFallback bool) string {
	var b strings.Builder

	if caption := strings.TrimSpace(post.Caption); caption != "" {
		b.WriteString(html.EscapeString(truncate(caption, captionLimit)))
		b.WriteString("\n\n")
	}

	if mediaFallback && post.MediaURL != "" {
		b.WriteString(fmt.Sprintf("🔗 <a href=%q>View original media</a>\n", post.MediaURL))
	}

	b.WriteString(fmt.Sprintf("<a href=%q>View post</a>", post.URL))
	return b.String()
}

// pageKeyboard builds the Prev/Next row for a page, omitting buttons
// that have nowhere to go. Returns nil when no navigation applies.
func pageKeyboard(command, account string, page posts.Page) *tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton

	if page.HasPrevious {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
			"⬅️ Prev", pageCallbackData(command, account, page.Index-1)))
	}
	if page.HasNext {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
			"Next ➡️", pageCallbackData(command, account, page.Index+1)))
	}

	if len(buttons) == 0 {
		return nil
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...))
	return &markup
}

// mainMenuKeyboard builds the /start and /menu inline keyboard.
func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🐦 X posts", "menu_x"),
			tgbotapi.NewInlineKeyboardButtonData("📷 Instagram posts", "menu_ig"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", "menu_help"),
		),
	)
}

func welcomeText() string {
	return "👋 Hi! I fetch the latest public posts from X and Instagram profiles.\n\n" +
		"Pick a platform below, or use /latest, /xlatest or /iglatest with a handle."
}

func helpText() string {
	return "<b>Commands</b>\n\n" +
		"/latest &lt;handle&gt; - latest posts, platform guessed from the input\n" +
		"/xlatest &lt;handle&gt; - latest posts from X\n" +
		"/iglatest &lt;handle&gt; - latest posts from Instagram\n" +
		"/menu - platform menu\n" +
		"/forcemode - toggle forced refresh (skips the cache)\n\n" +
		"Handles can be bare (<code>nasa</code>), prefixed (<code>@nasa</code>) " +
		"or full profile links. Profile links pick their platform from the URL; " +
		"bare handles use the configured default.\n\n" +
		"Sent posts are tidied up automatically after a while."
}

// truncate shortens s to at most n runes, appending an ellipsis when
// anything was cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
