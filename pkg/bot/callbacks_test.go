package bot

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postwatch/pkg/posts"
)

func TestParsePageCallback(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    pageCallback
		wantErr bool
	}{
		{
			name: "simple",
			data: "page_latest_nasa_2",
			want: pageCallback{Command: "latest", Account: "nasa", Index: 2},
		},
		{
			name: "account with underscores",
			data: "page_xlatest_the_rock_0",
			want: pageCallback{Command: "xlatest", Account: "the_rock", Index: 0},
		},
		{
			name: "account with many underscores",
			data: "page_iglatest_a_b_c_d_7",
			want: pageCallback{Command: "iglatest", Account: "a_b_c_d", Index: 7},
		},
		{name: "missing index", data: "page_latest_nasa", wantErr: true},
		{name: "non-numeric index", data: "page_latest_nasa_x", wantErr: true},
		{name: "negative index", data: "page_latest_nasa_-1", wantErr: true},
		{name: "unknown command", data: "page_oldest_nasa_1", wantErr: true},
		{name: "empty", data: "page_", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePageCallback(tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageCallbackRoundTrip(t *testing.T) {
	data := pageCallbackData("latest", "the_rock", 3)
	got, err := parsePageCallback(data)
	require.NoError(t, err)
	assert.Equal(t, pageCallback{Command: "latest", Account: "the_rock", Index: 3}, got)
}

func callbackUpdate(chatID int64, messageID int, data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: chatID}},
	}
}

func TestPageFlipEditsIntro(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api, &fakeFetcher{items: textPosts(12)}, &memObligations{})

	b.handleCallback(context.Background(), callbackUpdate(10, 77, "page_latest_nasa_1"), b.logger)

	var edit tgbotapi.EditMessageTextConfig
	var gotEdit bool
	for _, c := range api.sentMessages() {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			edit = e
			gotEdit = true
		}
	}
	require.True(t, gotEdit, "a page flip edits the intro in place")
	assert.Equal(t, 77, edit.MessageID)
	assert.Contains(t, edit.Text, "page 2 of 3")
	assert.Contains(t, edit.Text, "post f", "page 2 starts at the sixth post")

	require.NotNil(t, edit.ReplyMarkup)
	row := edit.ReplyMarkup.InlineKeyboard[0]
	require.Len(t, row, 2, "a middle page has both Prev and Next")
	assert.Equal(t, "page_latest_nasa_0", *row[0].CallbackData)
	assert.Equal(t, "page_latest_nasa_2", *row[1].CallbackData)

	require.Len(t, api.requests, 1, "the callback was acknowledged")
	_, isAnswer := api.requests[0].(tgbotapi.CallbackConfig)
	assert.True(t, isAnswer)
}

func TestPageFlipClampsStaleIndex(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api, &fakeFetcher{items: textPosts(6)}, &memObligations{})

	// Index 9 no longer exists; pagination clamps to the last page.
	b.handleCallback(context.Background(), callbackUpdate(10, 77, "page_latest_nasa_9"), b.logger)

	var edit tgbotapi.EditMessageTextConfig
	for _, c := range api.sentMessages() {
		if e, ok := c.(tgbotapi.EditMessageTextConfig); ok {
			edit = e
		}
	}
	assert.Contains(t, edit.Text, "page 2 of 2")
}

func TestMalformedCallbackStillAcknowledged(t *testing.T) {
	api := &fakeAPI{}
	f := &fakeFetcher{items: textPosts(3)}
	b := newTestBot(api, f, &memObligations{})

	b.handleCallback(context.Background(), callbackUpdate(10, 77, "page_garbage"), b.logger)

	assert.Equal(t, 0, f.calls, "malformed payloads trigger no fetch")
	assert.Empty(t, api.sentMessages(), "and no outgoing message")
	require.Len(t, api.requests, 1)
	_, isAnswer := api.requests[0].(tgbotapi.CallbackConfig)
	assert.True(t, isAnswer, "the callback is acknowledged regardless")
}

func TestMenuCallbacksPrompt(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api, &fakeFetcher{}, &memObligations{})

	b.handleCallback(context.Background(), callbackUpdate(10, 1, "menu_ig"), b.logger)

	msgs := api.textMessages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Text, "Instagram profile")

	b.promptMu.Lock()
	prompt, ok := b.prompts[10]
	b.promptMu.Unlock()
	require.True(t, ok, "the chat is now awaiting a handle")
	assert.Equal(t, "iglatest", prompt.command)
}

func TestClassifyPlatform(t *testing.T) {
	tests := []struct {
		input string
		want  posts.Platform
	}{
		{"nasa", posts.PlatformX},
		{"@nasa", posts.PlatformX},
		{"https://x.com/nasa", posts.PlatformX},
		{"https://twitter.com/nasa", posts.PlatformX},
		{"https://www.instagram.com/natgeo/", posts.PlatformInstagram},
		{"instagram.com/natgeo", posts.PlatformInstagram},
		{"https://mobile.twitter.com/nasa", posts.PlatformX},
		{"https://example.com/nasa", posts.PlatformX}, // unknown host falls back
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyPlatform(tt.input, posts.PlatformX))
		})
	}
}
