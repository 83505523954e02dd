package xapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postwatch/pkg/config"
	errs "postwatch/pkg/errors"
	"postwatch/pkg/logger"
)

func testClient(serverURL string) *Client {
	cfg := config.XProviderConfig{
		APIKey:     "test-key",
		APIHost:    "test-host",
		BaseURL:    serverURL,
		Timeout:    5 * time.Second,
		LinkDomain: "fixupx.com",
	}
	return NewClient(cfg, 1, nil, logger.NewTestLogger())
}

func TestFetchLatestTwoStep(t *testing.T) {
	var userCalls, timelineCalls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-rapidapi-key"))
		assert.Equal(t, "test-host", r.Header.Get("x-rapidapi-host"))

		switch r.URL.Path {
		case UserEndpoint:
			atomic.AddInt32(&userCalls, 1)
			assert.Equal(t, "nasa", r.URL.Query().Get("username"))
			w.Write([]byte(`{"data":{"id_str":"11348282"}}`))
		case TimelineEndpoint:
			atomic.AddInt32(&timelineCalls, 1)
			assert.Equal(t, "11348282", r.URL.Query().Get("user_id"))
			w.Write([]byte(`{"data":[
				{"id_str":"3","full_text":"third"},
				{"id_str":"2","full_text":"second"},
				{"id_str":"1","full_text":"first"}
			]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	out, err := client.FetchLatest(context.Background(), "nasa", 10)

	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "3", out[0].ID)
	assert.Equal(t, "https://fixupx.com/nasa/status/3", out[0].URL)
	assert.Equal(t, int32(1), atomic.LoadInt32(&userCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&timelineCalls))
}

func TestFetchLatestNumericHandleSkipsLookup(t *testing.T) {
	var userCalls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case UserEndpoint:
			atomic.AddInt32(&userCalls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		case TimelineEndpoint:
			assert.Equal(t, "11348282", r.URL.Query().Get("user_id"))
			w.Write([]byte(`{"data":[{"id_str":"1","text":"only"}]}`))
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	out, err := client.FetchLatest(context.Background(), "11348282", 10)

	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, int32(0), atomic.LoadInt32(&userCalls), "numeric handles are user ids, no lookup needed")
}

func TestFetchUserIDNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.FetchUserID(context.Background(), "nosuchuser")

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeNotFound, typed.Type)
}

func TestFetchUserTweetsRetriesServerError(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":[{"id_str":"1","text":"recovered"}]}`))
	}))
	defer server.Close()

	cfg := config.XProviderConfig{
		APIKey:     "k",
		APIHost:    "h",
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
		LinkDomain: "fixupx.com",
	}
	client := NewClient(cfg, 3, nil, logger.NewTestLogger())
	// Shrink backoff so the retry happens within test time
	client.retryCfg.Backoff = &retry503Backoff{}

	resp, err := client.FetchUserTweets(context.Background(), "1", 5)
	require.NoError(t, err)
	assert.Len(t, resp.Tweets(), 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

// retry503Backoff keeps retry delays negligible in tests
type retry503Backoff struct{}

func (b *retry503Backoff) NextDelay(attempt int) time.Duration { return time.Millisecond }
func (b *retry503Backoff) Reset()                              {}

func TestFetchUserTweetsDoesNotRetryAuthError(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.XProviderConfig{
		APIKey:     "bad-key",
		APIHost:    "h",
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
		LinkDomain: "fixupx.com",
	}
	client := NewClient(cfg, 3, nil, logger.NewTestLogger())

	_, err := client.FetchUserTweets(context.Background(), "1", 5)

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeAuth, typed.Type)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "auth errors are terminal, no retries")
}

func TestGetJSONParseFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>definitely not json</html>`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	_, err := client.FetchUserTweets(context.Background(), "1", 5)

	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeParsing, typed.Type)
}

func TestFetchLatestEmptyTimeline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case UserEndpoint:
			w.Write([]byte(`{"data":{"id_str":"99"}}`))
		case TimelineEndpoint:
			w.Write([]byte(`{"data":[]}`))
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	out, err := client.FetchLatest(context.Background(), "quietaccount", 10)

	require.NoError(t, err)
	assert.Empty(t, out, "an empty timeline is a valid result, not an error")
}
