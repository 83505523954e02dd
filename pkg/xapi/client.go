package xapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"postwatch/pkg/config"
	errs "postwatch/pkg/errors"
	"postwatch/pkg/logger"
	"postwatch/pkg/posts"
	"postwatch/pkg/ratelimit"
	"postwatch/pkg/retry"
)

const (
	// UserEndpoint resolves a screen name to a numeric user id
	UserEndpoint = "/api/user/details"

	// TimelineEndpoint returns the latest tweets for a user id
	TimelineEndpoint = "/api/user/tweets"

	// overFetchMargin is added to the requested count so that skipped
	// malformed items still leave a full result
	overFetchMargin = 2
)

var numericHandle = regexp.MustCompile(`^\d{6,}$`)

// Client is an X scraping provider client over a RapidAPI host
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	linkDomain string
	limiter    ratelimit.Limiter
	retryCfg   *retry.Config
	logger     logger.Logger
}

// NewClient creates a new X provider client
func NewClient(cfg config.XProviderConfig, maxRetries int, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: map[string]string{
			"x-rapidapi-key":  cfg.APIKey,
			"x-rapidapi-host": cfg.APIHost,
			"Accept":          "application/json",
		},
		baseURL:    cfg.BaseURL,
		linkDomain: cfg.LinkDomain,
		limiter:    limiter,
		retryCfg: &retry.Config{
			MaxAttempts: maxRetries,
			Backoff:     retry.DefaultExponentialBackoff(),
			RetryIf:     retry.DefaultRetryIf,
			Context:     context.Background(),
			Logger:      log,
		},
		logger: log,
	}
}

// Platform identifies this provider
func (c *Client) Platform() posts.Platform {
	return posts.PlatformX
}

// FetchLatest fetches and normalizes the newest posts for a handle.
// Numeric handles are treated as user ids directly; anything else is
// resolved through the user endpoint first.
func (c *Client) FetchLatest(ctx context.Context, handle string, limit int) ([]posts.Post, error) {
	userID := handle
	if !numericHandle.MatchString(handle) {
		resolved, err := c.FetchUserID(ctx, handle)
		if err != nil {
			return nil, err
		}
		userID = resolved
	}

	timeline, err := c.FetchUserTweets(ctx, userID, limit+overFetchMargin)
	if err != nil {
		return nil, err
	}

	return Normalize(timeline, handle, c.linkDomain, limit, c.logger), nil
}

// FetchUserID resolves a screen name to the provider's numeric user id
func (c *Client) FetchUserID(ctx context.Context, handle string) (string, error) {
	params := url.Values{}
	params.Set("username", handle)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, UserEndpoint, params.Encode())

	c.logger.DebugWithFields("resolving user id", map[string]interface{}{
		"handle": handle,
	})

	var response UserResponse
	if err := c.getJSON(ctx, reqURL, &response); err != nil {
		return "", err
	}

	userID := response.UserID()
	if userID == "" {
		return "", errs.NewParsing(fmt.Sprintf("no user id in response for %s", handle), http.StatusOK)
	}

	return userID, nil
}

// FetchUserTweets fetches the raw timeline for a numeric user id
func (c *Client) FetchUserTweets(ctx context.Context, userID string, count int) (*TimelineResponse, error) {
	params := url.Values{}
	params.Set("user_id", userID)
	params.Set("count", fmt.Sprintf("%d", count))
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, TimelineEndpoint, params.Encode())

	c.logger.DebugWithFields("fetching user timeline", map[string]interface{}{
		"user_id": userID,
		"count":   count,
	})

	var response TimelineResponse
	if err := c.getJSON(ctx, reqURL, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// getJSON performs a rate-limited, retried GET request and decodes the
// JSON response into target.
func (c *Client) getJSON(ctx context.Context, reqURL string, target interface{}) error {
	cfg := *c.retryCfg
	cfg.Context = ctx

	return retry.Do(func() error {
		if c.limiter != nil && !c.limiter.Allow() {
			c.limiter.Wait()
		}
		return c.doGetJSON(ctx, reqURL, target)
	}, &cfg)
}

func (c *Client) doGetJSON(ctx context.Context, reqURL string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, fmt.Sprintf("failed to create request: %v", err), 0)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      req.URL.Path,
			"error":    err.Error(),
			"duration": duration,
		})
		return errs.NewNetwork(fmt.Sprintf("network error: %v", err))
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      req.URL.Path,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode != http.StatusOK {
		return errs.FromStatusCode(resp.StatusCode, fmt.Sprintf("provider returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewNetwork(fmt.Sprintf("failed to read response body: %v", err))
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          req.URL.Path,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errs.NewParsing(fmt.Sprintf("failed to parse JSON: %v", err), resp.StatusCode)
	}

	return nil
}
