package igapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"postwatch/pkg/config"
	errs "postwatch/pkg/errors"
	"postwatch/pkg/logger"
	"postwatch/pkg/posts"
	"postwatch/pkg/ratelimit"
	"postwatch/pkg/retry"
)

// Client is an Instagram web API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	retryCfg   *retry.Config
	logger     logger.Logger
}

// NewClient creates a new Instagram provider client. Session cookies
// from the configuration are attached to every request; without them
// Instagram serves only a login wall.
func NewClient(cfg config.InstagramProviderConfig, maxRetries int, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	headers := map[string]string{
		"User-Agent":      cfg.UserAgent,
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
		"X-IG-App-ID":     "936619743392459",
	}

	var cookies []string
	if cfg.SessionID != "" {
		cookies = append(cookies, fmt.Sprintf("sessionid=%s", cfg.SessionID))
	}
	if cfg.CSRFToken != "" {
		cookies = append(cookies, fmt.Sprintf("csrftoken=%s", cfg.CSRFToken))
		headers["x-csrftoken"] = cfg.CSRFToken
	}
	if len(cookies) > 0 {
		headers["Cookie"] = strings.Join(cookies, "; ")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: headers,
		baseURL: baseURL,
		limiter: limiter,
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
	return posts.PlatformInstagram
}

// FetchLatest fetches and normalizes the newest posts for a handle.
// Two steps: the profile endpoint resolves the numeric user id (and
// usually already carries the first page of timeline edges), then the
// GraphQL media endpoint fills in when the profile payload was thin.
func (c *Client) FetchLatest(ctx context.Context, handle string, limit int) ([]posts.Post, error) {
	profile, err := c.FetchUserProfile(ctx, handle)
	if err != nil {
		return nil, err
	}

	edges := profile.Data.User.EdgeOwnerToTimelineMedia.Edges
	if len(edges) >= limit || profile.Data.User.ID == "" {
		return Normalize(edges, handle, limit, c.logger), nil
	}

	media, err := c.FetchUserMedia(ctx, profile.Data.User.ID, limit)
	if err != nil {
		// The profile page already gave us something; serve that rather
		// than failing the whole fetch.
		c.logger.WarnWithFields("media endpoint failed, serving profile edges", map[string]interface{}{
			"handle": handle,
			"error":  err.Error(),
		})
		return Normalize(edges, handle, limit, c.logger), nil
	}

	if len(media.Data.User.EdgeOwnerToTimelineMedia.Edges) > len(edges) {
		edges = media.Data.User.EdgeOwnerToTimelineMedia.Edges
	}
	return Normalize(edges, handle, limit, c.logger), nil
}

// FetchUserProfile fetches the Instagram user profile data
func (c *Client) FetchUserProfile(ctx context.Context, username string) (*ProfileResponse, error) {
	reqURL := GetProfileURL(c.baseURL, username)

	c.logger.DebugWithFields("fetching user profile", map[string]interface{}{
		"username": username,
	})

	var response ProfileResponse
	if err := c.getJSON(ctx, reqURL, &response); err != nil {
		return nil, err
	}

	if response.RequiresToLogin {
		return nil, errs.New(errs.ErrorTypeAuth, "Instagram requires authentication to view this profile", http.StatusUnauthorized)
	}
	if response.Data.User.IsPrivate {
		return nil, errs.New(errs.ErrorTypeNotFound, fmt.Sprintf("profile %s is private", username), http.StatusNotFound)
	}

	return &response, nil
}

// FetchUserMedia fetches timeline media for a numeric user id
func (c *Client) FetchUserMedia(ctx context.Context, userID string, limit int) (*ProfileResponse, error) {
	reqURL := GetMediaURL(c.baseURL, userID, limit)

	c.logger.DebugWithFields("fetching user media", map[string]interface{}{
		"user_id": userID,
		"limit":   limit,
	})

	var response ProfileResponse
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
		return errs.FromStatusCode(resp.StatusCode, fmt.Sprintf("instagram returned status %d", resp.StatusCode))
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
