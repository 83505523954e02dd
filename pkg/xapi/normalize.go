package xapi

import (
	"fmt"
	"time"

	"postwatch/pkg/logger"
	"postwatch/pkg/posts"
)

// createdAtLayout is the legacy Twitter timestamp format
const createdAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

// Normalize converts a raw timeline response into the shared post
// schema, newest-first. It is a pure projection: fields outside the
// schema are dropped, and a malformed single tweet is skipped rather
// than failing the batch.
func Normalize(resp *TimelineResponse, handle, linkDomain string, limit int, log logger.Logger) []posts.Post {
	if resp == nil {
		return nil
	}
	if log == nil {
		log = logger.GetLogger()
	}

	tweets := resp.Tweets()
	out := make([]posts.Post, 0, len(tweets))
	skipped := 0

	for i := range tweets {
		p, err := normalizeTweet(&tweets[i], handle, linkDomain)
		if err != nil {
			skipped++
			log.DebugWithFields("skipping malformed tweet", map[string]interface{}{
				"handle": handle,
				"index":  i,
				"error":  err.Error(),
			})
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}

	if skipped > 0 {
		log.DebugWithFields("normalized timeline with skips", map[string]interface{}{
			"handle":  handle,
			"kept":    len(out),
			"skipped": skipped,
		})
	}

	return out
}

func normalizeTweet(t *Tweet, handle, linkDomain string) (posts.Post, error) {
	id := t.TweetID()
	if id == "" {
		return posts.Post{}, fmt.Errorf("tweet has no id")
	}

	p := posts.Post{
		ID:      id,
		URL:     fmt.Sprintf("https://%s/%s/status/%s", linkDomain, handle, id),
		Caption: t.TweetText(),
	}

	if media := t.FirstMedia(); media != nil {
		p.MediaURL = media.URL()
		p.IsVideo = media.IsVideo()
	}

	if t.CreatedAt != "" {
		if ts, err := time.Parse(createdAtLayout, t.CreatedAt); err == nil {
			p.Timestamp = ts
		}
	}

	if err := p.Validate(); err != nil {
		return posts.Post{}, err
	}
	return p, nil
}
