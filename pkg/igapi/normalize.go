package igapi

import (
	"fmt"
	"time"

	"postwatch/pkg/logger"
	"postwatch/pkg/posts"
)

// Normalize converts raw timeline edges into the shared post schema,
// newest-first. Platform-specific fields outside the schema are
// dropped, and a malformed single node is skipped rather than failing
// the batch.
func Normalize(edges []Edge, handle string, limit int, log logger.Logger) []posts.Post {
	if log == nil {
		log = logger.GetLogger()
	}

	out := make([]posts.Post, 0, len(edges))
	skipped := 0

	for i := range edges {
		p, err := normalizeNode(&edges[i].Node)
		if err != nil {
			skipped++
			log.DebugWithFields("skipping malformed media node", map[string]interface{}{
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

func normalizeNode(n *Node) (posts.Post, error) {
	if n.Shortcode == "" {
		return posts.Post{}, fmt.Errorf("media node has no shortcode")
	}

	id := n.ID
	if id == "" {
		id = n.Shortcode
	}

	p := posts.Post{
		ID:       id,
		URL:      GetPostURL(n.Shortcode),
		Caption:  n.Caption(),
		MediaURL: n.DisplayURL,
		IsVideo:  n.IsVideo,
	}
	if n.TakenAtTimestamp > 0 {
		p.Timestamp = time.Unix(n.TakenAtTimestamp, 0).UTC()
	}

	if err := p.Validate(); err != nil {
		return posts.Post{}, err
	}
	return p, nil
}
