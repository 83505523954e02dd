package igapi

// ProfileResponse represents the top-level response from the Instagram web API
type ProfileResponse struct {
	RequiresToLogin bool   `json:"requires_to_login"`
	Data            Data   `json:"data"`
	Status          string `json:"status"`
}

// Data wraps the user information in the response
type Data struct {
	User User `json:"user"`
}

// User represents an Instagram user profile
type User struct {
	ID                       string                   `json:"id"`
	IsPrivate                bool                     `json:"is_private"`
	EdgeOwnerToTimelineMedia EdgeOwnerToTimelineMedia `json:"edge_owner_to_timeline_media"`
}

// EdgeOwnerToTimelineMedia contains the user's media information
type EdgeOwnerToTimelineMedia struct {
	Count    int      `json:"count"`
	PageInfo PageInfo `json:"page_info"`
	Edges    []Edge   `json:"edges"`
}

// PageInfo contains pagination information
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// Edge wraps a single media node
type Edge struct {
	Node Node `json:"node"`
}

// Node represents a single media item (photo or video)
type Node struct {
	ID                 string         `json:"id"`
	Shortcode          string         `json:"shortcode"`
	DisplayURL         string         `json:"display_url"`
	IsVideo            bool           `json:"is_video"`
	TakenAtTimestamp   int64          `json:"taken_at_timestamp"`
	EdgeMediaToCaption CaptionEdgeSet `json:"edge_media_to_caption"`
}

// CaptionEdgeSet wraps the caption edges of a media node
type CaptionEdgeSet struct {
	Edges []CaptionEdge `json:"edges"`
}

// CaptionEdge wraps a single caption node
type CaptionEdge struct {
	Node CaptionNode `json:"node"`
}

// CaptionNode holds the caption text
type CaptionNode struct {
	Text string `json:"text"`
}

// Caption returns the first caption text, or "" when the post has none
func (n *Node) Caption() string {
	if len(n.EdgeMediaToCaption.Edges) == 0 {
		return ""
	}
	return n.EdgeMediaToCaption.Edges[0].Node.Text
}
