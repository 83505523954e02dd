package xapi

import "encoding/json"

// UserResponse is the provider's user lookup payload. Only the id is
// consumed; everything else the provider returns is ignored.
type UserResponse struct {
	Data struct {
		IDStr      string      `json:"id_str"`
		ID         json.Number `json:"id"`
		ScreenName string      `json:"screen_name"`
	} `json:"data"`
	User struct {
		IDStr string      `json:"id_str"`
		ID    json.Number `json:"id"`
	} `json:"user"`
}

// UserID extracts the numeric user id from whichever envelope the
// provider used.
func (r *UserResponse) UserID() string {
	if r.Data.IDStr != "" {
		return r.Data.IDStr
	}
	if s := r.Data.ID.String(); s != "" && s != "0" {
		return s
	}
	if r.User.IDStr != "" {
		return r.User.IDStr
	}
	if s := r.User.ID.String(); s != "" && s != "0" {
		return s
	}
	return ""
}

// TimelineResponse is the provider's tweet list payload. The provider
// has been observed wrapping the list under different keys depending on
// endpoint version, so all known envelopes are tried in order.
type TimelineResponse struct {
	Data     []Tweet `json:"data"`
	Statuses []Tweet `json:"statuses"`
	Results  []Tweet `json:"results"`
}

// Tweets returns the tweet list from whichever envelope is populated
func (r *TimelineResponse) Tweets() []Tweet {
	switch {
	case len(r.Data) > 0:
		return r.Data
	case len(r.Statuses) > 0:
		return r.Statuses
	default:
		return r.Results
	}
}

// Tweet is the raw wire form of a single tweet
type Tweet struct {
	IDStr            string         `json:"id_str"`
	ID               json.Number    `json:"id"`
	FullText         string         `json:"full_text"`
	Text             string         `json:"text"`
	CreatedAt        string         `json:"created_at"`
	Entities         TweetEntities  `json:"entities"`
	ExtendedEntities *TweetEntities `json:"extended_entities"`
}

// TweetEntities holds the media attachments of a tweet
type TweetEntities struct {
	Media []TweetMedia `json:"media"`
}

// TweetMedia is one media attachment
type TweetMedia struct {
	MediaURLHTTPS string `json:"media_url_https"`
	MediaURL      string `json:"media_url"`
	Type          string `json:"type"`
}

// TweetID returns the stable string id of the tweet, or "" when the
// item carries no usable id and must be treated as malformed.
func (t *Tweet) TweetID() string {
	if t.IDStr != "" {
		return t.IDStr
	}
	if s := t.ID.String(); s != "" && s != "0" {
		return s
	}
	return ""
}

// TweetText returns the tweet body, preferring the extended form
func (t *Tweet) TweetText() string {
	if t.FullText != "" {
		return t.FullText
	}
	return t.Text
}

// FirstMedia returns the first media attachment, preferring extended
// entities, or nil when the tweet is text-only.
func (t *Tweet) FirstMedia() *TweetMedia {
	if t.ExtendedEntities != nil && len(t.ExtendedEntities.Media) > 0 {
		return &t.ExtendedEntities.Media[0]
	}
	if len(t.Entities.Media) > 0 {
		return &t.Entities.Media[0]
	}
	return nil
}

// URL returns the media URL, preferring HTTPS
func (m *TweetMedia) URL() string {
	if m.MediaURLHTTPS != "" {
		return m.MediaURLHTTPS
	}
	return m.MediaURL
}

// IsVideo reports whether the attachment renders as a video
func (m *TweetMedia) IsVideo() bool {
	return m.Type == "video" || m.Type == "animated_gif"
}
