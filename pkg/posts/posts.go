package posts

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"
)

// Platform identifies a supported social network
type Platform string

const (
	PlatformX         Platform = "x"
	PlatformInstagram Platform = "instagram"
)

// fingerprintDepth is how many leading post ids feed the hashed fingerprint
const fingerprintDepth = 10

// IsValid reports whether the platform is one of the supported values
func (p Platform) IsValid() bool {
	return p == PlatformX || p == PlatformInstagram
}

// ParsePlatform maps a user-facing platform name, including common
// aliases, to its canonical value.
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "x", "twitter":
		return PlatformX, nil
	case "instagram", "ig":
		return PlatformInstagram, nil
	default:
		return "", errors.New("unknown platform: " + name)
	}
}

// Target identifies a profile to query on a specific platform.
// The handle is normalized at construction time and the value is
// immutable for the rest of the request.
type Target struct {
	Platform Platform
	Handle   string
}

// NewTarget builds a Target with a normalized handle: lower-cased,
// leading @ stripped, and profile-URL forms reduced to the bare handle.
func NewTarget(platform Platform, handle string) Target {
	return Target{
		Platform: platform,
		Handle:   NormalizeHandle(handle),
	}
}

// NormalizeHandle reduces any user-supplied account reference to a bare,
// lower-cased handle. Accepts "@name", "name", and profile URLs like
// "https://x.com/@name?tab=posts".
func NormalizeHandle(handle string) string {
	h := strings.TrimSpace(handle)

	// Drop query parameters and trailing slashes before any parsing
	if i := strings.Index(h, "?"); i >= 0 {
		h = h[:i]
	}
	h = strings.TrimRight(h, "/")

	if strings.HasPrefix(h, "http://") || strings.HasPrefix(h, "https://") {
		if parsed, err := url.Parse(h); err == nil {
			parts := strings.FieldsFunc(parsed.Path, func(r rune) bool { return r == '/' })
			if len(parts) > 0 {
				h = parts[0]
			} else {
				h = parsed.Host
			}
		}
	}

	h = strings.TrimPrefix(h, "@")
	return strings.ToLower(strings.TrimSpace(h))
}

// Post is the normalized unit of content shared by every platform.
// Platform-specific fields are dropped during normalization; this is a
// deliberate lossy projection. Posts are ordered newest-first within a
// fetch result and that order is preserved end-to-end.
type Post struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Caption   string    `json:"caption,omitempty"`
	MediaURL  string    `json:"media_url,omitempty"`
	IsVideo   bool      `json:"is_video"`
	Timestamp time.Time `json:"timestamp"`
}

// HasMedia reports whether the post carries a media attachment.
// A post without media renders as text-only.
func (p Post) HasMedia() bool {
	return p.MediaURL != ""
}

// ErrMissingID is returned by Validate when a post has no usable id
var ErrMissingID = errors.New("post has no id")

// ErrMissingURL is returned by Validate when a post has no permalink
var ErrMissingURL = errors.New("post has no url")

// Validate holds the shared required-field rules for a normalized post.
// Platform mappers call this to decide whether a raw item is malformed.
func (p Post) Validate() error {
	if p.ID == "" {
		return ErrMissingID
	}
	if p.URL == "" {
		return ErrMissingURL
	}
	return nil
}

// DeriveID produces a stable synthetic id for posts whose provider does
// not supply one, hashing the platform, handle and permalink together.
func DeriveID(platform Platform, handle, postURL string) string {
	sum := sha256.Sum256([]byte(string(platform) + "|" + handle + "|" + postURL))
	return hex.EncodeToString(sum[:])
}

// Snapshot is the cached record for a Target. It is constructed fresh
// after every live fetch and replaces, never merges with, any prior
// snapshot for the same target.
type Snapshot struct {
	Target      Target    `json:"target"`
	FetchedAt   time.Time `json:"fetched_at"`
	Fingerprint string    `json:"fingerprint"`
	Posts       []Post    `json:"posts"`
}

// NewSnapshot builds a snapshot for the given target and fetch result,
// computing the fingerprint from the post sequence.
func NewSnapshot(target Target, fetchedAt time.Time, items []Post) *Snapshot {
	return &Snapshot{
		Target:      target,
		FetchedAt:   fetchedAt,
		Fingerprint: Fingerprint(items),
		Posts:       items,
	}
}

// Fingerprint computes a cheap change-detection signal over a post
// sequence: the most recent post id when there is one, otherwise a hash
// over the leading post ids. An empty sequence fingerprints to "".
func Fingerprint(items []Post) string {
	if len(items) == 0 {
		return ""
	}
	if items[0].ID != "" && len(items) == 1 {
		return items[0].ID
	}

	n := len(items)
	if n > fingerprintDepth {
		n = fingerprintDepth
	}
	h := sha256.New()
	for _, p := range items[:n] {
		h.Write([]byte(p.ID))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
