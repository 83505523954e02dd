package igapi

import (
	"fmt"
	"net/url"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// ProfileEndpoint is the endpoint pattern for user profiles
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// MediaEndpoint is the endpoint pattern for user media
	MediaEndpoint = "/graphql/query/"

	// MediaQueryHash is the query hash for fetching user media
	MediaQueryHash = "e769aa130647d2354c40ea6a439bfc08"

	// MaxMediaLimit is the maximum number of media items per request
	MaxMediaLimit = 50
)

// GetProfileURL constructs the URL for fetching a user's profile
func GetProfileURL(baseURL, username string) string {
	params := url.Values{}
	params.Set("username", username)

	return fmt.Sprintf("%s%s?%s", baseURL, ProfileEndpoint, params.Encode())
}

// GetMediaURL constructs the URL for fetching a user's media
func GetMediaURL(baseURL, userID string, limit int) string {
	if limit <= 0 || limit > MaxMediaLimit {
		limit = MaxMediaLimit
	}

	params := url.Values{}
	params.Set("query_hash", MediaQueryHash)
	params.Set("variables", fmt.Sprintf(`{"id":"%s","first":%d}`, userID, limit))

	return fmt.Sprintf("%s%s?%s", baseURL, MediaEndpoint, params.Encode())
}

// GetPostURL constructs the permalink for a post shortcode
func GetPostURL(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return fmt.Sprintf("%s/p/%s/", BaseURL, shortcode)
}
