// Package igapi implements the Instagram scraping provider client.
//
// It talks to the Instagram web JSON API using browser-like headers and
// the session cookies from configuration. A fetch resolves the profile
// first (which also yields the first page of timeline edges), then
// falls back to the GraphQL media endpoint when more items are needed.
// GraphQL timeline edges are normalized into the shared post schema:
// shortcode permalink, first caption edge, display URL and video flag.
//
// Retry and rate limiting live inside the client, mirroring the X
// provider; callers never retry.
package igapi
