// Package xapi implements the X (Twitter) scraping provider client.
//
// The provider is a RapidAPI-hosted scraping service; requests carry
// the x-rapidapi-key and x-rapidapi-host headers. A fetch is two steps:
// resolve the screen name to a numeric user id, then pull the timeline
// for that id. Responses are normalized into the shared post schema
// with permalinks rewritten onto the configured link domain so that
// Telegram renders proper previews.
//
// Retry (exponential backoff on network/429/5xx) and rate limiting are
// handled inside the client; callers never retry.
package xapi
