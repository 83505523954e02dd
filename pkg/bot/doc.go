// Package bot implements the Telegram conversation controller: command
// and callback handling, paginated post delivery with a rich-media
// fallback chain, and the deferred cleanup scheduler that deletes sent
// messages after their configured lifetime.
package bot
