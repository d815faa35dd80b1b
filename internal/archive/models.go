package archive

import (
	"time"
)

// Channel is a source whose messages were imported.
type Channel struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Title        string    `json:"title"`
	FeedURL      string    `json:"feed_url"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	LastImported time.Time `json:"last_imported"`
}

// Message is one archived post.
type Message struct {
	ID          string    `json:"id"`
	ChannelID   string    `json:"channel_id"`
	MessageID   string    `json:"message_id"`
	Date        time.Time `json:"date"`
	Sender      string    `json:"sender"`
	SenderType  string    `json:"sender_type"`
	SenderColor string    `json:"sender_color,omitempty"`
	Content     string    `json:"content"`
	PostURL     string    `json:"post_url,omitempty"`
	ImportedAt  time.Time `json:"imported_at"`
}

// MessageKey builds the archive id of message messageID in channelID.
func MessageKey(channelID, messageID string) string {
	return channelID + "/" + messageID
}
