package domain

import (
	"context"
	"fmt"
	"time"
)

// ChannelRef is a destination channel as given by the user and, once
// resolved, the backend identifier all sends go to.
type ChannelRef struct {
	Input    string `json:"input"`
	ID       string `json:"id,omitempty"`
	Resolved bool   `json:"resolved"`
}

// Target returns the identifier to send to: the resolved ID when available,
// otherwise the raw input.
func (c ChannelRef) Target() string {
	if c.Resolved && c.ID != "" {
		return c.ID
	}
	return c.Input
}

func (c ChannelRef) String() string {
	if c.Resolved && c.ID != c.Input {
		return fmt.Sprintf("%s (%s)", c.Input, c.ID)
	}
	return c.Target()
}

// ChannelInfo is one entry of a channel listing.
type ChannelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChannelPage is one page of a cursor-paginated channel listing.
// An empty NextCursor means the listing is complete.
type ChannelPage struct {
	Channels   []ChannelInfo `json:"channels"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

// RateLimitError is returned by a Backend when the service asked the caller
// to slow down. RetryAfter is the server's suggested wait, zero if none.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// Backend is the messaging service results are published to.
type Backend interface {
	// ListChannels returns one page of channels visible to the caller.
	ListChannels(ctx context.Context, cursor string, limit int) (ChannelPage, error)

	// PostMessage posts a text message with optional rich blocks. A non-empty
	// threadAnchor posts it as a reply. Returns the message timestamp.
	PostMessage(ctx context.Context, channel, text string, blocks []Block, threadAnchor string) (string, error)

	// UploadFile uploads a local file with a title and caption.
	UploadFile(ctx context.Context, channel string, file FileUpload, threadAnchor string) error

	// DeleteMessage removes a message by timestamp.
	DeleteMessage(ctx context.Context, channel, ts string) error

	// RecentMessages returns up to limit of the most recent channel messages.
	RecentMessages(ctx context.Context, channel string, limit int) ([]PostedMessage, error)

	// AuthUserID returns the user ID the backend credentials act as.
	AuthUserID(ctx context.Context) (string, error)
}
