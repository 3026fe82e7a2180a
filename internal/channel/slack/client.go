// Package slack implements the messaging backend on the Slack Web API.
package slack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	goslack "github.com/slack-go/slack"
	"github.com/soyeahso/jackbot/internal/domain"
	"github.com/soyeahso/jackbot/internal/logging"
)

var channelTypes = []string{"public_channel", "private_channel"}

// Options configures a Client.
type Options struct {
	Token  string
	APIURL string // overrides https://slack.com/api/ for testing
}

// Client implements domain.Backend for Slack.
type Client struct {
	api *goslack.Client
	log *logging.Logger
}

// New creates a Slack client.
func New(opts Options, log *logging.Logger) *Client {
	var clientOpts []goslack.Option
	if opts.APIURL != "" {
		u := opts.APIURL
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		clientOpts = append(clientOpts, goslack.OptionAPIURL(u))
	}
	return &Client{
		api: goslack.New(opts.Token, clientOpts...),
		log: log.Sub("slack"),
	}
}

// ListChannels returns one page of public and private channels.
func (c *Client) ListChannels(ctx context.Context, cursor string, limit int) (domain.ChannelPage, error) {
	channels, next, err := c.api.GetConversationsContext(ctx, &goslack.GetConversationsParameters{
		Cursor: cursor,
		Limit:  limit,
		Types:  channelTypes,
	})
	if err != nil {
		return domain.ChannelPage{}, mapError(err)
	}

	page := domain.ChannelPage{NextCursor: next}
	for _, ch := range channels {
		page.Channels = append(page.Channels, domain.ChannelInfo{ID: ch.ID, Name: ch.Name})
	}
	return page, nil
}

// PostMessage posts text with optional blocks and returns its timestamp.
func (c *Client) PostMessage(ctx context.Context, channel, text string, blocks []domain.Block, threadAnchor string) (string, error) {
	opts := []goslack.MsgOption{goslack.MsgOptionText(text, false)}
	if len(blocks) > 0 {
		opts = append(opts, goslack.MsgOptionBlocks(toBlocks(blocks)...))
	}
	if threadAnchor != "" {
		opts = append(opts, goslack.MsgOptionTS(threadAnchor))
	}

	_, ts, err := c.api.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		return "", mapError(err)
	}
	c.log.Debug().Str("channel", channel).Str("ts", ts).Str("thread_ts", threadAnchor).Msg("posted message")
	return ts, nil
}

// UploadFile uploads a local file through the external upload flow.
func (c *Client) UploadFile(ctx context.Context, channel string, file domain.FileUpload, threadAnchor string) error {
	info, err := os.Stat(file.Path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", file.Path, err)
	}

	_, err = c.api.UploadFileV2Context(ctx, goslack.UploadFileV2Parameters{
		File:            file.Path,
		FileSize:        int(info.Size()),
		Filename:        filepath.Base(file.Path),
		Title:           file.Title,
		InitialComment:  file.Caption,
		Channel:         channel,
		ThreadTimestamp: threadAnchor,
	})
	if err != nil {
		return mapError(err)
	}
	c.log.Debug().Str("channel", channel).Str("file", filepath.Base(file.Path)).Msg("uploaded file")
	return nil
}

// DeleteMessage deletes a message by timestamp.
func (c *Client) DeleteMessage(ctx context.Context, channel, ts string) error {
	if _, _, err := c.api.DeleteMessageContext(ctx, channel, ts); err != nil {
		return mapError(err)
	}
	return nil
}

// RecentMessages returns the latest messages in a channel, newest first.
func (c *Client) RecentMessages(ctx context.Context, channel string, limit int) ([]domain.PostedMessage, error) {
	resp, err := c.api.GetConversationHistoryContext(ctx, &goslack.GetConversationHistoryParameters{
		ChannelID: channel,
		Limit:     limit,
	})
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]domain.PostedMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		out = append(out, domain.PostedMessage{
			Timestamp: m.Timestamp,
			Text:      m.Text,
			UserID:    m.User,
			HasFiles:  len(m.Files) > 0,
			Time:      parseTimestamp(m.Timestamp),
		})
	}
	return out, nil
}

// AuthUserID returns the user the token acts as.
func (c *Client) AuthUserID(ctx context.Context) (string, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return "", mapError(err)
	}
	return resp.UserID, nil
}

func toBlocks(blocks []domain.Block) []goslack.Block {
	out := make([]goslack.Block, 0, len(blocks))
	for _, b := range blocks {
		text := goslack.NewTextBlockObject(goslack.MarkdownType, b.Text, false, false)
		switch b.Kind {
		case domain.BlockContext:
			out = append(out, goslack.NewContextBlock("", text))
		default:
			out = append(out, goslack.NewSectionBlock(text, nil, nil))
		}
	}
	return out
}

// mapError turns Slack rate-limit responses into domain.RateLimitError.
func mapError(err error) error {
	var rl *goslack.RateLimitedError
	if errors.As(err, &rl) {
		return &domain.RateLimitError{RetryAfter: rl.RetryAfter}
	}
	var se goslack.SlackErrorResponse
	if errors.As(err, &se) && se.Err == "ratelimited" {
		return &domain.RateLimitError{}
	}
	return fmt.Errorf("slack: %w", err)
}

// parseTimestamp converts a "seconds.micros" message timestamp to a time.
func parseTimestamp(ts string) time.Time {
	secs, frac, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(secs, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var us int64
	if frac != "" {
		us, _ = strconv.ParseInt(frac, 10, 64)
	}
	return time.Unix(s, us*int64(time.Microsecond))
}
