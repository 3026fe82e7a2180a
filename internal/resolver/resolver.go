// Package resolver turns a human channel name into a backend channel ID.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/soyeahso/jackbot/internal/domain"
	"github.com/soyeahso/jackbot/internal/logging"
	"github.com/soyeahso/jackbot/internal/retry"
)

// pageSize is the number of channels requested per listing page.
const pageSize = 200

var channelIDPattern = regexp.MustCompile(`^[CGDZ][A-Za-z0-9]{8,}$`)

// IsChannelID reports whether s already looks like a channel identifier.
func IsChannelID(s string) bool {
	return channelIDPattern.MatchString(s)
}

// ChannelLister is the part of domain.Backend the resolver needs.
type ChannelLister interface {
	ListChannels(ctx context.Context, cursor string, limit int) (domain.ChannelPage, error)
}

// Options tunes rate-limit handling.
type Options struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Growth         float64
	Sleep          retry.SleepFunc
}

// Resolver looks channel names up through a ChannelLister.
type Resolver struct {
	lister ChannelLister
	opts   Options
	log    *logging.Logger
}

// New creates a Resolver. A nil lister resolves nothing, as in a dry run.
func New(lister ChannelLister, opts Options, log *logging.Logger) *Resolver {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 5
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if opts.Growth < 1 {
		opts.Growth = 2
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Sleep
	}
	return &Resolver{lister: lister, opts: opts, log: log.Sub("resolver")}
}

// Resolve returns the channel for input. It never fails: any lookup problem
// leaves the reference unresolved, carrying the input unchanged.
func (r *Resolver) Resolve(ctx context.Context, input string) domain.ChannelRef {
	ref := domain.ChannelRef{Input: input}
	if input == "" || r.lister == nil {
		return ref
	}
	if IsChannelID(input) {
		r.log.Debug().Str("channel", input).Msg("channel is already an ID")
		return domain.ChannelRef{Input: input, ID: input, Resolved: true}
	}

	name := strings.TrimLeft(input, "#")
	r.log.Info().Str("channel", name).Msg("looking up channel ID")

	state := retry.New(r.opts.MaxAttempts, r.opts.InitialBackoff, r.opts.Growth)
	for {
		id, err := r.find(ctx, name)
		if err == nil {
			if id == "" {
				r.log.Warn().Str("channel", input).Msg("could not find channel ID, using as-is")
				return ref
			}
			r.log.Info().Str("channel", name).Str("id", id).Msg("found channel ID")
			return domain.ChannelRef{Input: input, ID: id, Resolved: true}
		}

		var rl *domain.RateLimitError
		if !errors.As(err, &rl) {
			r.log.Warn().Err(err).Str("channel", input).Msg("failed to resolve channel ID")
			return ref
		}

		attempt := state.Attempt + 1
		wait, ok := state.Next(rl.RetryAfter)
		if !ok {
			r.log.Warn().Str("channel", input).Int("attempts", state.Attempt).Msg("rate limited, giving up")
			return ref
		}
		r.log.Warn().
			Dur("wait", wait).
			Msgf("rate limited, retrying (%d/%d)", attempt, state.MaxAttempts)
		if err := r.opts.Sleep(ctx, wait); err != nil {
			r.log.Warn().Err(err).Str("channel", input).Msg("channel lookup cancelled")
			return ref
		}
	}
}

// find pages through the full listing once. It returns "" when no channel
// matches, and fails if the listing hands back a cursor it already served.
func (r *Resolver) find(ctx context.Context, name string) (string, error) {
	cursor := ""
	seen := map[string]bool{}
	for {
		if seen[cursor] {
			return "", fmt.Errorf("channel listing repeated cursor %q", cursor)
		}
		seen[cursor] = true
		page, err := r.lister.ListChannels(ctx, cursor, pageSize)
		if err != nil {
			return "", err
		}
		for _, ch := range page.Channels {
			if ch.Name == name {
				return ch.ID, nil
			}
		}
		if page.NextCursor == "" {
			return "", nil
		}
		cursor = page.NextCursor
	}
}
