package batch

import (
	"context"
	"fmt"

	"github.com/soyeahso/jackbot/internal/domain"
	"github.com/soyeahso/jackbot/internal/logging"
)

// Sender is the part of domain.Backend the dispatcher needs.
type Sender interface {
	PostMessage(ctx context.Context, channel, text string, blocks []domain.Block, threadAnchor string) (string, error)
	UploadFile(ctx context.Context, channel string, file domain.FileUpload, threadAnchor string) error
}

// State is the dispatcher lifecycle.
type State string

const (
	StateNoClient State = "no_client"
	StateSending  State = "sending"
	StateFailed   State = "failed"
	StateDone     State = "done"
)

// DispatchError reports the intent that stopped a dispatch.
type DispatchError struct {
	Index int
	Kind  domain.IntentKind
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("failed to send message %d (%s): %v", e.Index+1, e.Kind, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Result summarizes a dispatch.
type Result struct {
	Anchor     string   // timestamp of the intro, "" if none was sent
	Sent       int      // intents delivered, or logged in a dry run
	Timestamps []string // timestamps returned for posted messages, intro first
}

// Dispatcher delivers intents in order to one channel.
type Dispatcher struct {
	sender  Sender
	channel domain.ChannelRef
	state   State
	log     *logging.Logger
}

// NewDispatcher creates a Dispatcher. A nil sender makes every send a
// logged no-op.
func NewDispatcher(sender Sender, channel domain.ChannelRef, log *logging.Logger) *Dispatcher {
	d := &Dispatcher{sender: sender, channel: channel, state: StateSending, log: log.Sub("dispatch")}
	if sender == nil {
		d.state = StateNoClient
	}
	return d
}

// State returns the current lifecycle state.
func (d *Dispatcher) State() State { return d.state }

// Channel returns the destination channel.
func (d *Dispatcher) Channel() domain.ChannelRef { return d.channel }

// Dispatch sends intents in order. The intro's timestamp becomes the thread
// anchor for every threaded intent after it. The first failure stops the
// dispatch; nothing is retried.
func (d *Dispatcher) Dispatch(ctx context.Context, intents []domain.MessageIntent) (Result, error) {
	var res Result

	if d.state == StateNoClient {
		d.log.Info().Int("count", len(intents)).Msg("no messaging client configured, skipping send")
		for i, intent := range intents {
			d.log.Debug().Int("index", i).Str("kind", string(intent.Kind)).Msg("dry run")
		}
		res.Sent = len(intents)
		return res, nil
	}
	if d.state != StateSending {
		return res, fmt.Errorf("dispatcher already %s", d.state)
	}

	channel := d.channel.Target()
	d.log.Info().Int("count", len(intents)).Str("channel", channel).Msg("sending queued messages")

	for i, intent := range intents {
		anchor := ""
		if intent.Threaded() {
			anchor = res.Anchor
		}

		ts, err := d.send(ctx, channel, intent, anchor)
		if err != nil {
			d.state = StateFailed
			d.log.Error().Err(err).Int("index", i).Str("kind", string(intent.Kind)).Msg("failed to send messages")
			return res, &DispatchError{Index: i, Kind: intent.Kind, Err: err}
		}

		if intent.Kind == domain.IntentIntro && res.Anchor == "" {
			res.Anchor = ts
			d.log.Info().Str("thread_ts", ts).Msg("sent intro message")
		}
		if ts != "" {
			res.Timestamps = append(res.Timestamps, ts)
		}
		res.Sent++
	}

	d.state = StateDone
	d.log.Info().Int("sent", res.Sent).Msg("all messages sent successfully")
	return res, nil
}

func (d *Dispatcher) send(ctx context.Context, channel string, intent domain.MessageIntent, anchor string) (string, error) {
	switch intent.Kind {
	case domain.IntentIntro:
		if intent.Intro == nil {
			return "", fmt.Errorf("intro intent has no payload")
		}
		return d.sender.PostMessage(ctx, channel, intent.Intro.Text, intent.Intro.Blocks, "")
	case domain.IntentFile:
		if intent.File == nil {
			return "", fmt.Errorf("file intent has no payload")
		}
		return "", d.sender.UploadFile(ctx, channel, *intent.File, anchor)
	case domain.IntentChat:
		if intent.Chat == nil {
			return "", fmt.Errorf("chat intent has no payload")
		}
		return d.sender.PostMessage(ctx, channel, intent.Chat.Text, intent.Chat.Blocks, anchor)
	default:
		return "", fmt.Errorf("unknown intent kind %q", intent.Kind)
	}
}
