// Package batch queues the messages for one published game and delivers
// them as a single threaded conversation.
package batch

import (
	"context"
	"errors"
	"os"
	"slices"

	"github.com/soyeahso/jackbot/internal/domain"
	"github.com/soyeahso/jackbot/internal/logging"
)

// ErrDuplicateIntro is returned when a batch already has an intro.
var ErrDuplicateIntro = errors.New("batch already has an intro message")

// Batch is an ordered list of message intents plus the local files they
// reference. A Batch is used by one goroutine.
type Batch struct {
	intents  []domain.MessageIntent
	tracked  []string
	hasIntro bool
	log      *logging.Logger
}

// New creates an empty Batch.
func New(log *logging.Logger) *Batch {
	return &Batch{log: log.Sub("batch")}
}

// QueueIntro places the intro at the front of the batch.
func (b *Batch) QueueIntro(text string, blocks []domain.Block) error {
	if b.hasIntro {
		return ErrDuplicateIntro
	}
	intent := domain.MessageIntent{
		Kind:  domain.IntentIntro,
		Intro: &domain.IntroMessage{Text: text, Blocks: blocks},
	}
	b.intents = slices.Insert(b.intents, 0, intent)
	b.hasIntro = true
	return nil
}

// QueueFile appends a file upload and tracks path for cleanup.
func (b *Batch) QueueFile(path, title, caption string, threadToIntro bool) {
	b.intents = append(b.intents, domain.MessageIntent{
		Kind: domain.IntentFile,
		File: &domain.FileUpload{Path: path, Title: title, Caption: caption, ThreadToIntro: threadToIntro},
	})
	b.Track(path)
}

// QueueChat appends a text message.
func (b *Batch) QueueChat(text string, blocks []domain.Block, threadToIntro bool) {
	b.intents = append(b.intents, domain.MessageIntent{
		Kind: domain.IntentChat,
		Chat: &domain.ChatMessage{Text: text, Blocks: blocks, ThreadToIntro: threadToIntro},
	})
}

// Track registers a local file for deletion when the batch is drained or
// aborted, even if no intent references it.
func (b *Batch) Track(path string) {
	if path != "" && !slices.Contains(b.tracked, path) {
		b.tracked = append(b.tracked, path)
	}
}

// Intents returns a copy of the queued intents in send order.
func (b *Batch) Intents() []domain.MessageIntent {
	return slices.Clone(b.intents)
}

// Len returns the number of queued intents.
func (b *Batch) Len() int { return len(b.intents) }

// Tracked returns a copy of the files pending cleanup.
func (b *Batch) Tracked() []string {
	return slices.Clone(b.tracked)
}

// DrainAndSend dispatches the batch and then clears it, deleting every
// tracked file whether or not the dispatch succeeded.
func (b *Batch) DrainAndSend(ctx context.Context, d *Dispatcher) (res Result, err error) {
	defer b.clear(true)
	return d.Dispatch(ctx, b.intents)
}

// Abort drops every queued intent without contacting the backend. Without
// cleanup the tracked files stay on disk.
func (b *Batch) Abort(cleanup bool) {
	if cleanup {
		b.log.Warn().Int("queued", len(b.intents)).Msg("aborting batch")
	} else {
		b.log.Info().Int("queued", len(b.intents)).Int("kept", len(b.tracked)).Msg("dropping batch, keeping files")
	}
	b.clear(cleanup)
}

func (b *Batch) clear(cleanup bool) {
	if cleanup {
		for _, path := range b.tracked {
			err := os.Remove(path)
			switch {
			case err == nil:
				b.log.Debug().Str("path", path).Msg("cleaned up file")
			case !errors.Is(err, os.ErrNotExist):
				b.log.Warn().Err(err).Str("path", path).Msg("failed to clean up file")
			}
		}
	}
	b.intents = nil
	b.tracked = nil
	b.hasIntro = false
}
