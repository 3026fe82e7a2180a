// Package pipeline publishes one game's results: it resolves the channel,
// fetches the payload, has the game adapter build a batch and dispatches it.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/soyeahso/jackbot/internal/artifact"
	"github.com/soyeahso/jackbot/internal/batch"
	"github.com/soyeahso/jackbot/internal/config"
	"github.com/soyeahso/jackbot/internal/domain"
	"github.com/soyeahso/jackbot/internal/games"
	"github.com/soyeahso/jackbot/internal/hooks"
	"github.com/soyeahso/jackbot/internal/logging"
	"github.com/soyeahso/jackbot/internal/render"
	"github.com/soyeahso/jackbot/internal/resolver"
	"github.com/soyeahso/jackbot/internal/retry"
	"github.com/soyeahso/jackbot/internal/store"
)

// ErrNoGame is returned when neither a game name nor a gallery URL names the game.
var ErrNoGame = errors.New("no game given and none found in the game URL")

// Fetcher downloads result payloads and assets.
type Fetcher interface {
	games.AssetFetcher
	FetchResult(ctx context.Context, url string) (json.RawMessage, error)
}

// Announcer tells a secondary destination about a published game.
type Announcer interface {
	Announce(ctx context.Context, text string) error
}

// BackendFactory opens the messaging backend of an account.
type BackendFactory func(acct config.Account) domain.Backend

// Request describes one publish.
type Request struct {
	Game      string // adapter name or alias; "" infers it from a gallery URL
	Input     string // game id or gallery URL
	Account   string // "" uses the configured default
	DryRun    bool   // build the batch but send nothing
	KeepFiles bool   // dry run only: leave the rendered files on disk
}

// Report summarizes a publish.
type Report struct {
	RunID   string
	Game    string
	GameID  string
	Gallery string
	Channel domain.ChannelRef
	Anchor  string
	Queued  int
	Sent    int
	DryRun  bool
	WorkDir string // set when files were kept
}

// Deps are the collaborators of a Publisher. History, Hooks and Announcer
// are optional.
type Deps struct {
	Config     *config.Config
	Registry   *games.Registry
	Fetcher    Fetcher
	Renderer   render.Renderer
	NewBackend BackendFactory
	History    *store.HistoryStore
	Hooks      *hooks.Manager
	Announcer  Announcer
	Sleep      retry.SleepFunc
	Log        *logging.Logger
}

// Publisher runs the publish pipeline.
type Publisher struct {
	deps Deps
	log  *logging.Logger
}

// New creates a Publisher.
func New(deps Deps) *Publisher {
	if deps.Registry == nil {
		deps.Registry = games.DefaultRegistry()
	}
	if deps.Renderer == nil {
		deps.Renderer = render.PNGRenderer{}
	}
	return &Publisher{deps: deps, log: deps.Log.Sub("pipeline")}
}

// run tracks the bookkeeping of one Publish call.
type run struct {
	id     string
	report *Report
	p      *Publisher
}

func (r *run) data(err error) map[string]any {
	d := map[string]any{
		"run_id":  r.id,
		"game":    r.report.Game,
		"game_id": r.report.GameID,
		"channel": r.report.Channel.Target(),
		"anchor":  r.report.Anchor,
		"queued":  r.report.Queued,
		"sent":    r.report.Sent,
		"dry_run": r.report.DryRun,
	}
	if err != nil {
		d["error"] = err.Error()
	}
	return d
}

func (r *run) finish(ctx context.Context, status, event string, err error) {
	if event != "" {
		r.p.deps.Hooks.Emit(context.WithoutCancel(ctx), event, r.data(err))
	}
	if r.p.deps.History == nil {
		return
	}
	out := store.Outcome{
		Status: status,
		Anchor: r.report.Anchor,
		Queued: r.report.Queued,
		Sent:   r.report.Sent,
		Err:    err,
	}
	if herr := r.p.deps.History.Finish(r.id, out); herr != nil {
		r.p.log.Warn().Err(herr).Str("run", r.id).Msg("failed to record publish history")
	}
}

// Publish runs the pipeline for req. Nothing is sent unless the whole batch
// was built; once dispatch starts it is not interrupted by ctx.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Report, error) {
	cfg := p.deps.Config

	in := games.ParseGameInput(req.Input)
	if in.ID == "" {
		return nil, fmt.Errorf("no game id given")
	}
	name := req.Game
	if name == "" {
		name = in.Type
	}
	if name == "" {
		return nil, ErrNoGame
	}
	adapter, err := p.deps.Registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	accountName := req.Account
	if accountName == "" {
		accountName = cfg.DefaultAccount
	}
	acct, err := cfg.SelectAccount(accountName, !req.DryRun)
	if err != nil {
		return nil, err
	}

	urls := artifact.New(artifact.Endpoints{
		Fishery: cfg.Artifacts.FisheryURL,
		Gallery: cfg.Artifacts.GalleryURL,
		Blob:    cfg.Artifacts.BlobURL,
	}, adapter.Code(), in.ID, adapter.Format())

	r := &run{
		id: uuid.New().String(),
		p:  p,
		report: &Report{
			Game:    adapter.Key(),
			GameID:  in.ID,
			Gallery: urls.Gallery(),
			DryRun:  req.DryRun,
		},
	}
	if p.deps.History != nil {
		rec, herr := p.deps.History.Begin(store.PublishRun{
			ID:      r.id,
			Game:    adapter.Key(),
			GameID:  in.ID,
			Account: accountName,
		})
		if herr != nil {
			p.log.Warn().Err(herr).Msg("failed to record publish history")
		} else {
			r.id = rec.ID
		}
	}
	r.report.RunID = r.id

	log := p.log.With("run", r.id)
	log.Info().
		Str("game", adapter.Name()).
		Str("id", in.ID).
		Str("account", accountName).
		Bool("dryRun", req.DryRun).
		Msg("publishing game")

	var sender batch.Sender
	if req.DryRun {
		r.report.Channel = domain.ChannelRef{Input: acct.SlackChannel}
	} else {
		backend := p.deps.NewBackend(acct)
		sender = backend
		r.report.Channel = ResolveChannel(ctx, backend, acct, cfg.Retry, p.deps.Sleep, p.deps.Log)
	}
	if p.deps.History != nil && r.report.Channel.Target() != "" {
		if herr := p.deps.History.SetChannel(r.id, r.report.Channel.Target()); herr != nil {
			log.Warn().Err(herr).Msg("failed to record channel")
		}
	}

	payload, err := p.deps.Fetcher.FetchResult(ctx, urls.Data())
	if err != nil {
		err = fmt.Errorf("fetch %s result: %w", adapter.Name(), err)
		r.finish(ctx, store.StatusFailed, "", err)
		return r.report, err
	}
	p.deps.Hooks.Emit(ctx, hooks.EventGameFetched, r.data(nil))

	workDir := filepath.Join(cfg.AssetDir(), r.id)
	if err := os.MkdirAll(workDir, 0o700); err != nil {
		err = fmt.Errorf("create work dir: %w", err)
		r.finish(ctx, store.StatusFailed, "", err)
		return r.report, err
	}
	keep := req.DryRun && req.KeepFiles
	if !keep {
		defer os.RemoveAll(workDir)
	}

	env := &games.Env{
		Fetcher:  p.deps.Fetcher,
		Renderer: p.deps.Renderer,
		URLs:     urls,
		WorkDir:  workDir,
		Log:      log,
	}
	b, err := adapter.Build(ctx, payload, env)
	if err != nil {
		r.finish(ctx, store.StatusAborted, hooks.EventBatchAborted, err)
		return r.report, err
	}
	r.report.Queued = b.Len()

	if err := ctx.Err(); err != nil {
		b.Abort(true)
		r.finish(ctx, store.StatusAborted, hooks.EventBatchAborted, err)
		return r.report, err
	}

	d := batch.NewDispatcher(sender, r.report.Channel, log)
	var res batch.Result
	if keep {
		res, err = d.Dispatch(ctx, b.Intents())
		b.Abort(false)
		r.report.WorkDir = workDir
	} else {
		res, err = b.DrainAndSend(context.WithoutCancel(ctx), d)
	}
	r.report.Anchor = res.Anchor
	r.report.Sent = res.Sent
	p.recordMessages(r, res)

	if err != nil {
		r.finish(ctx, store.StatusFailed, hooks.EventBatchFailed, err)
		return r.report, err
	}

	if req.DryRun {
		r.finish(ctx, store.StatusDryRun, "", nil)
		return r.report, nil
	}
	r.finish(ctx, store.StatusDispatched, hooks.EventBatchDispatched, nil)
	p.announce(ctx, adapter, r.report)
	return r.report, nil
}

// ResolveChannel returns the account's channel, resolving its name through
// lister unless the account pins a channel ID.
func ResolveChannel(ctx context.Context, lister resolver.ChannelLister, acct config.Account, rc config.RetryConfig, sleep retry.SleepFunc, log *logging.Logger) domain.ChannelRef {
	if acct.SlackChannelID != "" {
		return domain.ChannelRef{Input: acct.SlackChannel, ID: acct.SlackChannelID, Resolved: true}
	}
	res := resolver.New(lister, resolver.Options{
		MaxAttempts:    rc.MaxAttempts,
		InitialBackoff: rc.InitialBackoff,
		Growth:         rc.Growth,
		Sleep:          sleep,
	}, log)
	return res.Resolve(ctx, acct.SlackChannel)
}

func (p *Publisher) recordMessages(r *run, res batch.Result) {
	if p.deps.History == nil || r.report.DryRun {
		return
	}
	for i, ts := range res.Timestamps {
		kind := string(domain.IntentChat)
		if i == 0 && ts == res.Anchor {
			kind = string(domain.IntentIntro)
		}
		if err := p.deps.History.RecordMessage(r.id, r.report.Channel.Target(), ts, kind); err != nil {
			p.log.Warn().Err(err).Str("ts", ts).Msg("failed to record posted message")
		}
	}
}

func (p *Publisher) announce(ctx context.Context, adapter games.Adapter, rep *Report) {
	if p.deps.Announcer == nil {
		return
	}
	text := fmt.Sprintf("%s results for %s posted to %s (%d messages): %s",
		adapter.Name(), rep.GameID, rep.Channel.Input, rep.Sent, rep.Gallery)
	if err := p.deps.Announcer.Announce(ctx, text); err != nil {
		p.log.Warn().Err(err).Msg("announce failed")
	}
}
