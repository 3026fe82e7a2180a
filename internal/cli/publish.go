package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soyeahso/jackbot/internal/channel/irc"
	"github.com/soyeahso/jackbot/internal/config"
	"github.com/soyeahso/jackbot/internal/fetch"
	"github.com/soyeahso/jackbot/internal/games"
	"github.com/soyeahso/jackbot/internal/hooks"
	"github.com/soyeahso/jackbot/internal/pipeline"
	"github.com/soyeahso/jackbot/internal/store"
	"github.com/spf13/cobra"
)

func newPublishCmd() *cobra.Command {
	var (
		game      string
		id        string
		dryRun    bool
		keepFiles bool
	)

	cmd := &cobra.Command{
		Use:   "publish [id|url]",
		Short: "Publish a game's results to the account's channel",
		Example: `  jackbot publish -g quiplash2 -i abc123
  jackbot publish http://games.jackbox.tv/artifact/BRKGame/abc123/
  jackbot publish -g teeko -i abc123 --dry-run --keep-files`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" && len(args) == 1 {
				id = args[0]
			}
			if id == "" {
				return fmt.Errorf("a game id or URL is required (-i)")
			}
			if keepFiles && !dryRun {
				return fmt.Errorf("--keep-files only applies with --dry-run")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pub, closeFn, err := buildPublisher(&cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			rep, err := pub.Publish(ctx, pipeline.Request{
				Game:      game,
				Input:     id,
				Account:   accountName,
				DryRun:    dryRun,
				KeepFiles: keepFiles,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case rep.DryRun:
				fmt.Fprintf(out, "Dry run: %d message(s) built for %s %s\n", rep.Queued, rep.Game, rep.GameID)
				if rep.WorkDir != "" {
					fmt.Fprintf(out, "Files kept in %s\n", rep.WorkDir)
				}
			default:
				fmt.Fprintf(out, "Published %s %s to %s: %d message(s), thread %s\n",
					rep.Game, rep.GameID, rep.Channel, rep.Sent, rep.Anchor)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&game, "game", "g", "", "game adapter (see 'jackbot games'); inferred from a gallery URL")
	cmd.Flags().StringVarP(&id, "id", "i", "", "game id or gallery URL")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build the messages without sending them")
	cmd.Flags().BoolVar(&keepFiles, "keep-files", false, "keep rendered files after a dry run")

	return cmd
}

// buildPublisher wires a Publisher from configuration. The returned func
// releases what it opened.
func buildPublisher(cfg *config.Config) (*pipeline.Publisher, func(), error) {
	closeFn := func() {}

	fetcher := fetch.New(nil, fetch.Options{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		GenerateDelay: cfg.Artifacts.GenerateDelay,
		Growth:        cfg.Retry.Growth,
		Timeout:       cfg.Artifacts.Timeout,
	}, log)

	hookMgr := hooks.NewManager(log)
	hooks.RegisterConfig(hookMgr, cfg.Hooks)

	deps := pipeline.Deps{
		Config:     cfg,
		Registry:   games.DefaultRegistry(),
		Fetcher:    fetcher,
		NewBackend: openBackend,
		Hooks:      hookMgr,
		Log:        log,
	}

	if cfg.History.IsEnabled() {
		db, err := store.Open(paths.HistoryDB(cfg), log)
		if err != nil {
			return nil, closeFn, err
		}
		deps.History = store.NewHistoryStore(db)
		closeFn = func() { db.Close() }
	}

	if cfg.Announce.IRC != nil {
		deps.Announcer = irc.New(*cfg.Announce.IRC, log)
	}

	return pipeline.New(deps), closeFn, nil
}
