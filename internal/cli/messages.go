package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/soyeahso/jackbot/internal/config"
	"github.com/soyeahso/jackbot/internal/domain"
	"github.com/soyeahso/jackbot/internal/pipeline"
	"github.com/soyeahso/jackbot/internal/store"
	"github.com/spf13/cobra"
)

func newMessagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "List or delete messages this bot posted",
	}

	cmd.AddCommand(newMessagesListCmd())
	cmd.AddCommand(newMessagesDeleteCmd())
	return cmd
}

// accountChannel loads config and opens the backend and channel of the
// selected account.
func accountChannel(ctx context.Context) (config.Config, domain.Backend, domain.ChannelRef, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, nil, domain.ChannelRef{}, err
	}
	acct, err := cfg.SelectAccount(accountName, true)
	if err != nil {
		return cfg, nil, domain.ChannelRef{}, err
	}
	backend := openBackend(acct)
	ch := pipeline.ResolveChannel(ctx, backend, acct, cfg.Retry, nil, log)
	return cfg, backend, ch, nil
}

// ownMessages returns the recent messages in channel posted by the
// backend's own user, newest first.
func ownMessages(ctx context.Context, b domain.Backend, channel string, limit int) ([]domain.PostedMessage, error) {
	me, err := b.AuthUserID(ctx)
	if err != nil {
		return nil, fmt.Errorf("identify bot user: %w", err)
	}
	recent, err := b.RecentMessages(ctx, channel, limit)
	if err != nil {
		return nil, fmt.Errorf("read channel history: %w", err)
	}

	var own []domain.PostedMessage
	for _, m := range recent {
		if m.UserID == me {
			own = append(own, m)
		}
	}
	return own, nil
}

// deleteMessages removes each timestamp from channel, continuing past
// failures. onDeleted is called for every removed message.
func deleteMessages(ctx context.Context, b domain.Backend, channel string, tss []string, onDeleted func(ts string)) (ok, failed int) {
	for _, ts := range tss {
		if err := b.DeleteMessage(ctx, channel, ts); err != nil {
			log.Warn().Err(err).Str("ts", ts).Msg("failed to delete message")
			failed++
			continue
		}
		ok++
		if onDeleted != nil {
			onDeleted(ts)
		}
	}
	return ok, failed
}

func newMessagesListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List this bot's recent messages in the account's channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			_, backend, ch, err := accountChannel(ctx)
			if err != nil {
				return err
			}

			msgs, err := ownMessages(ctx, backend, ch.Target(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(msgs) == 0 {
				fmt.Fprintf(out, "No messages from this bot in %s\n", ch)
				return nil
			}
			for _, m := range msgs {
				fmt.Fprintf(out, "%s  %s  %s\n", m.Timestamp, m.Time.Local().Format(time.DateTime), summarize(m))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "number of channel messages to scan")
	return cmd
}

func newMessagesDeleteCmd() *cobra.Command {
	var (
		all   bool
		yes   bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "delete [ts...]",
		Short: "Delete messages by timestamp, or all of this bot's recent messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return fmt.Errorf("give message timestamps or --all, not both")
			}

			ctx := cmd.Context()
			cfg, backend, ch, err := accountChannel(ctx)
			if err != nil {
				return err
			}

			tss := args
			if all {
				msgs, err := ownMessages(ctx, backend, ch.Target(), limit)
				if err != nil {
					return err
				}
				tss = tss[:0]
				for _, m := range msgs {
					tss = append(tss, m.Timestamp)
				}
			}
			out := cmd.OutOrStdout()
			if len(tss) == 0 {
				fmt.Fprintln(out, "Nothing to delete")
				return nil
			}
			if !yes && !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Delete %d message(s) from %s?", len(tss), ch)) {
				fmt.Fprintln(out, "Aborted")
				return nil
			}

			var onDeleted func(string)
			if cfg.History.IsEnabled() {
				db, err := store.Open(paths.HistoryDB(&cfg), log)
				if err != nil {
					return err
				}
				defer db.Close()
				history := store.NewHistoryStore(db)
				onDeleted = func(ts string) {
					if err := history.MarkDeleted(ch.Target(), ts); err != nil {
						log.Warn().Err(err).Str("ts", ts).Msg("failed to update message ledger")
					}
				}
			}

			ok, failed := deleteMessages(ctx, backend, ch.Target(), tss, onDeleted)
			fmt.Fprintf(out, "Deleted %d message(s), %d failed\n", ok, failed)
			if failed > 0 {
				return fmt.Errorf("%d message(s) could not be deleted", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "delete all of this bot's recent messages")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	cmd.Flags().IntVar(&limit, "limit", 50, "number of channel messages to scan with --all")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func summarize(m domain.PostedMessage) string {
	text := strings.Join(strings.Fields(m.Text), " ")
	if r := []rune(text); len(r) > 60 {
		text = string(r[:57]) + "..."
	}
	if m.HasFiles {
		text = "[file] " + text
	}
	return text
}
