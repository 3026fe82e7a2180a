package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/soyeahso/jackbot/internal/config"
	"github.com/soyeahso/jackbot/internal/hooks"
	"github.com/soyeahso/jackbot/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show jackbot status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "jackbot %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:   %s\n", paths.Config)
			fmt.Fprintf(out, "Data:     %s\n", paths.Data)
			fmt.Fprintln(out)

			cfg, err := config.Load(paths.Config)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					fmt.Fprintln(out, "Config:   not found (using defaults)")
				} else {
					fmt.Fprintf(out, "Config:   error loading: %v\n", err)
				}
				return nil
			}

			names := cfg.AccountNames()
			if len(names) > 0 {
				fmt.Fprintf(out, "Accounts: %s (default %s)\n", strings.Join(names, ", "), cfg.DefaultAccount)
			} else {
				fmt.Fprintln(out, "Accounts: (none)")
			}
			fmt.Fprintf(out, "Fishery:  %s\n", cfg.Artifacts.FisheryURL)
			fmt.Fprintf(out, "Retry:    %d attempts, %s initial backoff, x%g\n",
				cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoff, cfg.Retry.Growth)
			fmt.Fprintf(out, "Assets:   %s\n", cfg.AssetDir())

			if cfg.History.IsEnabled() {
				fmt.Fprintf(out, "History:  %s\n", paths.HistoryDB(&cfg))
			} else {
				fmt.Fprintln(out, "History:  disabled")
			}

			hookMgr := hooks.NewManager(log)
			hooks.RegisterConfig(hookMgr, cfg.Hooks)
			var hookSummary []string
			for _, ev := range hookMgr.Events() {
				hookSummary = append(hookSummary, fmt.Sprintf("%s=%d", ev, hookMgr.Count(ev)))
			}
			if len(hookSummary) > 0 {
				fmt.Fprintf(out, "Hooks:    %s\n", strings.Join(hookSummary, " "))
			} else {
				fmt.Fprintln(out, "Hooks:    (none)")
			}

			if irc := cfg.Announce.IRC; irc != nil {
				fmt.Fprintf(out, "IRC:      %s as %s -> %s\n", irc.Server, irc.Nick, strings.Join(irc.Channels, ", "))
			}

			issues := config.Validate(&cfg)
			for _, name := range names {
				issues = append(issues, config.ValidateAccount(name, cfg.Accounts[name], true)...)
			}
			if len(issues) > 0 {
				fmt.Fprintf(out, "\n%d config issue(s):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  %s\n", issue)
				}
			}
			return nil
		},
	}

	return cmd
}
