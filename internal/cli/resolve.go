package cli

import (
	"fmt"

	"github.com/soyeahso/jackbot/internal/pipeline"
	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [channel]",
		Short: "Resolve a channel name to its ID",
		Long:  "Resolve looks a channel name up with the selected account. Without an argument the account's configured channel is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			acct, err := cfg.SelectAccount(accountName, true)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				acct.SlackChannel = args[0]
				acct.SlackChannelID = ""
			}

			ref := pipeline.ResolveChannel(cmd.Context(), openBackend(acct), acct, cfg.Retry, nil, log)
			out := cmd.OutOrStdout()
			if !ref.Resolved {
				fmt.Fprintf(out, "%s: not resolved, messages would be sent to %q\n", ref.Input, ref.Target())
				return nil
			}
			fmt.Fprintf(out, "%s: %s\n", ref.Input, ref.ID)
			return nil
		},
	}
}
