package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/soyeahso/jackbot/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent publish runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.History.IsEnabled() {
				return fmt.Errorf("publish history is disabled (history.enabled)")
			}

			db, err := store.Open(paths.HistoryDB(&cfg), log)
			if err != nil {
				return err
			}
			defer db.Close()
			h := store.NewHistoryStore(db)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			if runID != "" {
				run, err := h.Get(runID)
				if err != nil {
					return err
				}
				msgs, err := h.Messages(run.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "Run:\t%s\nGame:\t%s %s\nChannel:\t%s\nStatus:\t%s\nSent:\t%d/%d\n",
					run.ID, run.Game, run.GameID, run.Channel, run.Status, run.Sent, run.Queued)
				if run.Error != "" {
					fmt.Fprintf(w, "Error:\t%s\n", run.Error)
				}
				for _, m := range msgs {
					state := ""
					if m.DeletedAt != nil {
						state = "deleted"
					}
					fmt.Fprintf(w, "  %s\t%s\t%s\n", m.Timestamp, m.Kind, state)
				}
				return nil
			}

			runs, err := h.Recent(limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "STARTED\tGAME\tID\tCHANNEL\tSTATUS\tSENT\tRUN")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%s\n",
					r.StartedAt.Local().Format(time.DateTime), r.Game, r.GameID, r.Channel,
					r.Status, r.Sent, r.Queued, r.ID)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	cmd.Flags().StringVar(&runID, "run", "", "show one run and the messages it posted")
	return cmd
}
