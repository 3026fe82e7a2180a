package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/soyeahso/jackbot/internal/games"
	"github.com/spf13/cobra"
)

func newGamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List supported games",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			reg := games.DefaultRegistry()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GAME\tNAME\tCODE\tASSETS\tALIASES")
			for _, a := range reg.List() {
				assets := a.Format()
				if assets == "" {
					assets = "drawn"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					a.Key(), a.Name(), a.Code(), assets, strings.Join(reg.Aliases(a.Key()), ", "))
			}
			w.Flush()
		},
	}
}
