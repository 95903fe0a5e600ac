package cli

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/carbon-tracker/internal/catalog"
	"github.com/sakif/carbon-tracker/internal/server"
	"github.com/sakif/carbon-tracker/internal/service"
)

func newLeaderboardCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the users with the most points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.applyStoreFlags(cmd)

			provider, err := server.OpenProvider(a.cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := provider.Close(); err != nil {
					a.logger.Warn("closing storage", slog.String("error", err.Error()))
				}
			}()

			h, err := provider.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()

			rewards := service.NewRewards(catalog.Default(), a.logger, nil)
			board, err := rewards.Leaderboard(cmd.Context(), h, limit)
			if err != nil {
				return err
			}

			if len(board) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users yet.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tUSER\tNAME\tPOINTS")
			for _, e := range board {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", e.Rank, e.Username, e.DisplayName, e.Points)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultLeaderboardLimit, "number of users to show")
	return cmd
}
