package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"exam-quiz-service/internal/domain"
	"github.com/spf13/cobra"
)

// NewLeaderboardCmd prints the ranking of all users by mean percentage.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			st, err := openStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			standings, err := newService(cfg, st, nil, logger).Standings(cmd.Context())
			if err != nil {
				return err
			}
			printLeaderboard(cmd.OutOrStdout(), standings.Leaderboard)
			return nil
		},
	}
}

func printLeaderboard(out io.Writer, entries []domain.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No attempts recorded yet.")
		return
	}
	fmt.Fprintln(out, "\nLeaderboard")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tUSER\tMEAN\tATTEMPTS")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%.1f%%\t%d\n", e.Rank, e.Username, e.MeanPercentage, e.Attempts)
	}
	_ = w.Flush()
}
