package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/docschat/docschat/internal/history"
	"github.com/docschat/docschat/pkg/types"
)

var (
	historyLimit    int
	historyPruneAge time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the deployment ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := history.Open(cfg.HistoryDBPath())
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		var deployments []*types.Deployment
		if flagWorkspace != "" {
			deployments, err = store.ListByWorkspace(ctx, flagWorkspace, historyLimit)
		} else {
			deployments, err = store.List(ctx, historyLimit)
		}
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tWORKSPACE\tOPERATION\tSTATUS\tDURATION\tIMAGE")
		for _, d := range deployments {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				d.StartedAt.Local().Format("2006-01-02 15:04:05"),
				d.Workspace, d.Operation, d.Status,
				d.Duration().Round(time.Second), d.Image)
		}
		return w.Flush()
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete finished ledger entries older than --age",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := history.Open(cfg.HistoryDBPath())
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		n, err := store.Prune(ctx, time.Now().Add(-historyPruneAge))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d entries\n", n)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum entries to show")
	historyPruneCmd.Flags().DurationVar(&historyPruneAge, "age", 90*24*time.Hour,
		"delete finished entries older than this")

	historyCmd.AddCommand(historyPruneCmd)
}
