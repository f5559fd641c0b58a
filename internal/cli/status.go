package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/history"
	"github.com/docschat/docschat/internal/terraform"
	"github.com/docschat/docschat/pkg/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the workspace's deployed image and last recorded deployment",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		workspace, err := requireWorkspace()
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		runner, err := newRunner(ctx, cfg)
		if err != nil {
			return err
		}
		if err := runner.SelectWorkspace(ctx, workspace); err != nil {
			return err
		}

		state, err := runner.State(ctx)
		if err != nil {
			return err
		}

		latest := latestDeployment(ctx, cfg, workspace)
		writeStatus(cmd.OutOrStdout(), workspace, terraform.ServiceImage(state), latest)
		return nil
	},
}

// latestDeployment reads the last ledger entry for the workspace.
// Best effort; a missing ledger just leaves the section out.
func latestDeployment(ctx context.Context, cfg *config.Config, workspace string) *types.Deployment {
	store, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		logger.Warn("deployment ledger unavailable", zap.Error(err))
		return nil
	}
	defer func() { _ = store.Close() }()

	latest, err := store.Latest(ctx, workspace)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			logger.Warn("failed to read deployment ledger", zap.Error(err))
		}
		return nil
	}
	return latest
}

func writeStatus(w io.Writer, workspace, image string, latest *types.Deployment) {
	fmt.Fprintf(w, "workspace: %s\n", workspace)
	if image != "" {
		fmt.Fprintf(w, "deployed image: %s\n", image)
	} else {
		fmt.Fprintln(w, "deployed image: none (no service in state)")
	}
	if latest == nil {
		fmt.Fprintln(w, "last deployment: none recorded")
		return
	}
	fmt.Fprintf(w, "last deployment: %s %s at %s (%s)\n",
		latest.Operation, latest.Status,
		latest.StartedAt.Local().Format("2006-01-02 15:04:05"),
		latest.Duration().Round(time.Second))
	if latest.TerraformVersion != "" {
		fmt.Fprintf(w, "terraform: %s\n", latest.TerraformVersion)
	}
	if latest.Error != "" {
		fmt.Fprintf(w, "error: %s\n", latest.Error)
	}
}
