package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/gcp"
	"github.com/docschat/docschat/internal/history"
	"github.com/docschat/docschat/internal/terraform"
	"github.com/docschat/docschat/pkg/types"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Deploy the workspace (terraform apply)",
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
		vars, err := preflight(cfg, workspace)
		if err != nil {
			return err
		}

		runner, err := newRunner(ctx, cfg)
		if err != nil {
			return err
		}
		if err := runner.EnsureWorkspace(ctx, workspace); err != nil {
			return err
		}

		return recorded(ctx, cfg, workspace, types.OpApply, vars.Image, terraformVersion(ctx, runner), func() error {
			return runner.Apply(ctx, terraform.ApplyOptions{
				VarFile: cfg.TFVarsPath(workspace),
			})
		})
	},
}

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Tear down the workspace (terraform destroy)",
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
		vars, err := preflight(cfg, workspace)
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

		return recorded(ctx, cfg, workspace, types.OpDestroy, vars.Image, terraformVersion(ctx, runner), func() error {
			return runner.Destroy(ctx, cfg.TFVarsPath(workspace))
		})
	},
}

var redeployCmd = &cobra.Command{
	Use:   "redeploy",
	Short: "Force a new Cloud Run revision from the configured image",
	Long: `Redeploy replaces the Cloud Run service resource so a fresh revision
is rolled out even when the image tag is unchanged, then waits until
the new revision is serving.`,
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
		vars, err := preflight(cfg, workspace)
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

		return recorded(ctx, cfg, workspace, types.OpRedeploy, vars.Image, terraformVersion(ctx, runner), func() error {
			if err := runner.Apply(ctx, terraform.ApplyOptions{
				VarFile: cfg.TFVarsPath(workspace),
				Replace: []string{cfg.Settings.ServiceAddress},
			}); err != nil {
				return err
			}
			return waitForService(ctx, cfg, vars)
		})
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what apply would change",
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
		if _, err := preflight(cfg, workspace); err != nil {
			return err
		}

		runner, err := newRunner(ctx, cfg)
		if err != nil {
			return err
		}
		if err := runner.EnsureWorkspace(ctx, workspace); err != nil {
			return err
		}

		summary, err := runner.PlanSummary(ctx, cfg.TFVarsPath(workspace))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary.String())
		return nil
	},
}

// waitForService blocks until the latest Cloud Run revision is ready.
func waitForService(ctx context.Context, cfg *config.Config, vars *config.TFVars) error {
	run, err := gcp.NewRunClient(ctx, vars.ProjectID, vars.Region, logger)
	if err != nil {
		return err
	}
	defer func() { _ = run.Close() }()

	status, err := run.WaitReady(ctx, cfg.Settings.ServiceName)
	if err != nil {
		return err
	}
	logger.Info("service ready",
		zap.String("service", status.Name),
		zap.String("uri", status.URI),
		zap.String("revision", status.LatestReady))
	return nil
}

// terraformVersion reads the runner's terraform version for the
// ledger. Best effort; an unreadable version never blocks a deploy.
func terraformVersion(ctx context.Context, runner *terraform.Runner) string {
	v, err := runner.Version(ctx)
	if err != nil {
		logger.Warn("failed to read terraform version", zap.Error(err))
		return ""
	}
	return v
}

// recorded runs fn and records the outcome in the deployment ledger.
// A broken ledger is logged but never blocks a deployment.
func recorded(ctx context.Context, cfg *config.Config, workspace string, op types.Operation, image, tfVersion string, fn func() error) error {
	store, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		logger.Warn("deployment ledger unavailable", zap.Error(err))
		return fn()
	}
	defer func() { _ = store.Close() }()

	d := &types.Deployment{
		Workspace:        workspace,
		Operation:        op,
		Image:            image,
		TerraformVersion: tfVersion,
	}
	if err := store.Begin(ctx, d); err != nil {
		logger.Warn("failed to record deployment start", zap.Error(err))
		return fn()
	}

	runErr := fn()

	// The ledger update must survive a canceled context.
	finishCtx := context.Background()
	if runErr != nil {
		if err := store.Finish(finishCtx, d.ID, types.StatusFailed, runErr.Error()); err != nil {
			logger.Warn("failed to record deployment failure", zap.Error(err))
		}
		return runErr
	}
	if err := store.Finish(finishCtx, d.ID, types.StatusSucceeded, ""); err != nil {
		logger.Warn("failed to record deployment success", zap.Error(err))
	}
	return nil
}

// confirm asks the user to type y/yes unless assumeYes is set.
func confirm(prompt string, assumeYes bool) (bool, error) {
	if assumeYes {
		return true, nil
	}
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	var answer string
	if _, err := fmt.Scanln(&answer); err != nil {
		return false, nil
	}
	return answer == "y" || answer == "yes" || answer == "Y", nil
}
