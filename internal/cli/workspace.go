package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docschat/docschat/internal/terraform"
	"github.com/docschat/docschat/pkg/types"
)

var nukeYes bool

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Manage terraform workspaces",
}

var workspaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List terraform workspaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		runner, err := newRunner(ctx, cfg)
		if err != nil {
			return err
		}

		names, current, err := runner.Workspaces(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			marker := " "
			if name == current {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
		}
		return nil
	},
}

var workspaceNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create the workspace if missing and select it",
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
		return runner.EnsureWorkspace(ctx, workspace)
	},
}

var workspaceNukeCmd = &cobra.Command{
	Use:   "nuke",
	Short: "Destroy everything in the workspace, then delete it",
	Long: `Nuke runs terraform destroy with the workspace's variable file and,
once the destroy succeeds, deletes the terraform workspace itself. The
default workspace can never be nuked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		workspace, err := requireWorkspace()
		if err != nil {
			return err
		}
		if workspace == "default" {
			return terraform.ErrDefaultWorkspace
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		vars, err := preflight(cfg, workspace)
		if err != nil {
			return err
		}

		ok, err := confirm(fmt.Sprintf("Destroy all resources in workspace %q and delete it?", workspace), nukeYes)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return nil
		}

		runner, err := newRunner(ctx, cfg)
		if err != nil {
			return err
		}
		if err := runner.SelectWorkspace(ctx, workspace); err != nil {
			return err
		}

		return recorded(ctx, cfg, workspace, types.OpNuke, vars.Image, terraformVersion(ctx, runner), func() error {
			if err := runner.Destroy(ctx, cfg.TFVarsPath(workspace)); err != nil {
				return err
			}
			return runner.DeleteWorkspace(ctx, workspace)
		})
	},
}

func init() {
	workspaceNukeCmd.Flags().BoolVar(&nukeYes, "yes", false, "skip the confirmation prompt")

	workspaceCmd.AddCommand(workspaceListCmd)
	workspaceCmd.AddCommand(workspaceNewCmd)
	workspaceCmd.AddCommand(workspaceNukeCmd)
}
