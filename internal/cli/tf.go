package cli

import (
	"github.com/spf13/cobra"

	"github.com/docschat/docschat/internal/terraform"
)

var (
	initUpgrade     bool
	initReconfigure bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the terraform working directory",
	Long: `Init runs terraform init against the project directory. Use --upgrade
to pull newer provider versions within the configured constraints, and
--reconfigure to reset the backend configuration.`,
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
		return runner.Init(ctx, terraform.InitOptions{
			Upgrade:     initUpgrade,
			Reconfigure: initReconfigure,
		})
	},
}

var tfCmd = &cobra.Command{
	Use:   "tf -- <terraform args>",
	Short: "Run an arbitrary terraform command in the project directory",
	Long: `tf passes its arguments straight to the resolved terraform binary,
with stdin, stdout and stderr attached. When -w is given the workspace
is selected first. Useful for one-off commands like
"docschat tf -- state list".`,
	Args: cobra.MinimumNArgs(1),
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
		if flagWorkspace != "" {
			workspace, err := requireWorkspace()
			if err != nil {
				return err
			}
			if err := runner.SelectWorkspace(ctx, workspace); err != nil {
				return err
			}
		}
		return runner.RunRaw(ctx, args...)
	},
}

func init() {
	initCmd.Flags().BoolVar(&initUpgrade, "upgrade", false, "upgrade provider versions")
	initCmd.Flags().BoolVar(&initReconfigure, "reconfigure", false, "reconfigure the backend")
}
