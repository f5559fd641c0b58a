package cli

import (
	"github.com/spf13/cobra"

	"github.com/docschat/docschat/internal/gcloud"
)

var setupLogin bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Configure gcloud for the workspace's project",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate gcloud and application-default credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := gcloud.New(logger)
		if err != nil {
			return err
		}
		return cli.Login(cmd.Context())
	},
}

var authSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Point gcloud at the workspace's project and registry",
	Long: `Setup sets the active gcloud project from the workspace tfvars file
and registers the region's Artifact Registry host with docker. Pass
--login to authenticate first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		vars, err := workspaceVars()
		if err != nil {
			return err
		}
		cli, err := gcloud.New(logger)
		if err != nil {
			return err
		}

		if setupLogin {
			if err := cli.Login(ctx); err != nil {
				return err
			}
		}
		return cli.Setup(ctx, vars.ProjectID, vars.Region)
	},
}

func init() {
	authSetupCmd.Flags().BoolVar(&setupLogin, "login", false, "authenticate before configuring")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authSetupCmd)
}
