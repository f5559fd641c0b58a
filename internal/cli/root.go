package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docschat/docschat/internal/config"
	"github.com/docschat/docschat/internal/logging"
	"github.com/docschat/docschat/internal/terraform"
	"github.com/docschat/docschat/pkg/types"
)

var (
	// Global flags
	flagWorkspace  string
	flagProjectDir string
	flagVerbose    bool

	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "docschat",
	Short: "Deploy and serve the docs-chat MCP server",
	Long: `docschat manages the docs-chat MCP server and its Google Cloud
deployment.

It drives terraform against per-workspace variable files in envs/,
provisions the Cloud Run service, Artifact Registry repository and DNS
records, and can itself run as the MCP server (docschat serve) backed
by the Inkeep API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(flagVerbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the CLI. It returns the process exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagWorkspace, "workspace", "w", "",
		"terraform workspace (matches envs/<workspace>.tfvars)")
	rootCmd.PersistentFlags().StringVar(&flagProjectDir, "project-dir", ".",
		"project root holding the terraform configuration")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(redeployCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(workspaceCmd)
	rootCmd.AddCommand(tfCmd)
	rootCmd.AddCommand(artifactsCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// requireWorkspace returns the validated -w flag value.
func requireWorkspace() (string, error) {
	if flagWorkspace == "" {
		return "", types.ErrWorkspaceRequired
	}
	if err := types.ValidateWorkspace(flagWorkspace); err != nil {
		return "", err
	}
	return flagWorkspace, nil
}

// loadConfig resolves project configuration from --project-dir.
func loadConfig() (*config.Config, error) {
	return config.Load(flagProjectDir)
}

// newRunner builds a terraform runner for the project directory.
func newRunner(ctx context.Context, cfg *config.Config) (*terraform.Runner, error) {
	return terraform.NewRunner(ctx, terraform.Options{
		WorkDir:  cfg.ProjectDir,
		ExecPath: cfg.Settings.TerraformPath,
		Version:  cfg.Settings.TerraformVersion,
		Retry:    terraform.DefaultRetryConfig(),
	}, logger)
}

// preflight loads and validates everything a deployment needs: the
// .env file with the API key and the workspace tfvars file. The API
// key is exported as a TF_VAR so terraform child processes inherit it.
func preflight(cfg *config.Config, workspace string) (*config.TFVars, error) {
	if err := cfg.LoadDotenv(); err != nil {
		return nil, err
	}
	key, err := cfg.APIKey()
	if err != nil {
		return nil, err
	}
	if err := os.Setenv("TF_VAR_inkeep_api_key", key); err != nil {
		return nil, err
	}

	vars, err := config.LoadTFVars(cfg.TFVarsPath(workspace))
	if err != nil {
		return nil, err
	}
	return vars, nil
}
