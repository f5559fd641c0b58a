package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docschat/docschat/internal/history"
	"github.com/docschat/docschat/internal/mcpserver"
)

// Build information, set via -ldflags at release time.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "docschat %s\n", Version)
		fmt.Fprintf(out, "Build Time: %s\n", BuildTime)
		fmt.Fprintf(out, "SQLite Driver: %s (%s)\n", history.DriverName, history.BuildMode)
		fmt.Fprintf(out, "MCP Server: %s %s\n", mcpserver.ServerName, mcpserver.ServerVersion)

		cfg, err := loadConfig()
		if err != nil {
			return nil
		}
		runner, err := newRunner(cmd.Context(), cfg)
		if err != nil {
			return nil
		}
		if v, err := runner.Version(cmd.Context()); err == nil {
			fmt.Fprintf(out, "Terraform: %s (%s)\n", v, runner.ExecPath())
		}
		return nil
	},
}
