package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/docschat/docschat/internal/history"
	"github.com/docschat/docschat/internal/inkeep"
	"github.com/docschat/docschat/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the docs-chat MCP server on stdio",
	Long: `Serve starts the MCP server. It reads the Inkeep API key from the
environment or the project's .env file and speaks the MCP protocol on
stdin/stdout, so all diagnostics go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.LoadDotenv(); err != nil {
			return err
		}
		key, err := cfg.APIKey()
		if err != nil {
			return err
		}

		docs, err := inkeep.NewClient(key)
		if err != nil {
			return err
		}

		// The ledger is optional for serving; without it the
		// deployment_status tool just errors.
		ledger, err := history.Open(cfg.HistoryDBPath())
		if err != nil {
			logger.Warn("deployment ledger unavailable", zap.Error(err))
			ledger = nil
		}

		srv, err := mcpserver.NewServer(docs, ledger)
		if err != nil {
			return err
		}

		logger.Info("mcp server starting",
			zap.String("name", mcpserver.ServerName),
			zap.String("version", mcpserver.ServerVersion))
		return srv.Serve(ctx)
	},
}
