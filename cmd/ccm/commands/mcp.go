package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-complexity/pkg/mcpserver"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the analysis over the Model Context Protocol",
	Long: `Runs an MCP server on stdin/stdout exposing the analyze_file,
analyze_source and function_cfg tools.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := mcpserver.Config{
			Version:  cmd.Root().Version,
			Analysis: cfg.AnalysisOptions(),
			Logger:   logger,
		}
		if cfg.CacheEnabled {
			srv.Cache = openCache(cfg, logger)
			defer saveCache(srv.Cache, cfg, logger)
		}

		return mcpserver.New(srv).Run(ctx)
	},
}
