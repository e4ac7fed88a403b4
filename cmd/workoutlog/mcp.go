package main

import (
	"github.com/claude/workoutlog/internal/kvclient"
	"github.com/claude/workoutlog/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the workout log to MCP clients over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		cfg, log, logCloser, err := loadClient()
		if err != nil {
			return err
		}
		remote := kvclient.New(cfg.ServerURL, cfg.Timeout.Duration).WithAPIKey(cfg.APIKey)
		defer func() { err = multierr.Combine(err, remote.Close(), logCloser.Close()) }()

		log.Info("mcp server starting", "server", cfg.ServerURL)
		return server.ServeStdio(mcp.New(mcp.NewStoreSource(remote), Version, log))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
