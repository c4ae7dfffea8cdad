package main

import (
	"fmt"

	"github.com/jwulff/clipcam/internal/db"
	"github.com/jwulff/clipcam/internal/logging"
	"github.com/jwulff/clipcam/internal/mcpserver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the clip library to MCP clients over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// stdout carries the protocol.
			log, err := logging.New(cfg.LogPath, cfg.Debug)
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := db.Open(cfg.DBPath, cfg.LibraryDir)
			if err != nil {
				return fmt.Errorf("open library: %w", err)
			}
			defer store.Close()

			log.Info("mcp server starting", zap.String("db", cfg.DBPath))
			return mcpserver.Serve(mcpserver.New(store, version, log))
		},
	}
}
