package main

import (
	"fmt"

	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/logging"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/mcpserver"
	"github.com/FATEC-BOYS/viu-frontend-sub000/internal/store"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve stored feedback to MCP clients over stdio",
		Long: `Serve stored feedback to MCP clients over stdio.

The database is opened read-only. Tools: list_feedback, list_replies.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			// stdout carries the protocol, so logs only go to the file.
			logger, closer, err := logging.Open(cfg.Log.File, cfg.Log.Level)
			if err != nil {
				return err
			}
			defer closer.Close()

			st, err := store.Open(cfg.Database.Path, store.ReadOnly(), store.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer st.Close()

			logger.Info().Str("db", cfg.Database.Path).Msg("mcp server starting")
			return server.ServeStdio(mcpserver.New(st, Version, logger))
		},
	}
}
