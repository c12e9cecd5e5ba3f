package main

import (
	"context"
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/nhle/sprint-board/internal/mcptools"
)

func newMCPCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run an MCP tool server on stdio",
		Long: `Expose the configured user's board to MCP clients over stdin/stdout.
Logs go to the log file so the protocol stream stays clean.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := open(cmd, opts, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			b := rt.board()
			go func() { _ = b.Run(ctx) }()

			if err := mcpserver.ServeStdio(mcptools.NewServer(b, version)); err != nil {
				return fmt.Errorf("serving mcp: %w", err)
			}
			return nil
		},
	}
}
