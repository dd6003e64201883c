// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/authenticaproj/authentica/internal/logging"
	"github.com/authenticaproj/authentica/internal/tool"
	"github.com/authenticaproj/authentica/internal/web"
)

const defaultAddress = "127.0.0.1:8080"

func newServeCmd(a *app) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if logging.ParseLogLevel(a.logLevel) > slog.LevelDebug {
				gin.SetMode(gin.ReleaseMode)
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return web.Serve(ctx, address, p)
		},
	}
	cmd.Flags().StringVarP(&address, "addr", "a", defaultAddress, "Address to listen on")
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the analysis tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			slog.Debug("mcp server starting", "version", version)
			return tool.NewServer(p, version).Run(ctx, &mcp.StdioTransport{})
		},
	}
}
