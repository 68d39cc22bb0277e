package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/ilkoid/mcp-s3/internal/metrics"
	"github.com/ilkoid/mcp-s3/pkg/mcpserver"
	"github.com/ilkoid/mcp-s3/pkg/utils"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tool over stdin/stdout (default)",
	Long:  "Serve reads JSON-RPC requests from stdin and writes responses to stdout until stdin closes or the process receives SIGINT/SIGTERM. Logs go to stderr or log.file.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, shutdown := utils.SetupGracefulShutdown(cmd.Context())
	defer shutdown()

	comps, err := setup(ctx, false)
	if err != nil {
		return err
	}
	cfg := comps.Config

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, metrics.NewRouter(comps.Metrics)); err != nil {
				utils.Error("metrics server failed", "addr", cfg.Metrics.Addr, "error", err)
			}
		}()
	}

	srv, err := mcpserver.New(cfg.Server.Name, cfg.Server.Version, comps.Registry, cfg.Server.CallTimeout)
	if err != nil {
		return err
	}

	utils.Info("serving", "name", cfg.Server.Name, "version", cfg.Server.Version)
	if err := srv.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, ctx.Err()) {
		utils.Error("stdio server stopped", "error", err)
		return err
	}

	utils.Info("server stopped")
	return nil
}
