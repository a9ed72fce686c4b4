package main

import (
	"fmt"
	"log/slog"

	"github.com/skillrecordings/support-sub010/internal/api"
	"github.com/skillrecordings/support-sub010/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the triage HTTP API",
		Long: `Serve decisions, outcomes, corrections and send webhooks over HTTP.

Endpoints:
  POST /v1/decide         decide the newest inbound message of a thread
  POST /v1/outcomes       record what happened to a decision
  POST /v1/corrections    capture a human correction
  POST /v1/sends          webhook for sent messages (draft comparison)
  GET  /v1/trust/{app}    list trust scores
  GET  /metrics           Prometheus metrics`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", "", "listen address (default :8080)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	rt, err := buildRuntime(ctx, runtimeOptions{fallback: true, publisher: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			slog.Warn("Failed to close runtime", "error", err)
		}
	}()

	serverCfg := config.LoadServerConfig(viper.GetViper())
	handler := api.NewHandler(rt.engine, rt.registry, slog.Default())

	if err := api.Serve(ctx, serverCfg.Addr, handler.Routes(), serverCfg.ShutdownTimeout, slog.Default()); err != nil {
		return fmt.Errorf("serve failed: %w", err)
	}
	return nil
}
