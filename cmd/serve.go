package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/angeloszaimis/backup-config/config"
	"github.com/angeloszaimis/backup-config/internal/httpserver"
	"github.com/angeloszaimis/backup-config/internal/metrics"
	"github.com/angeloszaimis/backup-config/internal/render"
)

const metricsBufferSize = 1000

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the renderer over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runServe(ctx, a)
		},
	}

	cmd.Flags().String("address", config.DefaultAddress, "listen address")
	bindFlag(a.viper, config.KeyAddress, cmd.Flags().Lookup("address"))

	return cmd
}

func runServe(ctx context.Context, a *app) error {
	collector := metrics.NewCollector(metricsBufferSize, a.logger)
	collector.Start(ctx)

	renderer := render.New(render.Options{
		Namespace:  a.cfg.Render.Namespace,
		ClientLink: a.cfg.Render.ClientLink,
		Logger:     a.logger,
		Collector:  collector,
	})

	srv, err := httpserver.New(a.cfg.Server.Address, setupRouter(a.logger, renderer, collector), a.logger)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
