package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mohammad-safakhou/flytogether/config"
	srv "github.com/mohammad-safakhou/flytogether/internal/server"
	"github.com/spf13/cobra"
)

func serveCMD(load func() (*config.Config, error)) *cobra.Command {
	var serveAddr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if serveAddr != "" {
				cfg.Server.Address = serveAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, cfg)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.address)")
	return serve
}
