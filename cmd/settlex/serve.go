package main

import (
	"github.com/spf13/cobra"

	"github.com/settlex/settlex/pkg/httpserver"
	"github.com/settlex/settlex/pkg/logger"
)

func newServeCmd(envFiles *[]string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cfg serveConfig
			if err := loadConfig(&cfg, *envFiles); err != nil {
				return err
			}
			log := newLogger(cfg.App)
			ctx := cmd.Context()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				log.ErrorContext(ctx, "failed to initialize", logger.Error(err))
				return err
			}
			defer a.close()

			srv, err := newServer(a)
			if err != nil {
				return err
			}
			return httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, srv.routes())
		},
	}
}
