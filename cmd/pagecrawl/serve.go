package main

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"pagecrawl/internal/api"
	"pagecrawl/internal/app"
	"pagecrawl/internal/fetcher"
)

var flagAddr string

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the crawler HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			// remote callers never get to read local files
			d, err := bootstrap(fetcher.WithoutLocalFiles())
			if err != nil {
				return err
			}
			defer d.close()

			addr := d.cfg.Server.Addr
			if flagAddr != "" {
				addr = flagAddr
			}
			if !flagDebug {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, cancel := app.GracefulShutdown(cmd.Context(), d.logger)
			defer cancel()

			srv := api.NewServer(addr, d.cfg.GetShutdownTimeout(), d.orchestrator, d.registry, d.logger)
			return srv.Run(ctx)
		},
	}

	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}
