package app

import (
	"strings"

	"github.com/ktr0731/protoedit/config"
	"github.com/ktr0731/protoedit/logger"
	"github.com/ktr0731/protoedit/server"
	"github.com/spf13/cobra"
)

func (a *App) newServeCommand(flags *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [options ...]",
		Short: "serve the operations over HTTP",
		Long: `serve starts an HTTP server that exposes schema, default, normalize, text and
imports operations for the loaded proto files. Prometheus metrics are served at /metrics.`,
		Example: strings.Join([]string{
			"        $ protoedit --proto api.proto serve                      # listen on the configured address",
			"        $ protoedit --proto api.proto serve --addr 0.0.0.0:9000  # listen on 0.0.0.0:9000",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: runFunc(flags, func(cmd *cobra.Command, cfg *config.Config) error {
			spec, err := a.loadSpec(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a.cui.Info("listening on " + cfg.Server.Addr)
			logger.Printf("serving %d files on %s", len(spec.Files()), cfg.Server.Addr)
			return server.New(spec, server.WithDepth(cfg.Default.Depth)).Serve(ctx, cfg.Server.Addr)
		}),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	f := cmd.Flags()
	initFlagSet(f, a.cui.Writer())
	f.String("addr", "", "the address the server listens on")
	return cmd
}
