package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/railcar/pkg/buildinfo"
	"github.com/matzehuels/railcar/pkg/cache"
	"github.com/matzehuels/railcar/pkg/catalog"
	"github.com/matzehuels/railcar/pkg/deploy"
	"github.com/matzehuels/railcar/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags evalFlags
		addr  string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve evaluated catalogs over HTTP",
		Long: `Start an HTTP server that evaluates the configured manifest on request.

Routes:
  GET /healthz
  GET /catalog?env=<stage>       catalog JSON
  GET /catalog.dot?env=<stage>   ordering graph as DOT
  GET /catalog.svg?env=<stage>   ordering graph as SVG

Catalogs are cached per stage, configuration and the content of the
Gemfile, lockfile and inventory snapshot; add refresh=true to evaluate again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			src, mc, err := flags.sources(cfg, logger)
			if err != nil {
				return err
			}
			defer mc.Close()

			srv, err := server.New(server.Options{
				Config: cfg,
				Evaluate: func(ctx context.Context, env string) (*catalog.Catalog, error) {
					return deploy.Evaluate(ctx, cfg, env, src)
				},
				Inputs: func(env string) []string {
					return cache.HashFiles(deploy.InputFiles(cfg.ForEnv(env), flags.snapshot)...)
				},
				Cache:   mc,
				TTL:     ttl,
				Version: buildinfo.Version,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			if addr == "" {
				addr = cfg.Server.Addr
			}
			printInfo("Serving %s catalogs on %s", cfg.RailsEnv, StyleHighlight.Render(addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from the configuration)")
	cmd.Flags().DurationVar(&ttl, "ttl", server.DefaultTTL, "how long evaluated catalogs are cached")

	return cmd
}
