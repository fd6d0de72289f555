package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"sixmcp/internal/app"
	"sixmcp/internal/domain"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

type serveOptions struct {
	transport   string
	httpAddr    string
	httpPath    string
	metrics     bool
	metricsAddr string
	source      string
	snapshot    string
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{logLevel: domain.DefaultLogLevel}

	root := &cobra.Command{
		Use:           "sixmcp",
		Short:         "MCP server exposing the Toronto open-data catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (defaults are used when empty)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newValidateCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			bootstrap, err := app.BuildLogger(root.logLevel)
			if err != nil {
				return err
			}
			cfg, err := app.LoadConfig(ctx, root.configPath, serveOverrides(cmd.Flags(), &opts), bootstrap)
			if err != nil {
				return err
			}

			logger := bootstrap
			if !cmd.Flags().Changed("log-level") && cfg.Logging.Level != root.logLevel {
				if logger, err = app.BuildLogger(cfg.Logging.Level); err != nil {
					return err
				}
			}
			defer func() { _ = logger.Sync() }()

			return app.New(logger).Serve(ctx, app.ServeConfig{Config: cfg})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.transport, "transport", string(domain.DefaultServerTransport), "MCP transport (stdio or streamable-http)")
	flags.StringVar(&opts.httpAddr, "http-addr", domain.DefaultHTTPAddr, "listen address for streamable-http")
	flags.StringVar(&opts.httpPath, "http-path", domain.DefaultHTTPPath, "endpoint path for streamable-http")
	flags.BoolVar(&opts.metrics, "metrics", false, "serve /metrics and /healthz")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", domain.DefaultObservabilityListenAddress, "listen address for /metrics and /healthz")
	flags.StringVar(&opts.source, "source", string(domain.DefaultCatalogSource), "dataset listing source (remote or snapshot)")
	flags.StringVar(&opts.snapshot, "snapshot", "", "path to a package listing snapshot")
	return cmd
}

// serveOverrides applies only the flags the user actually set, so config
// file values survive flag defaults.
func serveOverrides(flags *pflag.FlagSet, opts *serveOptions) func(*domain.Config) {
	return func(cfg *domain.Config) {
		flags.Visit(func(f *pflag.Flag) {
			switch f.Name {
			case "transport":
				cfg.Server.Transport = domain.TransportKind(opts.transport)
			case "http-addr":
				cfg.Server.HTTP.Addr = opts.httpAddr
			case "http-path":
				cfg.Server.HTTP.Path = opts.httpPath
			case "metrics":
				cfg.Observability.Enabled = opts.metrics
			case "metrics-addr":
				cfg.Observability.ListenAddress = opts.metricsAddr
			case "source":
				cfg.Catalog.Source = domain.CatalogSourceKind(opts.source)
			case "snapshot":
				cfg.Catalog.SnapshotPath = opts.snapshot
			case "log-level":
				cfg.Logging.Level = f.Value.String()
			}
		})
	}
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration without starting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := app.BuildLogger(root.logLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if err := app.New(logger).ValidateConfig(cmd.Context(), app.ValidateConfig{
				ConfigPath: root.configPath,
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration ok")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sixmcp %s (%s)\n", app.Version, app.Build)
		},
	}
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
