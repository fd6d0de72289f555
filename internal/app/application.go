package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"sixmcp/internal/app/catalog"
	"sixmcp/internal/domain"
	"sixmcp/internal/infra/memo"
	"sixmcp/internal/infra/telemetry"
)

const httpShutdownTimeout = 5 * time.Second

// Application wires the MCP server and its supporting services.
type Application struct {
	ctx      context.Context
	cfg      domain.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	health   *telemetry.HealthTracker
	cache    *memo.Cache
	snapshot *catalog.SnapshotSource
	server   *mcp.Server
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	Context  context.Context
	Config   domain.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Health   *telemetry.HealthTracker
	Cache    *memo.Cache
	Snapshot *catalog.SnapshotSource
	Server   *mcp.Server
}

// NewApplication constructs the application runtime.
func NewApplication(opts ApplicationOptions) *Application {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		ctx:      ctx,
		cfg:      opts.Config,
		logger:   logger.Named("app"),
		registry: opts.Registry,
		health:   opts.Health,
		cache:    opts.Cache,
		snapshot: opts.Snapshot,
		server:   opts.Server,
	}
}

// Run serves MCP on the configured transport and blocks until the context
// ends or the stdio peer disconnects.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(a.ctx)
	defer cancel()

	a.logger.Info("starting",
		zap.String("version", Version),
		zap.String("transport", string(a.cfg.Server.Transport)),
		zap.String("catalog", a.cfg.Catalog.BaseURL),
		zap.String("source", string(a.cfg.Catalog.Source)),
		zap.Int("cacheEntries", a.cfg.Cache.MaxEntries),
	)

	if a.snapshot != nil && a.cfg.Catalog.WatchSnapshot {
		if err := a.snapshot.Watch(ctx); err != nil {
			a.logger.Warn("snapshot watch disabled", zap.Error(err))
		}
	}

	if a.cfg.Observability.Enabled {
		go func() {
			if err := telemetry.StartObservabilityServer(ctx, a.cfg.Observability.ListenAddress, a.registry, a.health, a.logger); err != nil {
				a.logger.Error("observability server failed", zap.Error(err))
			}
		}()
	}

	var err error
	switch a.cfg.Server.Transport {
	case domain.TransportStreamableHTTP:
		err = a.serveHTTP(ctx)
	default:
		err = a.server.Run(ctx, &mcp.StdioTransport{})
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("stopped", zap.Int("cachedRequests", a.cache.Len()))
	return nil
}

// MCPHandler returns the streamable HTTP handler serving the MCP server.
func (a *Application) MCPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return a.server
	}, &mcp.StreamableHTTPOptions{
		JSONResponse: a.cfg.Server.HTTP.JSONResponse,
	})
}

func (a *Application) serveHTTP(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Server.HTTP.Path, a.MCPHandler())

	server := &http.Server{
		Addr:              a.cfg.Server.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("mcp http server listening",
			zap.String("addr", server.Addr),
			zap.String("path", a.cfg.Server.HTTP.Path),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("mcp http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("mcp http server shutdown: %w", err)
		}
		return nil
	}
}
