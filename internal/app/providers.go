package app

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"sixmcp/internal/app/catalog"
	"sixmcp/internal/app/tools"
	"sixmcp/internal/domain"
	"sixmcp/internal/infra/ckan"
	"sixmcp/internal/infra/memo"
	"sixmcp/internal/infra/telemetry"
)

const serverInstructions = "Tools for exploring the City of Toronto open data catalog. " +
	"Use list_datasets or search_datasets to find a dataset name, then get_dataset_columns to see its schema."

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())
	return registry
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

func NewHealthTracker() *telemetry.HealthTracker {
	return telemetry.NewHealthTracker()
}

func NewCatalogClient(cfg domain.Config, metrics domain.Metrics, logger *zap.Logger) (*ckan.Client, error) {
	userAgent := cfg.Catalog.UserAgent
	if userAgent == "" {
		userAgent = UserAgent()
	}
	return ckan.NewClient(ckan.ClientOptions{
		BaseURL:   cfg.Catalog.BaseURL,
		Timeout:   cfg.Catalog.Timeout(),
		UserAgent: userAgent,
		Metrics:   metrics,
		Logger:    logger,
	})
}

func NewRequestCache(client *ckan.Client, cfg domain.Config, metrics domain.Metrics, logger *zap.Logger) (*memo.Cache, error) {
	return memo.New(client, memo.Options{
		MaxEntries: cfg.Cache.MaxEntries,
		TTL:        cfg.Cache.TTL(),
		Metrics:    metrics,
		Logger:     logger,
	})
}

func NewRemoteSource(fetcher domain.Fetcher, cfg domain.Config) *catalog.RemoteSource {
	return catalog.NewRemoteSource(fetcher, cfg.Catalog.PackageLimit)
}

// NewSnapshotSource returns nil unless the catalog is served from a local file.
func NewSnapshotSource(cfg domain.Config, health *telemetry.HealthTracker, logger *zap.Logger) (*catalog.SnapshotSource, error) {
	if cfg.Catalog.Source != domain.CatalogSourceSnapshot {
		return nil, nil
	}
	source, err := catalog.NewSnapshotSource(cfg.Catalog.SnapshotPath, logger)
	if err != nil {
		return nil, err
	}
	health.Register("snapshot", source.Healthy)
	return source, nil
}

func NewCatalogSource(remote *catalog.RemoteSource, snapshot *catalog.SnapshotSource) catalog.Source {
	if snapshot != nil {
		return snapshot
	}
	return remote
}

func NewCatalogAccessor(source catalog.Source, fetcher domain.Fetcher, logger *zap.Logger) *catalog.Accessor {
	return catalog.NewAccessor(source, fetcher, logger)
}

func NewToolHandlers(accessor tools.Catalog, metrics domain.Metrics, logger *zap.Logger) (*tools.Handlers, error) {
	return tools.NewHandlers(accessor, metrics, logger)
}

func NewMCPServer(cfg domain.Config, handlers *tools.Handlers) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Server.Name,
		Version: Version,
	}, &mcp.ServerOptions{
		Instructions: serverInstructions,
		HasTools:     true,
	})
	handlers.Register(server)
	return server
}
