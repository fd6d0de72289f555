//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"

	"sixmcp/internal/app/catalog"
	"sixmcp/internal/app/tools"
	"sixmcp/internal/domain"
	"sixmcp/internal/infra/memo"
)

var CoreInfraSet = wire.NewSet(
	NewLogger,
	NewMetricsRegistry,
	NewMetrics,
	NewHealthTracker,
)

var CatalogSet = wire.NewSet(
	NewCatalogClient,
	NewRequestCache,
	wire.Bind(new(domain.Fetcher), new(*memo.Cache)),
	NewRemoteSource,
	NewSnapshotSource,
	NewCatalogSource,
	NewCatalogAccessor,
	wire.Bind(new(tools.Catalog), new(*catalog.Accessor)),
)

var ServerSet = wire.NewSet(
	NewToolHandlers,
	NewMCPServer,
)

var AppSet = wire.NewSet(
	CoreInfraSet,
	CatalogSet,
	ServerSet,
	wire.Struct(new(ApplicationOptions), "*"),
	NewApplication,
)
