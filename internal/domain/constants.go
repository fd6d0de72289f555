package domain

const (
	DefaultCatalogBaseURL             = "https://ckan0.cf.opendata.inter.prod-toronto.ca/"
	DefaultCatalogTimeoutSeconds      = 10
	DefaultPackageLimit               = 999
	DefaultCatalogSource              = CatalogSourceRemote
	DefaultWatchSnapshot              = true
	DefaultCacheMaxEntries            = 100
	DefaultCacheTTLSeconds            = 0
	DefaultServerName                 = "6ix-mcp"
	DefaultServerTransport            = TransportStdio
	DefaultHTTPAddr                   = "127.0.0.1:8090"
	DefaultHTTPPath                   = "/mcp"
	DefaultObservabilityListenAddress = "127.0.0.1:9090"
	DefaultLogLevel                   = "info"
)

// Catalog action API paths.
const (
	PathPackageList              = "/api/3/action/package_list"
	PathPackageListWithResources = "/api/3/action/current_package_list_with_resources"
	PathDatastoreSearch          = "/api/3/action/datastore_search"
	ParamLimit                   = "limit"
	ParamResourceID              = "resource_id"
)
