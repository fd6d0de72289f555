package domain

import "time"

// CatalogSourceKind selects where dataset listings come from.
type CatalogSourceKind string

const (
	CatalogSourceRemote   CatalogSourceKind = "remote"
	CatalogSourceSnapshot CatalogSourceKind = "snapshot"
)

// TransportKind selects the MCP transport the server listens on.
type TransportKind string

const (
	TransportStdio          TransportKind = "stdio"
	TransportStreamableHTTP TransportKind = "streamable-http"
)

// Config is the normalized application configuration.
type Config struct {
	Catalog       CatalogConfig
	Cache         CacheConfig
	Server        ServerConfig
	Observability ObservabilityConfig
	Logging       LoggingConfig
}

type CatalogConfig struct {
	BaseURL        string
	TimeoutSeconds int
	PackageLimit   int
	UserAgent      string
	Source         CatalogSourceKind
	SnapshotPath   string
	WatchSnapshot  bool
}

// Timeout returns the per-request upstream timeout.
func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type CacheConfig struct {
	MaxEntries int
	TTLSeconds int
}

// TTL returns the cache entry lifetime; zero disables expiry.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type ServerConfig struct {
	Name      string
	Transport TransportKind
	HTTP      HTTPConfig
}

type HTTPConfig struct {
	Addr         string
	Path         string
	JSONResponse bool
}

type ObservabilityConfig struct {
	Enabled       bool
	ListenAddress string
}

type LoggingConfig struct {
	Level string
}

// DefaultConfig returns a configuration populated with defaults.
func DefaultConfig() Config {
	return Config{
		Catalog: CatalogConfig{
			BaseURL:        DefaultCatalogBaseURL,
			TimeoutSeconds: DefaultCatalogTimeoutSeconds,
			PackageLimit:   DefaultPackageLimit,
			Source:         DefaultCatalogSource,
			WatchSnapshot:  DefaultWatchSnapshot,
		},
		Cache: CacheConfig{
			MaxEntries: DefaultCacheMaxEntries,
			TTLSeconds: DefaultCacheTTLSeconds,
		},
		Server: ServerConfig{
			Name:      DefaultServerName,
			Transport: DefaultServerTransport,
			HTTP: HTTPConfig{
				Addr: DefaultHTTPAddr,
				Path: DefaultHTTPPath,
			},
		},
		Observability: ObservabilityConfig{
			ListenAddress: DefaultObservabilityListenAddress,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}
