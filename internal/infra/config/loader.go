// Package config loads the YAML configuration file into domain.Config.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sixmcp/internal/domain"
)

type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("config")}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.baseURL", domain.DefaultCatalogBaseURL)
	v.SetDefault("catalog.timeoutSeconds", domain.DefaultCatalogTimeoutSeconds)
	v.SetDefault("catalog.packageLimit", domain.DefaultPackageLimit)
	v.SetDefault("catalog.userAgent", "")
	v.SetDefault("catalog.source", string(domain.DefaultCatalogSource))
	v.SetDefault("catalog.snapshotPath", "")
	v.SetDefault("catalog.watchSnapshot", domain.DefaultWatchSnapshot)
	v.SetDefault("cache.maxEntries", domain.DefaultCacheMaxEntries)
	v.SetDefault("cache.ttlSeconds", domain.DefaultCacheTTLSeconds)
	v.SetDefault("server.name", domain.DefaultServerName)
	v.SetDefault("server.transport", string(domain.DefaultServerTransport))
	v.SetDefault("server.http.addr", domain.DefaultHTTPAddr)
	v.SetDefault("server.http.path", domain.DefaultHTTPPath)
	v.SetDefault("server.http.jsonResponse", false)
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	v.SetDefault("logging.level", domain.DefaultLogLevel)
}

type rawConfig struct {
	Catalog       rawCatalogConfig       `mapstructure:"catalog"`
	Cache         rawCacheConfig         `mapstructure:"cache"`
	Server        rawServerConfig        `mapstructure:"server"`
	Observability rawObservabilityConfig `mapstructure:"observability"`
	Logging       rawLoggingConfig       `mapstructure:"logging"`
}

type rawCatalogConfig struct {
	BaseURL        string `mapstructure:"baseURL"`
	TimeoutSeconds int    `mapstructure:"timeoutSeconds"`
	PackageLimit   int    `mapstructure:"packageLimit"`
	UserAgent      string `mapstructure:"userAgent"`
	Source         string `mapstructure:"source"`
	SnapshotPath   string `mapstructure:"snapshotPath"`
	WatchSnapshot  bool   `mapstructure:"watchSnapshot"`
}

type rawCacheConfig struct {
	MaxEntries int `mapstructure:"maxEntries"`
	TTLSeconds int `mapstructure:"ttlSeconds"`
}

type rawServerConfig struct {
	Name      string        `mapstructure:"name"`
	Transport string        `mapstructure:"transport"`
	HTTP      rawHTTPConfig `mapstructure:"http"`
}

type rawHTTPConfig struct {
	Addr         string `mapstructure:"addr"`
	Path         string `mapstructure:"path"`
	JSONResponse bool   `mapstructure:"jsonResponse"`
}

type rawObservabilityConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ListenAddress string `mapstructure:"listenAddress"`
}

type rawLoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads path and returns the validated configuration. An empty path
// yields the defaults.
func (l *Loader) Load(ctx context.Context, path string) (domain.Config, error) {
	v := newViper()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.Config{}, fmt.Errorf("read config: %w", err)
		}

		expanded, missing, err := expandEnv(data)
		if err != nil {
			return domain.Config{}, err
		}
		if len(missing) > 0 {
			l.logger.Warn("missing environment variables in config", zap.String("path", path), zap.Strings("missing", missing))
		}

		if expanded != "" {
			if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
				return domain.Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return domain.Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return domain.Config{}, err
	}

	cfg := normalize(raw)
	if err := Validate(cfg); err != nil {
		return domain.Config{}, err
	}
	return cfg, nil
}

func normalize(raw rawConfig) domain.Config {
	return domain.Config{
		Catalog: domain.CatalogConfig{
			BaseURL:        strings.TrimSpace(raw.Catalog.BaseURL),
			TimeoutSeconds: raw.Catalog.TimeoutSeconds,
			PackageLimit:   raw.Catalog.PackageLimit,
			UserAgent:      strings.TrimSpace(raw.Catalog.UserAgent),
			Source:         domain.CatalogSourceKind(lowerTrim(raw.Catalog.Source)),
			SnapshotPath:   strings.TrimSpace(raw.Catalog.SnapshotPath),
			WatchSnapshot:  raw.Catalog.WatchSnapshot,
		},
		Cache: domain.CacheConfig{
			MaxEntries: raw.Cache.MaxEntries,
			TTLSeconds: raw.Cache.TTLSeconds,
		},
		Server: domain.ServerConfig{
			Name:      strings.TrimSpace(raw.Server.Name),
			Transport: domain.TransportKind(lowerTrim(raw.Server.Transport)),
			HTTP: domain.HTTPConfig{
				Addr:         strings.TrimSpace(raw.Server.HTTP.Addr),
				Path:         strings.TrimSpace(raw.Server.HTTP.Path),
				JSONResponse: raw.Server.HTTP.JSONResponse,
			},
		},
		Observability: domain.ObservabilityConfig{
			Enabled:       raw.Observability.Enabled,
			ListenAddress: strings.TrimSpace(raw.Observability.ListenAddress),
		},
		Logging: domain.LoggingConfig{
			Level: lowerTrim(raw.Logging.Level),
		},
	}
}

// Validate reports every problem in cfg at once.
func Validate(cfg domain.Config) error {
	var errs []string

	if err := validateBaseURL(cfg.Catalog.BaseURL); err != nil {
		errs = append(errs, err.Error())
	}
	if cfg.Catalog.TimeoutSeconds <= 0 {
		errs = append(errs, "catalog.timeoutSeconds must be > 0")
	}
	if cfg.Catalog.PackageLimit <= 0 {
		errs = append(errs, "catalog.packageLimit must be > 0")
	}
	switch cfg.Catalog.Source {
	case domain.CatalogSourceRemote:
	case domain.CatalogSourceSnapshot:
		if cfg.Catalog.SnapshotPath == "" {
			errs = append(errs, "catalog.snapshotPath is required when catalog.source is snapshot")
		}
	default:
		errs = append(errs, fmt.Sprintf("catalog.source must be remote or snapshot, got %q", cfg.Catalog.Source))
	}

	if cfg.Cache.MaxEntries <= 0 {
		errs = append(errs, "cache.maxEntries must be > 0")
	}
	if cfg.Cache.TTLSeconds < 0 {
		errs = append(errs, "cache.ttlSeconds must be >= 0")
	}

	if cfg.Server.Name == "" {
		errs = append(errs, "server.name is required")
	}
	switch cfg.Server.Transport {
	case domain.TransportStdio:
	case domain.TransportStreamableHTTP:
		if cfg.Server.HTTP.Addr == "" {
			errs = append(errs, "server.http.addr is required for streamable-http")
		}
		if !strings.HasPrefix(cfg.Server.HTTP.Path, "/") {
			errs = append(errs, fmt.Sprintf("server.http.path must start with /, got %q", cfg.Server.HTTP.Path))
		}
	default:
		errs = append(errs, fmt.Sprintf("server.transport must be stdio or streamable-http, got %q", cfg.Server.Transport))
	}

	if cfg.Observability.Enabled && cfg.Observability.ListenAddress == "" {
		errs = append(errs, "observability.listenAddress is required when observability is enabled")
	}

	if _, err := zapcore.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, fmt.Sprintf("logging.level: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return errors.New("catalog.baseURL is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("catalog.baseURL: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("catalog.baseURL must be http or https, got %q", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("catalog.baseURL has no host: %q", raw)
	}
	return nil
}

func lowerTrim(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
