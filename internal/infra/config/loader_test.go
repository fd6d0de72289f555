package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sixmcp/internal/domain"
)

func TestLoader_DefaultsWithoutFile(t *testing.T) {
	cfg, err := NewLoader(zap.NewNop()).Load(context.Background(), "")
	require.NoError(t, err)

	if diff := cmp.Diff(domain.DefaultConfig(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_EmptyFileUsesDefaults(t *testing.T) {
	file := writeTempConfig(t, "")

	cfg, err := NewLoader(nil).Load(context.Background(), file)
	require.NoError(t, err)
	require.Equal(t, domain.DefaultConfig(), cfg)
}

func TestLoader_Success(t *testing.T) {
	file := writeTempConfig(t, `
catalog:
  baseURL: http://127.0.0.1:8080/
  timeoutSeconds: 3
  packageLimit: 50
  userAgent: tests/1.0
  source: Snapshot
  snapshotPath: ./package_index.json
  watchSnapshot: false
cache:
  maxEntries: 10
  ttlSeconds: 60
server:
  name: toronto
  transport: streamable-http
  http:
    addr: 0.0.0.0:9000
    path: /rpc
    jsonResponse: true
observability:
  enabled: true
  listenAddress: 127.0.0.1:9999
logging:
  level: DEBUG
`)

	cfg, err := NewLoader(zap.NewNop()).Load(context.Background(), file)
	require.NoError(t, err)

	expect := domain.Config{
		Catalog: domain.CatalogConfig{
			BaseURL:        "http://127.0.0.1:8080/",
			TimeoutSeconds: 3,
			PackageLimit:   50,
			UserAgent:      "tests/1.0",
			Source:         domain.CatalogSourceSnapshot,
			SnapshotPath:   "./package_index.json",
			WatchSnapshot:  false,
		},
		Cache: domain.CacheConfig{MaxEntries: 10, TTLSeconds: 60},
		Server: domain.ServerConfig{
			Name:      "toronto",
			Transport: domain.TransportStreamableHTTP,
			HTTP: domain.HTTPConfig{
				Addr:         "0.0.0.0:9000",
				Path:         "/rpc",
				JSONResponse: true,
			},
		},
		Observability: domain.ObservabilityConfig{Enabled: true, ListenAddress: "127.0.0.1:9999"},
		Logging:       domain.LoggingConfig{Level: "debug"},
	}
	if diff := cmp.Diff(expect, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_EnvExpansion(t *testing.T) {
	t.Setenv("SIXMCP_TEST_TIMEOUT", "7")
	t.Setenv("SIXMCP_TEST_HOST", "catalog.internal")
	file := writeTempConfig(t, `
catalog:
  baseURL: "https://${SIXMCP_TEST_HOST}/"
  timeoutSeconds: ${SIXMCP_TEST_TIMEOUT}
  userAgent: "${SIXMCP_TEST_UNSET}sixmcp"
`)

	cfg, err := NewLoader(zap.NewNop()).Load(context.Background(), file)
	require.NoError(t, err)
	require.Equal(t, "https://catalog.internal/", cfg.Catalog.BaseURL)
	require.Equal(t, 7, cfg.Catalog.TimeoutSeconds)
	require.Equal(t, "sixmcp", cfg.Catalog.UserAgent)
}

func TestExpandEnvReportsMissing(t *testing.T) {
	_, missing, err := expandEnv([]byte("a: ${SIXMCP_NOT_SET_B}\nb: [\"${SIXMCP_NOT_SET_A}\"]\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"SIXMCP_NOT_SET_A", "SIXMCP_NOT_SET_B"}, missing)
}

func TestLoader_ValidationCollectsErrors(t *testing.T) {
	file := writeTempConfig(t, `
catalog:
  baseURL: ftp://example.test/
  timeoutSeconds: 0
  source: snapshot
cache:
  maxEntries: 0
server:
  transport: websocket
logging:
  level: loud
`)

	_, err := NewLoader(zap.NewNop()).Load(context.Background(), file)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		"catalog.baseURL must be http or https",
		"catalog.timeoutSeconds must be > 0",
		"catalog.snapshotPath is required",
		"cache.maxEntries must be > 0",
		"server.transport must be stdio or streamable-http",
		"logging.level",
	} {
		require.Contains(t, msg, want)
	}
	require.Equal(t, 5, strings.Count(msg, "; "))
}

func TestValidate_StreamableHTTPPath(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Server.Transport = domain.TransportStreamableHTTP
	cfg.Server.HTTP.Path = "mcp"

	err := Validate(cfg)
	require.ErrorContains(t, err, "server.http.path must start with /")
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(zap.NewNop()).Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestLoader_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLoader(zap.NewNop()).Load(ctx, "")
	require.ErrorIs(t, err, context.Canceled)
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sixmcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
