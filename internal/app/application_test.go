package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sixmcp/internal/domain"
)

func fakeCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case domain.PathPackageList:
			_, _ = w.Write([]byte(`{"success":true,"result":["High Park","Library","parking-meters"]}`))
		case domain.PathPackageListWithResources:
			_, _ = w.Write([]byte(`{"success":true,"result":[{"name":"parking-meters","resources":[{"id":"pm","datastore_active":true}]}]}`))
		case domain.PathDatastoreSearch:
			_, _ = w.Write([]byte(`{"success":true,"result":{"fields":[{"id":"_id","type":"int"},{"id":"rate","type":"text"}]}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Catalog.BaseURL = baseURL + "/"
	cfg.Server.Transport = domain.TransportStreamableHTTP
	return cfg
}

func connectHTTP(t *testing.T, ctx context.Context, application *Application) *mcp.ClientSession {
	t.Helper()
	srv := httptest.NewServer(application.MCPHandler())
	t.Cleanup(srv.Close)

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "0.1.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: srv.URL}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func resultItems(t *testing.T, res *mcp.CallToolResult) []string {
	t.Helper()
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	var items []string
	require.NoError(t, json.Unmarshal([]byte(text.Text), &items))
	return items
}

func TestInitializeApplicationServesTools(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	upstream := fakeCatalogServer(t)
	application, err := InitializeApplication(ctx, testConfig(upstream.URL), LoggingConfig{Logger: zap.NewNop()})
	require.NoError(t, err)
	require.Nil(t, application.snapshot)

	session := connectHTTP(t, ctx, application)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "search_datasets",
		Arguments: map[string]any{"queries": []string{"park", "PARK"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"High Park", "parking-meters", "High Park", "parking-meters"}, resultItems(t, res))

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "get_dataset_columns",
		Arguments: map[string]any{"dataset_name": "parking-meters"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{`{"id":"_id","type":"int"}`, `{"id":"rate","type":"text"}`}, resultItems(t, res))

	require.Equal(t, 3, application.cache.Len())
	require.Positive(t, testutil.CollectAndCount(application.registry, "sixmcp_tool_calls_total"))
}

func TestInitializeApplicationWithSnapshot(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	path := filepath.Join(t.TempDir(), "package_index.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"result":{"results":[
		{"name":"from-snapshot","resources":[{"id":"s1","datastore_active":true}]},
		{"name":"static","resources":[]}
	]}}`), 0o600))

	upstream := fakeCatalogServer(t)
	cfg := testConfig(upstream.URL)
	cfg.Catalog.Source = domain.CatalogSourceSnapshot
	cfg.Catalog.SnapshotPath = path

	application, err := InitializeApplication(ctx, cfg, LoggingConfig{})
	require.NoError(t, err)
	require.NotNil(t, application.snapshot)
	require.Equal(t, "ok", application.health.Report().Status)

	session := connectHTTP(t, ctx, application)

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "list_datasets"})
	require.NoError(t, err)
	require.Equal(t, []string{"from-snapshot", "static"}, resultItems(t, res))

	res, err = session.CallTool(ctx, &mcp.CallToolParams{Name: "list_queryable_datasets"})
	require.NoError(t, err)
	require.Equal(t, []string{"from-snapshot"}, resultItems(t, res))
}

func TestInitializeApplicationMissingSnapshot(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Catalog.Source = domain.CatalogSourceSnapshot
	cfg.Catalog.SnapshotPath = filepath.Join(t.TempDir(), "missing.json")

	_, err := InitializeApplication(context.Background(), cfg, LoggingConfig{})
	require.ErrorContains(t, err, "read snapshot")
}

func TestApplicationRunStopsOnCancel(t *testing.T) {
	upstream := fakeCatalogServer(t)
	cfg := testConfig(upstream.URL)
	addr := freeAddr(t)
	cfg.Server.HTTP.Addr = addr
	ctx, cancel := context.WithCancel(context.Background())

	application, err := InitializeApplication(ctx, cfg, LoggingConfig{})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- application.Run() }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + cfg.Server.HTTP.Path)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 2*time.Second, 25*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("application did not stop")
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skip test due to listen error: %v", err)
	}
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	return addr
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	cfg, err := LoadConfig(context.Background(), "", func(cfg *domain.Config) {
		cfg.Cache.MaxEntries = 7
	}, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Cache.MaxEntries)

	_, err = LoadConfig(context.Background(), "", func(cfg *domain.Config) {
		cfg.Server.Transport = "carrier-pigeon"
	}, zap.NewNop())
	require.ErrorContains(t, err, "server.transport")
}

func TestValidateConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sixmcp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  maxEntries: -1\n"), 0o600))

	application := New(zap.NewNop())
	require.ErrorContains(t, application.ValidateConfig(context.Background(), ValidateConfig{ConfigPath: path}), "cache.maxEntries")
	require.NoError(t, application.ValidateConfig(context.Background(), ValidateConfig{}))
}
