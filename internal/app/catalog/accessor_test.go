package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sixmcp/internal/domain"
	"sixmcp/internal/infra/ckan"
	"sixmcp/internal/infra/memo"
)

const packagesWithResources = `{
  "success": true,
  "result": [
    {"name": "parking-tickets", "resources": [
      {"id": "r-archive", "datastore_active": false},
      {"id": "r-2023", "datastore_active": true},
      {"id": "r-2024", "datastore_active": true}
    ]},
    {"name": "ttc-routes", "resources": [{"id": "r-gtfs", "datastore_active": false}]},
    {"name": "no-resources", "resources": null},
    {"name": "parking-tickets", "resources": [{"id": "r-dup", "datastore_active": true}]},
    {"name": "bike-share", "resources": [{"id": "r-bike", "datastore_active": true}]}
  ]
}`

type fakeCKAN struct {
	mu       sync.Mutex
	requests map[string]int
	server   *httptest.Server
}

func newFakeCKAN(t *testing.T, routes map[string]string) *fakeCKAN {
	t.Helper()
	f := &fakeCKAN{requests: make(map[string]int)}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		f.mu.Lock()
		f.requests[key]++
		f.mu.Unlock()
		body, ok := routes[key]
		if !ok {
			http.Error(w, `{"success":false}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeCKAN) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[key]
}

func newRemoteAccessor(t *testing.T, f *fakeCKAN) *Accessor {
	t.Helper()
	client, err := ckan.NewClient(ckan.ClientOptions{BaseURL: f.server.URL + "/"})
	require.NoError(t, err)
	cache, err := memo.New(client, memo.Options{MaxEntries: 16})
	require.NoError(t, err)
	return NewAccessor(NewRemoteSource(cache, domain.DefaultPackageLimit), cache, zap.NewNop())
}

func TestAccessorListDatasetNamesVerbatim(t *testing.T) {
	f := newFakeCKAN(t, map[string]string{
		domain.PathPackageList: `{"success":true,"result":["b","a","b"]}`,
	})
	accessor := newRemoteAccessor(t, f)

	names, err := accessor.ListDatasetNames(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a", "b"}, names)

	_, err = accessor.ListDatasetNames(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, f.count(domain.PathPackageList))
}

func TestAccessorListDatasetsWithResources(t *testing.T) {
	f := newFakeCKAN(t, map[string]string{
		domain.PathPackageListWithResources + "?limit=999": packagesWithResources,
	})
	accessor := newRemoteAccessor(t, f)

	datasets, err := accessor.ListDatasetsWithResources(context.Background())
	require.NoError(t, err)
	require.Len(t, datasets, 5)
	require.Equal(t, "no-resources", datasets[2].Name)
	require.Empty(t, datasets[2].Resources)
	require.False(t, datasets[2].Queryable())
	require.Equal(t, []domain.ResourceRef{{ID: "r-gtfs"}}, datasets[1].Resources)
}

func TestAccessorResolveQueryableResource(t *testing.T) {
	f := newFakeCKAN(t, map[string]string{
		domain.PathPackageListWithResources + "?limit=999": packagesWithResources,
	})
	accessor := newRemoteAccessor(t, f)
	ctx := context.Background()

	found, err := accessor.ResolveQueryableResource(ctx, "parking-tickets")
	require.NoError(t, err)
	require.True(t, found.Found())
	require.Equal(t, "r-2023", found.Resource.ID)

	none, err := accessor.ResolveQueryableResource(ctx, "ttc-routes")
	require.NoError(t, err)
	require.Equal(t, domain.ResolutionNoQueryableResource, none.Status)

	missing, err := accessor.ResolveQueryableResource(ctx, "Parking-Tickets")
	require.NoError(t, err)
	require.Equal(t, domain.ResolutionDatasetNotFound, missing.Status)

	require.Equal(t, 1, f.count(domain.PathPackageListWithResources+"?limit=999"))
}

func TestAccessorGetColumns(t *testing.T) {
	f := newFakeCKAN(t, map[string]string{
		domain.PathPackageListWithResources + "?limit=999": packagesWithResources,
		domain.PathDatastoreSearch + "?resource_id=r-2023": `{"success":true,"result":{"fields":[
			{"id":"_id","type":"int"},
			{"id":"tag_number_masked","type":"text","info":{"notes":"masked"}},
			{"id":"set_fine_amount","type":"numeric"}
		],"records":[]}}`,
	})
	accessor := newRemoteAccessor(t, f)

	result, err := accessor.GetColumns(context.Background(), "parking-tickets")
	require.NoError(t, err)
	require.NoError(t, result.Err())
	require.Equal(t, domain.ResolutionFound, result.Status)
	require.Equal(t, "r-2023", result.Resource.ID)

	want := []domain.ColumnDescriptor{
		{ID: "_id", Type: "int"},
		{ID: "tag_number_masked", Type: "text", Info: json.RawMessage(`{"notes":"masked"}`)},
		{ID: "set_fine_amount", Type: "numeric"},
	}
	if diff := cmp.Diff(want, result.Columns, cmp.Comparer(func(a, b json.RawMessage) bool {
		return string(a) == string(b)
	})); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestAccessorGetColumnsStatuses(t *testing.T) {
	f := newFakeCKAN(t, map[string]string{
		domain.PathPackageListWithResources + "?limit=999": packagesWithResources,
	})
	accessor := newRemoteAccessor(t, f)

	result, err := accessor.GetColumns(context.Background(), "unknown")
	require.NoError(t, err)
	require.Equal(t, domain.ResolutionDatasetNotFound, result.Status)
	require.ErrorIs(t, result.Err(), domain.ErrDatasetNotFound)

	result, err = accessor.GetColumns(context.Background(), "ttc-routes")
	require.NoError(t, err)
	require.Equal(t, domain.ResolutionNoQueryableResource, result.Status)
	require.ErrorIs(t, result.Err(), domain.ErrNoQueryableResource)
	require.Equal(t, 0, f.count(domain.PathDatastoreSearch+"?resource_id=r-gtfs"))
}

func TestAccessorGetColumnsUpstreamFailure(t *testing.T) {
	f := newFakeCKAN(t, map[string]string{
		domain.PathPackageListWithResources + "?limit=999": packagesWithResources,
	})
	accessor := newRemoteAccessor(t, f)

	_, err := accessor.GetColumns(context.Background(), "bike-share")
	var upstream *ckan.UpstreamError
	require.ErrorAs(t, err, &upstream)
	require.Equal(t, http.StatusNotFound, upstream.StatusCode)

	_, err = accessor.GetColumns(context.Background(), "bike-share")
	require.Error(t, err)
	require.Equal(t, 2, f.count(domain.PathDatastoreSearch+"?resource_id=r-bike"))
}

func TestAccessorListQueryableDatasetNames(t *testing.T) {
	f := newFakeCKAN(t, map[string]string{
		domain.PathPackageListWithResources + "?limit=999": packagesWithResources,
	})
	accessor := newRemoteAccessor(t, f)

	names, err := accessor.ListQueryableDatasetNames(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"parking-tickets", "bike-share"}, names)
}

type failingSource struct{ err error }

func (s failingSource) DatasetNames(context.Context) ([]string, error) { return nil, s.err }

func (s failingSource) Datasets(context.Context) ([]domain.DatasetSummary, error) {
	return nil, s.err
}

func TestAccessorPropagatesSourceErrors(t *testing.T) {
	boom := errors.New("boom")
	accessor := NewAccessor(failingSource{err: boom}, nil, nil)

	_, err := accessor.ResolveQueryableResource(context.Background(), "x")
	require.ErrorIs(t, err, boom)
	_, err = accessor.GetColumns(context.Background(), "x")
	require.ErrorIs(t, err, boom)
	_, err = accessor.ListQueryableDatasetNames(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestRemoteSourceUsesPackageLimit(t *testing.T) {
	f := newFakeCKAN(t, map[string]string{
		domain.PathPackageListWithResources + "?limit=5": `{"success":true,"result":{"results":[{"name":"a","resources":[]}]}}`,
	})
	client, err := ckan.NewClient(ckan.ClientOptions{BaseURL: f.server.URL})
	require.NoError(t, err)

	datasets, err := NewRemoteSource(client, 5).Datasets(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.DatasetSummary{{Name: "a", Resources: []domain.ResourceRef{}}}, datasets)
}
