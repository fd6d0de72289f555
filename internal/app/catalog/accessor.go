// Package catalog resolves dataset names against the open-data catalog.
package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sixmcp/internal/domain"
	"sixmcp/internal/infra/ckan"
	"sixmcp/internal/infra/telemetry"
)

// Accessor answers dataset questions from a Source and fetches datastore
// schemas through fetcher.
type Accessor struct {
	source  Source
	fetcher domain.Fetcher
	logger  *zap.Logger
}

func NewAccessor(source Source, fetcher domain.Fetcher, logger *zap.Logger) *Accessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accessor{
		source:  source,
		fetcher: fetcher,
		logger:  logger.Named("catalog"),
	}
}

// ListDatasetNames returns every dataset name in upstream order.
func (a *Accessor) ListDatasetNames(ctx context.Context) ([]string, error) {
	return a.source.DatasetNames(ctx)
}

// ListDatasetsWithResources returns every dataset with its resources.
func (a *Accessor) ListDatasetsWithResources(ctx context.Context) ([]domain.DatasetSummary, error) {
	return a.source.Datasets(ctx)
}

// ListQueryableDatasetNames returns names of datasets with at least one
// datastore-active resource, first occurrence only.
func (a *Accessor) ListQueryableDatasetNames(ctx context.Context) ([]string, error) {
	datasets, err := a.source.Datasets(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(datasets))
	names := make([]string, 0, len(datasets))
	for _, ds := range datasets {
		if !ds.Queryable() {
			continue
		}
		if _, dup := seen[ds.Name]; dup {
			continue
		}
		seen[ds.Name] = struct{}{}
		names = append(names, ds.Name)
	}
	return names, nil
}

// ResolveQueryableResource finds the first dataset named exactly name and its
// first datastore-active resource. Only upstream failures are errors.
func (a *Accessor) ResolveQueryableResource(ctx context.Context, name string) (domain.Resolution, error) {
	datasets, err := a.source.Datasets(ctx)
	if err != nil {
		return domain.Resolution{}, err
	}
	for _, ds := range datasets {
		if ds.Name != name {
			continue
		}
		res, ok := ds.FirstQueryable()
		if !ok {
			return domain.Resolution{Dataset: name, Status: domain.ResolutionNoQueryableResource}, nil
		}
		return domain.Resolution{Dataset: name, Status: domain.ResolutionFound, Resource: res}, nil
	}
	return domain.Resolution{Dataset: name, Status: domain.ResolutionDatasetNotFound}, nil
}

type datastoreResult struct {
	Fields []domain.ColumnDescriptor `json:"fields"`
}

// GetColumns returns the datastore fields of the dataset's queryable
// resource in upstream order.
func (a *Accessor) GetColumns(ctx context.Context, name string) (domain.ColumnsResult, error) {
	resolution, err := a.ResolveQueryableResource(ctx, name)
	if err != nil {
		return domain.ColumnsResult{}, err
	}
	result := domain.ColumnsResult{
		Dataset:  name,
		Status:   resolution.Status,
		Resource: resolution.Resource,
	}
	if !resolution.Found() {
		telemetry.LoggerWithRequest(ctx, a.logger).Debug("dataset not resolvable",
			telemetry.DatasetField(name),
			zap.String("status", string(resolution.Status)),
		)
		return result, nil
	}

	req := domain.NewCatalogRequest(domain.PathDatastoreSearch, map[string]string{
		domain.ParamResourceID: resolution.Resource.ID,
	})
	body, err := a.fetcher.Fetch(ctx, req)
	if err != nil {
		return domain.ColumnsResult{}, fmt.Errorf("fetch columns for %q: %w", name, err)
	}
	var search datastoreResult
	if err := ckan.Result(body, &search); err != nil {
		return domain.ColumnsResult{}, fmt.Errorf("fetch columns for %q: %w", name, err)
	}
	result.Columns = search.Fields
	if result.Columns == nil {
		result.Columns = []domain.ColumnDescriptor{}
	}
	return result, nil
}
