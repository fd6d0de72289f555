package catalog

import (
	"context"
	"fmt"
	"strconv"

	"sixmcp/internal/domain"
	"sixmcp/internal/infra/ckan"
)

// RemoteSource reads listings from the catalog API through fetcher.
type RemoteSource struct {
	fetcher      domain.Fetcher
	packageLimit int
}

func NewRemoteSource(fetcher domain.Fetcher, packageLimit int) *RemoteSource {
	if packageLimit <= 0 {
		packageLimit = domain.DefaultPackageLimit
	}
	return &RemoteSource{fetcher: fetcher, packageLimit: packageLimit}
}

func (s *RemoteSource) DatasetNames(ctx context.Context) ([]string, error) {
	body, err := s.fetcher.Fetch(ctx, domain.NewCatalogRequest(domain.PathPackageList, nil))
	if err != nil {
		return nil, fmt.Errorf("list dataset names: %w", err)
	}
	var names []string
	if err := ckan.Result(body, &names); err != nil {
		return nil, fmt.Errorf("list dataset names: %w", err)
	}
	return names, nil
}

func (s *RemoteSource) Datasets(ctx context.Context) ([]domain.DatasetSummary, error) {
	req := domain.NewCatalogRequest(domain.PathPackageListWithResources, map[string]string{
		domain.ParamLimit: strconv.Itoa(s.packageLimit),
	})
	body, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	datasets, err := decodePackageDocument(body)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	return datasets, nil
}

var _ Source = (*RemoteSource)(nil)
