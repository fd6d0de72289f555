package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"sixmcp/internal/domain"
	"sixmcp/internal/infra/ckan"
)

// Source yields catalog listings in upstream order.
type Source interface {
	DatasetNames(ctx context.Context) ([]string, error)
	Datasets(ctx context.Context) ([]domain.DatasetSummary, error)
}

type rawPackage struct {
	Name      string               `json:"name"`
	Resources []domain.ResourceRef `json:"resources"`
}

type rawPackagePage struct {
	Results []rawPackage `json:"results"`
}

// decodePackages accepts a package listing either as a bare array or as an
// object carrying a results array.
func decodePackages(result json.RawMessage) ([]domain.DatasetSummary, error) {
	var packages []rawPackage
	if err := json.Unmarshal(result, &packages); err != nil {
		var page rawPackagePage
		if pageErr := json.Unmarshal(result, &page); pageErr != nil {
			return nil, fmt.Errorf("decode package list: %w", err)
		}
		packages = page.Results
	}

	out := make([]domain.DatasetSummary, 0, len(packages))
	for _, pkg := range packages {
		out = append(out, domain.DatasetSummary{
			Name:      pkg.Name,
			Resources: pkg.Resources,
		})
	}
	return out, nil
}

func decodePackageDocument(body json.RawMessage) ([]domain.DatasetSummary, error) {
	var result json.RawMessage
	if err := ckan.Result(body, &result); err != nil {
		return nil, err
	}
	return decodePackages(result)
}
