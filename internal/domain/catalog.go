package domain

import (
	"context"
	"encoding/json"
	"net/url"
)

// CatalogRequest identifies a single GET against the catalog action API.
// Two requests are equal iff their Key values are equal.
type CatalogRequest struct {
	Path   string
	Params map[string]string
}

// NewCatalogRequest builds a request with its own parameter map.
func NewCatalogRequest(path string, params map[string]string) CatalogRequest {
	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}
	return CatalogRequest{Path: path, Params: copied}
}

// Query returns the encoded query string with keys sorted.
func (r CatalogRequest) Query() string {
	if len(r.Params) == 0 {
		return ""
	}
	values := make(url.Values, len(r.Params))
	for k, v := range r.Params {
		values.Set(k, v)
	}
	return values.Encode()
}

// Key is the canonical cache key for the request.
func (r CatalogRequest) Key() string {
	query := r.Query()
	if query == "" {
		return r.Path
	}
	return r.Path + "?" + query
}

// Fetcher performs catalog requests and returns the raw JSON document.
type Fetcher interface {
	Fetch(ctx context.Context, req CatalogRequest) (json.RawMessage, error)
}

// ResourceRef is one resource attached to a dataset.
type ResourceRef struct {
	ID              string `json:"id"`
	DatastoreActive bool   `json:"datastore_active"`
}

// DatasetSummary is the view of a catalog package used for resolution.
type DatasetSummary struct {
	Name      string        `json:"name"`
	Resources []ResourceRef `json:"resources"`
}

// Queryable reports whether any resource is datastore-active.
func (d DatasetSummary) Queryable() bool {
	_, ok := d.FirstQueryable()
	return ok
}

// FirstQueryable returns the first datastore-active resource in upstream order.
func (d DatasetSummary) FirstQueryable() (ResourceRef, bool) {
	for _, res := range d.Resources {
		if res.DatastoreActive {
			return res, true
		}
	}
	return ResourceRef{}, false
}

// ColumnDescriptor is a datastore field as reported by upstream.
type ColumnDescriptor struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Info json.RawMessage `json:"info,omitempty"`
}

// ResolutionStatus describes the outcome of resolving a dataset name.
type ResolutionStatus string

const (
	ResolutionFound               ResolutionStatus = "found"
	ResolutionDatasetNotFound     ResolutionStatus = "dataset_not_found"
	ResolutionNoQueryableResource ResolutionStatus = "no_queryable_resource"
)

// Err maps a non-found status to its sentinel error.
func (s ResolutionStatus) Err() error {
	switch s {
	case ResolutionDatasetNotFound:
		return ErrDatasetNotFound
	case ResolutionNoQueryableResource:
		return ErrNoQueryableResource
	default:
		return nil
	}
}

// Resolution is the result of looking up the queryable resource for a dataset.
type Resolution struct {
	Dataset  string
	Status   ResolutionStatus
	Resource ResourceRef
}

// Found reports whether a queryable resource was resolved.
func (r Resolution) Found() bool {
	return r.Status == ResolutionFound
}

// ColumnsResult carries the columns of a dataset or the reason there are none.
type ColumnsResult struct {
	Dataset  string
	Status   ResolutionStatus
	Resource ResourceRef
	Columns  []ColumnDescriptor
}

// Err returns the sentinel matching Status, or nil when columns were found.
func (r ColumnsResult) Err() error {
	return r.Status.Err()
}
