// Package tools exposes the catalog as MCP tools.
package tools

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ToolListDatasets          = "list_datasets"
	ToolSearchDatasets        = "search_datasets"
	ToolGetDatasetColumns     = "get_dataset_columns"
	ToolListQueryableDatasets = "list_queryable_datasets"
)

// Diagnostics returned in place of columns.
const (
	MsgDatasetNotFound     = "no matching dataset found"
	MsgNoQueryableResource = "dataset has no queryable resource"
)

func emptyObjectSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	}
}

func readOnlyAnnotations(title string) *mcp.ToolAnnotations {
	openWorld := true
	return &mcp.ToolAnnotations{
		Title:          title,
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  &openWorld,
	}
}

func listDatasetsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolListDatasets,
		Description: "List the names of every dataset published in the City of Toronto open data catalog, in catalog order.",
		InputSchema: emptyObjectSchema(),
		Annotations: readOnlyAnnotations("List datasets"),
	}
}

func searchDatasetsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolSearchDatasets,
		Description: "Search dataset names. Each query is matched case-insensitively as a substring; matches are returned per query, in query order, and may repeat across queries.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"queries": {
					Type:        "array",
					Description: "Substrings to look for in dataset names, e.g. [\"park\", \"ttc\"].",
					Items:       &jsonschema.Schema{Type: "string"},
				},
			},
			Required: []string{"queries"},
		},
		Annotations: readOnlyAnnotations("Search datasets"),
	}
}

func getDatasetColumnsTool() *mcp.Tool {
	return &mcp.Tool{
		Name: ToolGetDatasetColumns,
		Description: "Describe the columns of a dataset's first datastore-queryable resource. " +
			"Each entry is a JSON object with id, type and, when published, info. " +
			"Returns [\"" + MsgDatasetNotFound + "\"] or [\"" + MsgNoQueryableResource + "\"] when columns cannot be resolved.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"dataset_name": {
					Type:        "string",
					Description: "Exact, case-sensitive dataset name as returned by list_datasets.",
				},
			},
			Required: []string{"dataset_name"},
		},
		Annotations: readOnlyAnnotations("Get dataset columns"),
	}
}

func listQueryableDatasetsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        ToolListQueryableDatasets,
		Description: "List only the datasets whose columns can be read through the datastore API, in catalog order.",
		InputSchema: emptyObjectSchema(),
		Annotations: readOnlyAnnotations("List queryable datasets"),
	}
}
