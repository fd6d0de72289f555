package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"sixmcp/internal/domain"
	"sixmcp/internal/infra/telemetry"
)

// Catalog is the read side of the catalog the tools depend on.
type Catalog interface {
	ListDatasetNames(ctx context.Context) ([]string, error)
	ListQueryableDatasetNames(ctx context.Context) ([]string, error)
	GetColumns(ctx context.Context, name string) (domain.ColumnsResult, error)
}

type toolFunc func(ctx context.Context, args json.RawMessage) ([]string, error)

type registration struct {
	tool   *mcp.Tool
	schema *jsonschema.Resolved
	run    toolFunc
}

// Handlers serves the catalog tools.
type Handlers struct {
	catalog Catalog
	metrics domain.Metrics
	logger  *zap.Logger
	tools   []registration
}

func NewHandlers(catalog Catalog, metrics domain.Metrics, logger *zap.Logger) (*Handlers, error) {
	if catalog == nil {
		return nil, errors.New("tools: catalog is required")
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handlers{
		catalog: catalog,
		metrics: metrics,
		logger:  logger.Named("tools"),
	}

	defs := []struct {
		tool *mcp.Tool
		run  toolFunc
	}{
		{listDatasetsTool(), h.listDatasets},
		{searchDatasetsTool(), h.searchDatasets},
		{getDatasetColumnsTool(), h.getDatasetColumns},
		{listQueryableDatasetsTool(), h.listQueryableDatasets},
	}
	for _, def := range defs {
		schema, ok := def.tool.InputSchema.(*jsonschema.Schema)
		if !ok {
			return nil, fmt.Errorf("tools: %s has no input schema", def.tool.Name)
		}
		resolved, err := schema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("tools: resolve %s schema: %w", def.tool.Name, err)
		}
		h.tools = append(h.tools, registration{tool: def.tool, schema: resolved, run: def.run})
	}
	return h, nil
}

// Tools returns the tool definitions in registration order.
func (h *Handlers) Tools() []*mcp.Tool {
	out := make([]*mcp.Tool, 0, len(h.tools))
	for _, reg := range h.tools {
		out = append(out, reg.tool)
	}
	return out
}

// Register adds every tool to server.
func (h *Handlers) Register(server *mcp.Server) {
	for _, reg := range h.tools {
		server.AddTool(reg.tool, h.handler(reg))
	}
}

func (h *Handlers) handler(reg registration) mcp.ToolHandler {
	name := reg.tool.Name
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if req != nil && req.Extra != nil {
			ctx = telemetry.WithHeaderRequestID(ctx, req.Extra.Header)
		}
		ctx, _ = telemetry.StartToolRequest(ctx, name, "")
		logger := telemetry.LoggerWithRequest(ctx, h.logger)
		start := time.Now()

		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}

		items, err := h.invoke(ctx, reg, args)
		duration := time.Since(start)
		if err != nil {
			h.metrics.ObserveTool(domain.ToolMetric{Tool: name, Status: domain.ToolStatusError, Duration: duration})
			code, _ := domain.CodeFrom(err)
			logger.Warn("tool call failed",
				telemetry.EventField(telemetry.EventToolFailure),
				telemetry.DurationField(duration),
				zap.String("code", string(code)),
				zap.Error(err),
			)
			return errorResult(err), nil
		}

		h.metrics.ObserveTool(domain.ToolMetric{Tool: name, Status: domain.ToolStatusSuccess, Duration: duration})
		logger.Debug("tool call",
			telemetry.EventField(telemetry.EventToolCall),
			telemetry.DurationField(duration),
			zap.Int("items", len(items)),
		)
		return itemsResult(items)
	}
}

func (h *Handlers) invoke(ctx context.Context, reg registration, args json.RawMessage) ([]string, error) {
	if err := validateArguments(reg.schema, args); err != nil {
		return nil, err
	}
	return reg.run(ctx, args)
}

func validateArguments(schema *jsonschema.Resolved, args json.RawMessage) error {
	var instance any = map[string]any{}
	if len(args) > 0 && string(args) != "null" {
		if err := json.Unmarshal(args, &instance); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
		}
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}
	return nil
}

func (h *Handlers) listDatasets(ctx context.Context, _ json.RawMessage) ([]string, error) {
	return h.catalog.ListDatasetNames(ctx)
}

func (h *Handlers) listQueryableDatasets(ctx context.Context, _ json.RawMessage) ([]string, error) {
	return h.catalog.ListQueryableDatasetNames(ctx)
}

type searchArgs struct {
	Queries []string `json:"queries"`
}

func (h *Handlers) searchDatasets(ctx context.Context, raw json.RawMessage) ([]string, error) {
	var args searchArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}
	if len(args.Queries) == 0 {
		return []string{}, nil
	}
	names, err := h.catalog.ListDatasetNames(ctx)
	if err != nil {
		return nil, err
	}
	return SearchNames(names, args.Queries), nil
}

type columnsArgs struct {
	DatasetName string `json:"dataset_name"`
}

func (h *Handlers) getDatasetColumns(ctx context.Context, raw json.RawMessage) ([]string, error) {
	var args columnsArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArguments, err)
	}
	result, err := h.catalog.GetColumns(ctx, args.DatasetName)
	if err != nil {
		return nil, err
	}
	if unavailable := result.Err(); unavailable != nil {
		code, _ := domain.CodeFrom(unavailable)
		telemetry.LoggerWithRequest(ctx, h.logger).Info("dataset columns unavailable",
			telemetry.DatasetField(args.DatasetName),
			zap.String("code", string(code)),
			zap.String("reason", unavailable.Error()),
		)
		if errors.Is(unavailable, domain.ErrDatasetNotFound) {
			return []string{MsgDatasetNotFound}, nil
		}
		return []string{MsgNoQueryableResource}, nil
	}

	items := make([]string, 0, len(result.Columns))
	for _, col := range result.Columns {
		encoded, err := encodeColumn(col)
		if err != nil {
			return nil, err
		}
		items = append(items, encoded)
	}
	return items, nil
}

func encodeColumn(col domain.ColumnDescriptor) (string, error) {
	if string(col.Info) == "null" {
		col.Info = nil
	}
	raw, err := json.Marshal(col)
	if err != nil {
		return "", domain.Wrap(domain.CodeInternal, "encode column", err)
	}
	return string(raw), nil
}

func itemsResult(items []string) (*mcp.CallToolResult, error) {
	if items == nil {
		items = []string{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(raw)},
		},
		StructuredContent: map[string]any{"items": items},
	}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %s", err.Error())},
		},
	}
}
