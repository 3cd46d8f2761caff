package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/model"
	"github.com/m-mizutani/llmdemo/pkg/tool"
	"github.com/m-mizutani/llmdemo/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverVersion = "0.1.0"

// NewServer creates an MCP server exposing every tool of registry. Tool
// failures are reported as error results, not protocol errors.
func NewServer(name string, registry *tool.Registry) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: serverVersion,
	}, nil)

	for _, spec := range registry.Specs() {
		schema := spec.Parameters
		if schema == nil {
			schema = &jsonschema.Schema{Type: "object"}
		}

		server.AddTool(&mcp.Tool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: schema,
		}, toolHandler(registry, spec.Name))
	}

	return server
}

func toolHandler(registry *tool.Registry, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args string
		if req.Params != nil {
			args = string(req.Params.Arguments)
		}

		result, err := registry.Execute(ctx, model.ToolCall{Name: name, Arguments: args})
		if err != nil {
			logging.From(ctx).Info("tool call failed", "name", name, "error", err)
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil
	}
}

// Serve runs an MCP server for registry over stdin/stdout until ctx is done
// or the client disconnects
func Serve(ctx context.Context, name string, registry *tool.Registry) error {
	server := NewServer(name, registry)
	logging.From(ctx).Info("serving MCP over stdio", "name", name, "tools", registry.Names())

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return goerr.Wrap(err, "MCP server stopped", goerr.V("name", name))
	}
	return nil
}
