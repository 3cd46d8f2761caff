package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/model"
	"github.com/m-mizutani/llmdemo/pkg/tool"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Provider exposes the tools of connected MCP servers as tool.Tool
type Provider struct {
	client *Client
}

// NewProvider creates a new MCP tool provider
func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

// Tools returns one tool.Tool per remote tool across all servers
func (p *Provider) Tools() ([]tool.Tool, error) {
	var tools []tool.Tool

	for _, serverName := range p.client.GetAllServers() {
		remote, err := p.client.GetTools(serverName)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get tools from server", goerr.V("server", serverName))
		}

		for _, t := range remote {
			spec, err := convertToToolSpec(t)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert tool",
					goerr.V("server", serverName),
					goerr.V("tool", t.Name))
			}

			tools = append(tools, &remoteTool{
				client:     p.client,
				serverName: serverName,
				spec:       spec,
			})
		}
	}

	return tools, nil
}

// Close disconnects from all servers
func (p *Provider) Close() error {
	return p.client.Close()
}

// convertToToolSpec converts an MCP tool to a model.ToolSpec
func convertToToolSpec(t *mcp.Tool) (*model.ToolSpec, error) {
	spec := &model.ToolSpec{
		Name:        t.Name,
		Description: t.Description,
	}

	if t.InputSchema != nil {
		// InputSchema arrives as a generic value, so go through JSON
		schemaJSON, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal input schema")
		}

		var schema jsonschema.Schema
		if err := json.Unmarshal(schemaJSON, &schema); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal input schema")
		}
		spec.Parameters = &schema
	}

	return spec, nil
}

type remoteTool struct {
	client     *Client
	serverName string
	spec       *model.ToolSpec
}

func (t *remoteTool) Spec() *model.ToolSpec {
	return t.spec
}

func (t *remoteTool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	var arguments map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &arguments); err != nil {
			return "", goerr.Wrap(tool.ErrInvalidArgument, "failed to decode arguments",
				goerr.V("tool", t.spec.Name),
				goerr.V("args", string(raw)))
		}
	}

	result, err := t.client.CallTool(ctx, t.serverName, t.spec.Name, arguments)
	if err != nil {
		return "", goerr.Wrap(err, "failed to call MCP tool")
	}

	text := resultText(result)
	if result.IsError {
		return "", goerr.New(text,
			goerr.V("server", t.serverName),
			goerr.V("tool", t.spec.Name))
	}
	return text, nil
}

// resultText joins the text contents of result. Non-text contents are
// rendered as JSON.
func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		if text, ok := c.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
			continue
		}
		if raw, err := json.Marshal(c); err == nil {
			parts = append(parts, string(raw))
		}
	}
	return strings.Join(parts, "\n")
}

var _ tool.Tool = (*remoteTool)(nil)
