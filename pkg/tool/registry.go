package tool

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/model"
	"github.com/m-mizutani/llmdemo/pkg/utils/logging"
)

var (
	ErrToolNotFound    = goerr.New("tool not found")
	ErrInvalidArgument = goerr.New("invalid tool argument")
)

type entry struct {
	tool   Tool
	schema *jsonschema.Resolved
}

// Registry manages available tools for the LLM
type Registry struct {
	tools map[string]*entry
	order []string
}

// New creates a new tool registry with the given tools. Tool names must be
// unique and parameter schemas must resolve.
func New(tools ...Tool) (*Registry, error) {
	r := &Registry{
		tools: make(map[string]*entry, len(tools)),
	}

	for i, t := range tools {
		if t == nil || t.Spec() == nil {
			return nil, goerr.New("tool is nil", goerr.V("index", i))
		}

		spec := t.Spec()
		if strings.TrimSpace(spec.Name) == "" {
			return nil, goerr.New("tool name is empty", goerr.V("index", i))
		}
		if _, exists := r.tools[spec.Name]; exists {
			return nil, goerr.New("tool already registered", goerr.V("name", spec.Name))
		}

		e := &entry{tool: t}
		if spec.Parameters != nil {
			resolved, err := spec.Parameters.Resolve(nil)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to resolve tool schema", goerr.V("name", spec.Name))
			}
			e.schema = resolved
		}

		r.tools[spec.Name] = e
		r.order = append(r.order, spec.Name)
	}

	return r, nil
}

// Specs returns all tool specifications in registration order
func (r *Registry) Specs() []*model.ToolSpec {
	specs := make([]*model.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].tool.Spec())
	}
	return specs
}

// Names returns registered tool names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	return len(r.order)
}

// Execute validates the call arguments against the tool schema and runs the
// tool
func (r *Registry) Execute(ctx context.Context, call model.ToolCall) (string, error) {
	e, ok := r.tools[call.Name]
	if !ok {
		return "", goerr.Wrap(ErrToolNotFound, "tool not found", goerr.V("name", call.Name))
	}

	raw := strings.TrimSpace(call.Arguments)
	if raw == "" {
		raw = "{}"
	}

	var instance any
	if err := json.Unmarshal([]byte(raw), &instance); err != nil {
		return "", goerr.Wrap(ErrInvalidArgument, "arguments are not valid JSON",
			goerr.V("name", call.Name),
			goerr.V("args", call.Arguments))
	}

	if e.schema != nil {
		if err := e.schema.Validate(instance); err != nil {
			return "", goerr.Wrap(ErrInvalidArgument, err.Error(),
				goerr.V("name", call.Name),
				goerr.V("args", call.Arguments))
		}
	}

	logging.From(ctx).Debug("execute tool", "name", call.Name, "args", raw)

	return e.tool.Execute(ctx, json.RawMessage(raw))
}
