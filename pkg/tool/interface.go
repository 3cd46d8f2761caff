package tool

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/llmdemo/pkg/model"
)

// Tool represents an external tool that can be called by the LLM
type Tool interface {
	// Spec returns the tool specification advertised to the model
	Spec() *model.ToolSpec

	// Execute runs the tool with JSON encoded arguments and returns the
	// observation text handed back to the model
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}
