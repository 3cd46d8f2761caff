package tool

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/model"
)

// Func is a Tool backed by a typed Go function. Arguments are decoded into T
// before the function is called.
type Func[T any] struct {
	spec *model.ToolSpec
	fn   func(ctx context.Context, args T) (string, error)
}

// NewFunc creates a Tool from fn. params describes the JSON shape of T.
func NewFunc[T any](name, description string, params *jsonschema.Schema, fn func(ctx context.Context, args T) (string, error)) *Func[T] {
	return &Func[T]{
		spec: &model.ToolSpec{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
		fn: fn,
	}
}

func (f *Func[T]) Spec() *model.ToolSpec {
	return f.spec
}

func (f *Func[T]) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	var args T
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", goerr.Wrap(ErrInvalidArgument, "failed to decode arguments",
			goerr.V("tool", f.spec.Name),
			goerr.V("args", string(raw)),
			goerr.V("cause", err.Error()))
	}

	return f.fn(ctx, args)
}

var _ Tool = (*Func[struct{}])(nil)
