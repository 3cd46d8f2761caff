package tool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/llmdemo/pkg/model"
	"github.com/m-mizutani/llmdemo/pkg/tool"
)

type echoArgs struct {
	Text string `json:"text"`
}

func newEcho(name string) tool.Tool {
	return tool.NewFunc(name, "Echoes the text back",
		&jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"text": {Type: "string"},
			},
			Required: []string{"text"},
		},
		func(ctx context.Context, args echoArgs) (string, error) {
			return args.Text, nil
		})
}

func TestRegistryExecute(t *testing.T) {
	r, err := tool.New(newEcho("echo"))
	gt.NoError(t, err)

	out, err := r.Execute(t.Context(), model.ToolCall{ID: "1", Name: "echo", Arguments: `{"text":"hello"}`})
	gt.NoError(t, err)
	gt.Equal(t, out, "hello")
}

func TestRegistryUnknownTool(t *testing.T) {
	r, err := tool.New(newEcho("echo"))
	gt.NoError(t, err)

	_, err = r.Execute(t.Context(), model.ToolCall{Name: "shout", Arguments: `{}`})
	gt.True(t, errors.Is(err, tool.ErrToolNotFound))
}

func TestRegistryInvalidArguments(t *testing.T) {
	r, err := tool.New(newEcho("echo"))
	gt.NoError(t, err)

	testCases := map[string]string{
		"not json":       `{"text":`,
		"missing field":  `{}`,
		"wrong type":     `{"text": 10}`,
		"not an object":  `["hello"]`,
		"empty argument": ``,
	}

	for name, args := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := r.Execute(t.Context(), model.ToolCall{Name: "echo", Arguments: args})
			gt.True(t, errors.Is(err, tool.ErrInvalidArgument))
		})
	}
}

func TestRegistryRejectsBadTools(t *testing.T) {
	_, err := tool.New(newEcho("echo"), newEcho("echo"))
	gt.Error(t, err)

	_, err = tool.New(newEcho(" "))
	gt.Error(t, err)

	_, err = tool.New(nil)
	gt.Error(t, err)
}

func TestRegistrySpecsKeepOrder(t *testing.T) {
	r, err := tool.New(newEcho("b"), newEcho("a"), newEcho("c"))
	gt.NoError(t, err)

	gt.Equal(t, r.Names(), []string{"b", "a", "c"})
	gt.Equal(t, r.Len(), 3)

	specs := r.Specs()
	gt.A(t, specs).Length(3)
	gt.Equal(t, specs[1].Name, "a")
	gt.Equal(t, specs[1].Description, "Echoes the text back")
}

func TestFuncDecodeFailure(t *testing.T) {
	// Schema-less tools still reject arguments that do not decode into T
	f := tool.NewFunc("count", "", nil, func(ctx context.Context, args struct{ N int }) (string, error) {
		return "", nil
	})

	_, err := f.Execute(t.Context(), []byte(`{"N":"many"}`))
	gt.True(t, errors.Is(err, tool.ErrInvalidArgument))
}
