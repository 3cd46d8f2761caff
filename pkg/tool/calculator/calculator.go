// Package calculator provides arithmetic tools for the tool-calling assistant.
package calculator

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/tool"
)

const (
	NameMultiply = "multiply"
	NameAdd      = "add"
	NameDivide   = "divide"
)

// Multiply returns a*b. The result wraps on 32-bit overflow.
func Multiply(a, b int32) int32 {
	return a * b
}

// Add returns a+b. The result wraps on 32-bit overflow.
func Add(a, b int32) int32 {
	return a + b
}

// Divide returns a/b. A zero divisor is rejected.
func Divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, goerr.Wrap(tool.ErrInvalidArgument, "cannot divide by zero",
			goerr.V("a", a),
			goerr.V("b", b))
	}
	return a / b, nil
}

type intArgs struct {
	A int32 `json:"a"`
	B int32 `json:"b"`
}

type numberArgs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func operands(typ, description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"a": {Type: typ, Description: "first " + description},
			"b": {Type: typ, Description: "second " + description},
		},
		Required: []string{"a", "b"},
	}
}

// Tools returns the multiply, add and divide tools
func Tools() []tool.Tool {
	return []tool.Tool{
		tool.NewFunc(NameMultiply, "Multiplies two numbers together", operands("integer", "factor"),
			func(ctx context.Context, args intArgs) (string, error) {
				return strconv.FormatInt(int64(Multiply(args.A, args.B)), 10), nil
			}),
		tool.NewFunc(NameAdd, "Adds two numbers together", operands("integer", "addend"),
			func(ctx context.Context, args intArgs) (string, error) {
				return strconv.FormatInt(int64(Add(args.A, args.B)), 10), nil
			}),
		tool.NewFunc(NameDivide, "Divides the first number by the second number", operands("number", "number"),
			func(ctx context.Context, args numberArgs) (string, error) {
				v, err := Divide(args.A, args.B)
				if err != nil {
					return "", err
				}
				return FormatNumber(v), nil
			}),
	}
}

// NewRegistry returns a registry holding the calculator tools
func NewRegistry() (*tool.Registry, error) {
	return tool.New(Tools()...)
}

// FormatNumber renders v with at least one decimal place, e.g. 12 as "12.0"
func FormatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}
