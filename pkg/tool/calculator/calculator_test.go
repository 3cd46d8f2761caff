package calculator_test

import (
	"errors"
	"math"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/llmdemo/pkg/model"
	"github.com/m-mizutani/llmdemo/pkg/tool"
	"github.com/m-mizutani/llmdemo/pkg/tool/calculator"
)

func TestMultiply(t *testing.T) {
	gt.Equal(t, calculator.Multiply(15, 8), int32(120))
	gt.Equal(t, calculator.Multiply(-3, 7), int32(-21))
	gt.Equal(t, calculator.Multiply(0, 99), int32(0))

	// Commutative, wrapping on overflow
	gt.Equal(t, calculator.Multiply(math.MaxInt32, 2), calculator.Multiply(2, math.MaxInt32))
	gt.Equal(t, calculator.Multiply(math.MaxInt32, 2), int32(-2))
}

func TestAdd(t *testing.T) {
	gt.Equal(t, calculator.Add(100, 50), int32(150))
	gt.Equal(t, calculator.Add(50, 100), int32(150))
	gt.Equal(t, calculator.Add(math.MaxInt32, 1), int32(math.MinInt32))
}

func TestDivide(t *testing.T) {
	v, err := calculator.Divide(144, 12)
	gt.NoError(t, err)
	gt.Equal(t, v, 12.0)

	v, err = calculator.Divide(1, 4)
	gt.NoError(t, err)
	gt.Equal(t, v, 0.25)

	_, err = calculator.Divide(10, 0)
	gt.True(t, errors.Is(err, tool.ErrInvalidArgument))
	gt.S(t, err.Error()).Contains("cannot divide by zero")
}

func TestFormatNumber(t *testing.T) {
	gt.Equal(t, calculator.FormatNumber(12), "12.0")
	gt.Equal(t, calculator.FormatNumber(0.25), "0.25")
	gt.Equal(t, calculator.FormatNumber(-3), "-3.0")
}

func TestTools(t *testing.T) {
	r, err := calculator.NewRegistry()
	gt.NoError(t, err)
	gt.Equal(t, r.Names(), []string{"multiply", "add", "divide"})

	specs := r.Specs()
	gt.Equal(t, specs[0].Description, "Multiplies two numbers together")
	gt.Equal(t, specs[1].Description, "Adds two numbers together")
	gt.Equal(t, specs[2].Description, "Divides the first number by the second number")

	testCases := []struct {
		name   string
		tool   string
		args   string
		want   string
		expErr error
	}{
		{"multiply", "multiply", `{"a":15,"b":8}`, "120", nil},
		{"add", "add", `{"a":100,"b":50}`, "150", nil},
		{"divide", "divide", `{"a":144,"b":12}`, "12.0", nil},
		{"divide fraction", "divide", `{"a":7.5,"b":2}`, "3.75", nil},
		{"divide by zero", "divide", `{"a":1,"b":0}`, "", tool.ErrInvalidArgument},
		{"fractional int", "multiply", `{"a":1.5,"b":2}`, "", tool.ErrInvalidArgument},
		{"missing operand", "add", `{"a":1}`, "", tool.ErrInvalidArgument},
		{"beyond int32", "add", `{"a":3000000000,"b":1}`, "", tool.ErrInvalidArgument},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := r.Execute(t.Context(), model.ToolCall{Name: tc.tool, Arguments: tc.args})
			if tc.expErr != nil {
				gt.True(t, errors.Is(err, tc.expErr))
				return
			}
			gt.NoError(t, err)
			gt.Equal(t, out, tc.want)
		})
	}
}
