package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/llmdemo/pkg/adapter"
	"github.com/m-mizutani/llmdemo/pkg/model"
	"github.com/m-mizutani/llmdemo/pkg/tool"
	"github.com/m-mizutani/llmdemo/pkg/tool/calculator"
	"github.com/m-mizutani/llmdemo/pkg/usecase/chat"
	"github.com/m-mizutani/llmdemo/pkg/usecase/testtools"
)

type mockRetriever struct {
	retrieveFunc func(ctx context.Context, query string) ([]*model.TextSegment, error)
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string) ([]*model.TextSegment, error) {
	return m.retrieveFunc(ctx, query)
}

func newCalculator(t *testing.T) *tool.Registry {
	t.Helper()
	r, err := calculator.NewRegistry()
	gt.NoError(t, err)
	return r
}

func TestChatPlainReply(t *testing.T) {
	mock := &testtools.ChatModel{ChatFunc: testtools.Script(testtools.Reply("hello there"))}

	a, err := chat.New(chat.Input{Model: mock, SystemPrompt: "be brief"})
	gt.NoError(t, err)

	reply, err := a.Chat(t.Context(), "hi")
	gt.NoError(t, err)
	gt.Equal(t, reply, "hello there")

	reqs := mock.Requests()
	gt.A(t, reqs).Length(1)
	gt.A(t, reqs[0].Messages).Length(2)
	gt.Equal(t, reqs[0].Messages[0].Role, model.RoleSystem)
	gt.Equal(t, reqs[0].Messages[1].Content, "hi")
	gt.A(t, reqs[0].Tools).Length(0)
}

func TestChatToolCall(t *testing.T) {
	mock := &testtools.ChatModel{
		ChatFunc: testtools.Script(
			testtools.CallTools(model.ToolCall{ID: "c1", Name: "multiply", Arguments: `{"a":15,"b":8}`}),
			testtools.Reply("15 * 8 = 120"),
		),
	}

	a, err := chat.New(chat.Input{Model: mock, Tools: newCalculator(t)})
	gt.NoError(t, err)

	reply, err := a.Chat(t.Context(), "What is 15 * 8?")
	gt.NoError(t, err)
	gt.S(t, reply).Contains("120")

	reqs := mock.Requests()
	gt.A(t, reqs).Length(2)
	gt.A(t, reqs[0].Tools).Length(3)

	second := reqs[1].Messages
	gt.A(t, second).Length(3)
	gt.Equal(t, second[1].Role, model.RoleAssistant)
	gt.Equal(t, second[2].Role, model.RoleTool)
	gt.Equal(t, second[2].ToolCallID, "c1")
	gt.Equal(t, second[2].Content, "120")
}

func TestChatDivideByZeroIsObservation(t *testing.T) {
	mock := &testtools.ChatModel{
		ChatFunc: testtools.Script(
			testtools.CallTools(model.ToolCall{ID: "c1", Name: "divide", Arguments: `{"a":10,"b":0}`}),
			testtools.Reply("You cannot divide by zero."),
		),
	}

	a, err := chat.New(chat.Input{Model: mock, Tools: newCalculator(t)})
	gt.NoError(t, err)

	reply, err := a.Chat(t.Context(), "What is 10 divided by 0?")
	gt.NoError(t, err)
	gt.S(t, reply).Contains("divide by zero")

	obs := mock.Requests()[1].Messages[2]
	gt.Equal(t, obs.Role, model.RoleTool)
	gt.S(t, obs.Content).Contains("Error: cannot divide by zero")
}

func TestChatUnknownToolAndBadArguments(t *testing.T) {
	mock := &testtools.ChatModel{
		ChatFunc: testtools.Script(
			testtools.CallTools(
				model.ToolCall{ID: "c1", Name: "sqrt", Arguments: `{"a":4}`},
				model.ToolCall{ID: "c2", Name: "add", Arguments: `{"a":"x"}`},
			),
			testtools.Reply("sorry"),
		),
	}

	a, err := chat.New(chat.Input{Model: mock, Tools: newCalculator(t)})
	gt.NoError(t, err)

	_, err = a.Chat(t.Context(), "do it")
	gt.NoError(t, err)

	msgs := mock.Requests()[1].Messages
	gt.A(t, msgs).Length(4)
	gt.S(t, msgs[2].Content).Contains("Error: tool not found")
	gt.S(t, msgs[3].Content).Contains("Error: ")
	gt.S(t, msgs[3].Content).Contains("invalid tool argument")
}

func TestChatToolCallWithoutRegistry(t *testing.T) {
	mock := &testtools.ChatModel{
		ChatFunc: testtools.Script(
			testtools.CallTools(model.ToolCall{ID: "c1", Name: "add", Arguments: `{"a":1,"b":2}`}),
			testtools.Reply("no tools"),
		),
	}

	a, err := chat.New(chat.Input{Model: mock})
	gt.NoError(t, err)

	reply, err := a.Chat(t.Context(), "add")
	gt.NoError(t, err)
	gt.Equal(t, reply, "no tools")
	gt.Equal(t, mock.Requests()[1].Messages[2].Content, "Error: tool registry not available")
}

func TestChatToolLoopLimit(t *testing.T) {
	calls := 0
	mock := &testtools.ChatModel{
		ChatFunc: func(ctx context.Context, req *model.ChatRequest) (*model.Message, error) {
			calls++
			return testtools.CallTools(model.ToolCall{ID: "c", Name: "add", Arguments: `{"a":1,"b":1}`}), nil
		},
	}

	a, err := chat.New(chat.Input{Model: mock, Tools: newCalculator(t), MaxIterations: 3})
	gt.NoError(t, err)

	reply, err := a.Chat(t.Context(), "loop forever")
	gt.NoError(t, err)
	gt.Equal(t, reply, "Error: tool call limit (3 iterations) exceeded without a final answer")
	gt.Equal(t, calls, 3)
}

func TestChatDefaultLoopLimit(t *testing.T) {
	calls := 0
	mock := &testtools.ChatModel{
		ChatFunc: func(ctx context.Context, req *model.ChatRequest) (*model.Message, error) {
			calls++
			return testtools.CallTools(model.ToolCall{ID: "c", Name: "add", Arguments: `{"a":1,"b":1}`}), nil
		},
	}

	a, err := chat.New(chat.Input{Model: mock, Tools: newCalculator(t)})
	gt.NoError(t, err)

	_, err = a.Chat(t.Context(), "loop forever")
	gt.NoError(t, err)
	gt.Equal(t, calls, chat.DefaultMaxIterations)
}

func TestChatRemoteErrorIsReturned(t *testing.T) {
	apiErr := &adapter.APIError{Provider: "openai", StatusCode: 401, Message: "Incorrect API key"}
	mock := &testtools.ChatModel{
		ChatFunc: func(ctx context.Context, req *model.ChatRequest) (*model.Message, error) {
			return nil, apiErr
		},
	}

	memory, err := model.NewChatMemory(10)
	gt.NoError(t, err)

	a, err := chat.New(chat.Input{Model: mock, Memory: memory})
	gt.NoError(t, err)

	_, err = a.Chat(t.Context(), "hi")
	gt.Error(t, err)

	var got *adapter.APIError
	gt.True(t, errors.As(err, &got))
	gt.Equal(t, got.StatusCode, 401)
}

func TestChatMemoryCarriesConversation(t *testing.T) {
	mock := &testtools.ChatModel{
		ChatFunc: testtools.Script(
			testtools.Reply("Nice to meet you, Alice."),
			testtools.Reply("Your name is Alice."),
		),
	}

	memory, err := model.NewChatMemory(10)
	gt.NoError(t, err)

	a, err := chat.New(chat.Input{Model: mock, Memory: memory})
	gt.NoError(t, err)

	_, err = a.Chat(t.Context(), "My name is Alice.")
	gt.NoError(t, err)
	_, err = a.Chat(t.Context(), "What is my name?")
	gt.NoError(t, err)

	msgs := mock.Requests()[1].Messages
	gt.A(t, msgs).Length(3)
	gt.Equal(t, msgs[0].Content, "My name is Alice.")
	gt.Equal(t, msgs[1].Content, "Nice to meet you, Alice.")
	gt.Equal(t, msgs[2].Content, "What is my name?")
	gt.Equal(t, memory.Len(), 4)
}

func TestChatMemoryIsBounded(t *testing.T) {
	mock := &testtools.ChatModel{
		ChatFunc: func(ctx context.Context, req *model.ChatRequest) (*model.Message, error) {
			return testtools.Reply("ok"), nil
		},
	}

	memory, err := model.NewChatMemory(10)
	gt.NoError(t, err)

	a, err := chat.New(chat.Input{Model: mock, Memory: memory})
	gt.NoError(t, err)

	for i := 0; i < 12; i++ {
		_, err := a.Chat(t.Context(), "message")
		gt.NoError(t, err)
		gt.Number(t, memory.Len()).LessOrEqual(10)
	}

	for _, req := range mock.Requests() {
		gt.Number(t, len(req.Messages)).LessOrEqual(10)
	}
}

func TestChatWithRetrievedContext(t *testing.T) {
	mock := &testtools.ChatModel{ChatFunc: testtools.Script(testtools.Reply("They build AI agents."))}
	retriever := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string) ([]*model.TextSegment, error) {
			gt.Equal(t, query, "What does Optimum AI Lab do?")
			return []*model.TextSegment{
				{Text: "Optimum AI Lab builds autonomous AI agents."},
				{Text: "We specialize in LLM frameworks."},
			}, nil
		},
	}

	memory, err := model.NewChatMemory(10)
	gt.NoError(t, err)

	a, err := chat.New(chat.Input{Model: mock, Retriever: retriever, Memory: memory})
	gt.NoError(t, err)

	reply, err := a.Chat(t.Context(), "What does Optimum AI Lab do?")
	gt.NoError(t, err)
	gt.Equal(t, reply, "They build AI agents.")

	sent := mock.Requests()[0].Messages[0].Content
	gt.S(t, sent).Contains("What does Optimum AI Lab do?")
	gt.S(t, sent).Contains("Answer using the following information:")
	gt.S(t, sent).Contains("Optimum AI Lab builds autonomous AI agents.")
	gt.S(t, sent).Contains("We specialize in LLM frameworks.")

	// Memory keeps the question as asked
	gt.Equal(t, memory.Messages()[0].Content, "What does Optimum AI Lab do?")
}

func TestChatWithoutRetrievedContext(t *testing.T) {
	mock := &testtools.ChatModel{ChatFunc: testtools.Script(testtools.Reply("I don't know."))}
	retriever := &mockRetriever{
		retrieveFunc: func(ctx context.Context, query string) ([]*model.TextSegment, error) {
			return nil, nil
		},
	}

	a, err := chat.New(chat.Input{Model: mock, Retriever: retriever})
	gt.NoError(t, err)

	_, err = a.Chat(t.Context(), "How tall is Mount Everest?")
	gt.NoError(t, err)

	sent := mock.Requests()[0].Messages[0].Content
	gt.S(t, sent).NotContains("Answer using the following information")
	gt.S(t, sent).Contains("No supporting information was found")
}

func TestNewValidation(t *testing.T) {
	_, err := chat.New(chat.Input{})
	gt.Error(t, err)

	_, err = chat.New(chat.Input{Model: &testtools.ChatModel{}, MaxIterations: -1})
	gt.Error(t, err)

	a, err := chat.New(chat.Input{Model: &testtools.ChatModel{}})
	gt.NoError(t, err)
	_, err = a.Chat(t.Context(), "  ")
	gt.Error(t, err)
}
