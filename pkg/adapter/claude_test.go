package adapter_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/llmdemo/pkg/adapter"
	"github.com/m-mizutani/llmdemo/pkg/model"
)

func claudeMessageJSON(content string) string {
	return `{
		"id": "msg_test",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-5",
		"content": ` + content + `,
		"stop_reason": "end_turn",
		"stop_sequence": null,
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`
}

func TestNewClaudeChatModelRequiresAPIKey(t *testing.T) {
	_, err := adapter.NewClaudeChatModel(adapter.ModelConfig{})
	gt.Error(t, err)
	gt.True(t, errors.Is(err, adapter.ErrMissingAPIKey))
}

func TestClaudeGenerate(t *testing.T) {
	srv := newOpenAIServer(t, func(path string, body map[string]any) (int, string) {
		gt.True(t, strings.HasSuffix(path, "/messages"))
		gt.Equal(t, body["model"], adapter.DefaultClaudeChatModel)
		return http.StatusOK, claudeMessageJSON(`[{"type": "text", "text": "Rayleigh scattering."}]`)
	})

	chat, err := adapter.NewClaudeChatModel(adapter.ModelConfig{APIKey: "k", BaseURL: srv.URL})
	gt.NoError(t, err)

	reply, err := chat.Generate(t.Context(), "Explain why the sky is blue in one sentence.")
	gt.NoError(t, err)
	gt.Equal(t, reply, "Rayleigh scattering.")
}

func TestClaudeChatWithToolCall(t *testing.T) {
	var gotBody map[string]any
	srv := newOpenAIServer(t, func(path string, body map[string]any) (int, string) {
		gotBody = body
		return http.StatusOK, claudeMessageJSON(`[
			{"type": "tool_use", "id": "toolu_1", "name": "multiply", "input": {"a":15,"b":8}}
		]`)
	})

	chat, err := adapter.NewClaudeChatModel(adapter.ModelConfig{APIKey: "k", BaseURL: srv.URL})
	gt.NoError(t, err)

	first := model.ToolCall{ID: "toolu_a", Name: "add", Arguments: `{"a":1,"b":2}`}
	second := model.ToolCall{ID: "toolu_b", Name: "add", Arguments: `{"a":3,"b":4}`}
	reply, err := chat.Chat(t.Context(), &model.ChatRequest{
		Messages: []model.Message{
			model.NewSystemMessage("You are a calculator."),
			model.NewUserMessage("Add 1+2 and 3+4"),
			{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{first, second}},
			model.NewToolMessage(first, "3"),
			model.NewToolMessage(second, "7"),
			model.NewAssistantMessage("3 and 7"),
			model.NewUserMessage("What is 15 * 8?"),
		},
		Tools: []*model.ToolSpec{
			{
				Name:        "multiply",
				Description: "Multiplies two numbers together",
				Parameters: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"a": {Type: "integer"},
						"b": {Type: "integer"},
					},
					Required: []string{"a", "b"},
				},
			},
		},
	})
	gt.NoError(t, err)
	gt.A(t, reply.ToolCalls).Length(1)
	gt.Equal(t, reply.ToolCalls[0].ID, "toolu_1")
	gt.Equal(t, reply.ToolCalls[0].Name, "multiply")
	gt.Equal(t, reply.ToolCalls[0].Arguments, `{"a":15,"b":8}`)

	// System prompt travels separately; both observations share one user turn
	gt.V(t, gotBody["system"]).NotNil()
	msgs := gotBody["messages"].([]any)
	roles := make([]string, len(msgs))
	for i, m := range msgs {
		roles[i] = m.(map[string]any)["role"].(string)
	}
	gt.Equal(t, roles, []string{"user", "assistant", "user", "assistant", "user"})

	results := msgs[2].(map[string]any)["content"].([]any)
	gt.A(t, results).Length(2)
	gt.Equal(t, results[0].(map[string]any)["type"], "tool_result")
	gt.Equal(t, results[1].(map[string]any)["tool_use_id"], "toolu_b")

	tools := gotBody["tools"].([]any)
	gt.A(t, tools).Length(1)
	def := tools[0].(map[string]any)
	gt.Equal(t, def["name"], "multiply")
	schema := def["input_schema"].(map[string]any)
	gt.Equal(t, schema["type"], "object")
	gt.Map(t, schema["properties"].(map[string]any)).HasKey("a")
}

func TestClaudeRemoteError(t *testing.T) {
	srv := newOpenAIServer(t, func(path string, body map[string]any) (int, string) {
		return http.StatusUnauthorized, `{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`
	})

	chat, err := adapter.NewClaudeChatModel(adapter.ModelConfig{APIKey: "bad", BaseURL: srv.URL})
	gt.NoError(t, err)

	_, err = chat.Generate(t.Context(), "hello")
	var apiErr *adapter.APIError
	gt.True(t, errors.As(err, &apiErr))
	gt.Equal(t, apiErr.Provider, "claude")
	gt.Equal(t, apiErr.StatusCode, http.StatusUnauthorized)
}
