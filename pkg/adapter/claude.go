package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/model"
)

const (
	providerClaude = "claude"

	DefaultClaudeChatModel = "claude-sonnet-4-5"

	claudeMaxTokens = 4096
)

// ClaudeChatModel implements ChatModel with the Anthropic messages API.
// Anthropic has no embedding endpoint, so there is no embedding counterpart.
type ClaudeChatModel struct {
	client    anthropic.Client
	modelName string
}

func NewClaudeChatModel(cfg ModelConfig) (*ClaudeChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, goerr.Wrap(ErrMissingAPIKey, "failed to create anthropic client", goerr.V("provider", providerClaude))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = DefaultClaudeChatModel
	}

	return &ClaudeChatModel{
		client:    anthropic.NewClient(opts...),
		modelName: modelName,
	}, nil
}

func (c *ClaudeChatModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.Chat(ctx, &model.ChatRequest{
		Messages: []model.Message{model.NewUserMessage(prompt)},
	})
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(resp.Content) == "" {
		return "", goerr.Wrap(ErrEmptyResponse, "no text in reply", goerr.V("model", c.modelName))
	}
	return resp.Content, nil
}

func (c *ClaudeChatModel) Chat(ctx context.Context, req *model.ChatRequest) (*model.Message, error) {
	messages, system, err := toClaudeMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.modelName),
		MaxTokens: claudeMaxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	for _, spec := range req.Tools {
		schema, err := schemaToMap(spec)
		if err != nil {
			return nil, err
		}

		tp := anthropic.ToolParam{
			Name:        spec.Name,
			Description: anthropic.String(spec.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
			},
		}
		if required, ok := schema["required"].([]any); ok {
			for _, r := range required {
				if s, ok := r.(string); ok {
					tp.InputSchema.Required = append(tp.InputSchema.Required, s)
				}
			}
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &tp})
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(convertClaudeError(err), "failed to create message", goerr.V("model", c.modelName))
	}

	reply := &model.Message{Role: model.RoleAssistant}
	var text strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			args := string(block.Input)
			if strings.TrimSpace(args) == "" {
				args = "{}"
			}
			reply.ToolCalls = append(reply.ToolCalls, model.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}
	reply.Content = text.String()

	return reply, nil
}

// toClaudeMessages converts a conversation to Anthropic messages. Tool
// observations become tool_result blocks of a user turn; consecutive ones
// share the same turn.
func toClaudeMessages(messages []model.Message) ([]anthropic.MessageParam, string, error) {
	var (
		out        []anthropic.MessageParam
		system     []string
		lastResult bool
	)

	for _, m := range messages {
		isResult := false

		switch m.Role {
		case model.RoleSystem:
			system = append(system, m.Content)

		case model.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))

		case model.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var input any = map[string]any{}
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
						return nil, "", goerr.Wrap(err, "failed to decode tool call arguments", goerr.V("tool", tc.Name))
					}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))

		case model.RoleTool:
			isResult = true
			block := anthropic.NewToolResultBlock(m.ToolCallID, m.Content, strings.HasPrefix(m.Content, "Error:"))
			if lastResult {
				out[len(out)-1].Content = append(out[len(out)-1].Content, block)
			} else {
				out = append(out, anthropic.NewUserMessage(block))
			}
		}

		lastResult = isResult
	}

	return out, strings.Join(system, "\n\n"), nil
}

func convertClaudeError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	return &APIError{
		Provider:   providerClaude,
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Error(),
		Err:        err,
	}
}

var _ ChatModel = (*ClaudeChatModel)(nil)
