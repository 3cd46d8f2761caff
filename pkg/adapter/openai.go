package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/model"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	providerOpenAI = "openai"

	DefaultOpenAIChatModel      = "gpt-4-turbo-preview"
	DefaultOpenAIEmbeddingModel = openai.EmbeddingModelTextEmbedding3Small
)

func newOpenAIClient(cfg ModelConfig) (openai.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return openai.Client{}, goerr.Wrap(ErrMissingAPIKey, "failed to create openai client", goerr.V("provider", providerOpenAI))
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return openai.NewClient(opts...), nil
}

// OpenAIChatModel implements ChatModel with the chat completions API
type OpenAIChatModel struct {
	client    openai.Client
	modelName string
}

// NewOpenAIChatModel creates a chat model handle. It does not contact the
// service.
func NewOpenAIChatModel(cfg ModelConfig) (*OpenAIChatModel, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = DefaultOpenAIChatModel
	}

	return &OpenAIChatModel{
		client:    client,
		modelName: modelName,
	}, nil
}

func (c *OpenAIChatModel) Generate(ctx context.Context, prompt string) (string, error) {
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

func (c *OpenAIChatModel) Chat(ctx context.Context, req *model.ChatRequest) (*model.Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.modelName),
		Messages: toOpenAIMessages(req.Messages),
	}

	if len(req.Tools) > 0 {
		tools, err := toOpenAITools(req.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = tools
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, goerr.Wrap(convertOpenAIError(err), "failed to create chat completion", goerr.V("model", c.modelName))
	}

	if len(completion.Choices) == 0 {
		return nil, goerr.Wrap(ErrEmptyResponse, "no choices in completion", goerr.V("model", c.modelName))
	}

	msg := completion.Choices[0].Message
	reply := &model.Message{
		Role:    model.RoleAssistant,
		Content: msg.Content,
	}
	for _, tc := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, model.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return reply, nil
}

func toOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))

		case model.RoleUser:
			out = append(out, openai.UserMessage(m.Content))

		case model.RoleAssistant:
			var asst openai.ChatCompletionAssistantMessageParam
			if m.Content != "" {
				asst.Content.OfString = openai.String(m.Content)
			}
			for _, tc := range m.ToolCalls {
				asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: tc.Arguments,
						},
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})

		case model.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		}
	}

	return out
}

func toOpenAITools(specs []*model.ToolSpec) ([]openai.ChatCompletionToolUnionParam, error) {
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(specs))

	for _, spec := range specs {
		params, err := schemaToMap(spec)
		if err != nil {
			return nil, err
		}

		tools = append(tools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        spec.Name,
			Description: openai.String(spec.Description),
			Parameters:  openai.FunctionParameters(params),
		}))
	}

	return tools, nil
}

// schemaToMap renders the parameter schema as the generic JSON object the
// SDK expects
func schemaToMap(spec *model.ToolSpec) (map[string]any, error) {
	if spec.Parameters == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}, nil
	}

	raw, err := json.Marshal(spec.Parameters)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal tool schema", goerr.V("tool", spec.Name))
	}

	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal tool schema", goerr.V("tool", spec.Name))
	}
	return params, nil
}

func convertOpenAIError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	return &APIError{
		Provider:   providerOpenAI,
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Message,
		Err:        err,
	}
}

// OpenAIEmbeddingModel implements EmbeddingModel with the embeddings API
type OpenAIEmbeddingModel struct {
	client    openai.Client
	modelName openai.EmbeddingModel
}

// NewOpenAIEmbeddingModel creates an embedding model handle
func NewOpenAIEmbeddingModel(cfg ModelConfig) (*OpenAIEmbeddingModel, error) {
	client, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}

	modelName := openai.EmbeddingModel(cfg.ModelName)
	if modelName == "" {
		modelName = DefaultOpenAIEmbeddingModel
	}

	return &OpenAIEmbeddingModel{
		client:    client,
		modelName: modelName,
	}, nil
}

func (e *OpenAIEmbeddingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.New("text to embed is empty")
	}

	vectors, err := e.embed(ctx, openai.EmbeddingNewParamsInputUnion{
		OfString: openai.String(text),
	}, 1)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbeddingModel) EmbedAll(ctx context.Context, segments []*model.TextSegment) ([][]float32, error) {
	if len(segments) == 0 {
		return nil, goerr.New("no segments to embed")
	}

	texts := make([]string, len(segments))
	for i, s := range segments {
		if strings.TrimSpace(s.Text) == "" {
			return nil, goerr.New("segment text is empty", goerr.V("index", i))
		}
		texts[i] = s.Text
	}

	return e.embed(ctx, openai.EmbeddingNewParamsInputUnion{
		OfArrayOfStrings: texts,
	}, len(texts))
}

func (e *OpenAIEmbeddingModel) embed(ctx context.Context, input openai.EmbeddingNewParamsInputUnion, expected int) ([][]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: input,
		Model: e.modelName,
	})
	if err != nil {
		return nil, goerr.Wrap(convertOpenAIError(err), "failed to create embeddings", goerr.V("model", e.modelName))
	}

	if len(resp.Data) != expected {
		return nil, goerr.Wrap(ErrEmptyResponse, "unexpected number of embeddings",
			goerr.V("expected", expected),
			goerr.V("actual", len(resp.Data)))
	}

	vectors := make([][]float32, len(resp.Data))
	for _, data := range resp.Data {
		idx := int(data.Index)
		if idx < 0 || idx >= len(vectors) {
			return nil, goerr.New("embedding index out of range", goerr.V("index", idx))
		}

		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		vectors[idx] = vec
	}

	return vectors, nil
}

var _ ChatModel = (*OpenAIChatModel)(nil)
var _ EmbeddingModel = (*OpenAIEmbeddingModel)(nil)
