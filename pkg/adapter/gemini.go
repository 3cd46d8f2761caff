package adapter

import (
	"context"
	"errors"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/model"
	"google.golang.org/genai"
)

const (
	providerGemini = "gemini"

	DefaultGeminiChatModel      = "gemini-2.5-flash"
	DefaultGeminiEmbeddingModel = "gemini-embedding-001"
)

func newGeminiClient(ctx context.Context, cfg ModelConfig) (*genai.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, goerr.Wrap(ErrMissingAPIKey, "failed to create genai client", goerr.V("provider", providerGemini))
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}
	return client, nil
}

// GeminiChatModel implements ChatModel with the Gemini API
type GeminiChatModel struct {
	client    *genai.Client
	modelName string
}

func NewGeminiChatModel(ctx context.Context, cfg ModelConfig) (*GeminiChatModel, error) {
	client, err := newGeminiClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = DefaultGeminiChatModel
	}

	return &GeminiChatModel{
		client:    client,
		modelName: modelName,
	}, nil
}

func (g *GeminiChatModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.Chat(ctx, &model.ChatRequest{
		Messages: []model.Message{model.NewUserMessage(prompt)},
	})
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(resp.Content) == "" {
		return "", goerr.Wrap(ErrEmptyResponse, "no text in reply", goerr.V("model", g.modelName))
	}
	return resp.Content, nil
}

func (g *GeminiChatModel) Chat(ctx context.Context, req *model.ChatRequest) (*model.Message, error) {
	contents, system := toGeminiContents(req.Messages)

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, "")
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, spec := range req.Tools {
			params, err := convertJSONSchemaToGenai(spec.Parameters)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert tool schema", goerr.V("tool", spec.Name))
			}
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  params,
			})
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, contents, config)
	if err != nil {
		return nil, goerr.Wrap(convertGeminiError(err), "failed to generate content", goerr.V("model", g.modelName))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, goerr.Wrap(ErrEmptyResponse, "no candidates in response", goerr.V("model", g.modelName))
	}

	reply := &model.Message{Role: model.RoleAssistant}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" && !part.Thought {
			text.WriteString(part.Text)
		}
		if part.FunctionCall != nil {
			args, err := marshalArgs(part.FunctionCall.Args)
			if err != nil {
				return nil, err
			}
			reply.ToolCalls = append(reply.ToolCalls, model.ToolCall{
				ID:        part.FunctionCall.ID,
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}
	reply.Content = text.String()

	return reply, nil
}

// toGeminiContents converts a conversation to Gemini contents. System
// messages are merged into a single system instruction.
func toGeminiContents(messages []model.Message) ([]*genai.Content, string) {
	var (
		contents []*genai.Content
		system   []string
	)

	for _, m := range messages {
		switch m.Role {
		case model.RoleSystem:
			system = append(system, m.Content)

		case model.RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))

		case model.RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   tc.ID,
						Name: tc.Name,
						Args: unmarshalArgs(tc.Arguments),
					},
				})
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})

		case model.RoleTool:
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       m.ToolCallID,
					Name:     m.ToolName,
					Response: map[string]any{"result": m.Content},
				},
			}
			// Consecutive observations answer the same model turn
			if n := len(contents); n > 0 && contents[n-1].Role == genai.RoleUser && isFunctionResponse(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{part}})
		}
	}

	return contents, strings.Join(system, "\n\n")
}

func isFunctionResponse(c *genai.Content) bool {
	for _, p := range c.Parts {
		if p.FunctionResponse == nil {
			return false
		}
	}
	return len(c.Parts) > 0
}

func convertGeminiError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	return &APIError{
		Provider:   providerGemini,
		StatusCode: apiErr.Code,
		Message:    apiErr.Message,
		Err:        err,
	}
}

// GeminiEmbeddingModel implements EmbeddingModel with the Gemini API
type GeminiEmbeddingModel struct {
	client    *genai.Client
	modelName string
}

func NewGeminiEmbeddingModel(ctx context.Context, cfg ModelConfig) (*GeminiEmbeddingModel, error) {
	client, err := newGeminiClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = DefaultGeminiEmbeddingModel
	}

	return &GeminiEmbeddingModel{
		client:    client,
		modelName: modelName,
	}, nil
}

func (g *GeminiEmbeddingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.New("text to embed is empty")
	}

	vectors, err := g.embed(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (g *GeminiEmbeddingModel) EmbedAll(ctx context.Context, segments []*model.TextSegment) ([][]float32, error) {
	if len(segments) == 0 {
		return nil, goerr.New("no segments to embed")
	}

	contents := make([]*genai.Content, len(segments))
	for i, s := range segments {
		if strings.TrimSpace(s.Text) == "" {
			return nil, goerr.New("segment text is empty", goerr.V("index", i))
		}
		contents[i] = genai.NewContentFromText(s.Text, genai.RoleUser)
	}

	return g.embed(ctx, contents)
}

func (g *GeminiEmbeddingModel) embed(ctx context.Context, contents []*genai.Content) ([][]float32, error) {
	resp, err := g.client.Models.EmbedContent(ctx, g.modelName, contents, &genai.EmbedContentConfig{})
	if err != nil {
		return nil, goerr.Wrap(convertGeminiError(err), "failed to embed content", goerr.V("model", g.modelName))
	}

	if len(resp.Embeddings) != len(contents) {
		return nil, goerr.Wrap(ErrEmptyResponse, "unexpected number of embeddings",
			goerr.V("expected", len(contents)),
			goerr.V("actual", len(resp.Embeddings)))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = e.Values
	}
	return vectors, nil
}

var _ ChatModel = (*GeminiChatModel)(nil)
var _ EmbeddingModel = (*GeminiEmbeddingModel)(nil)
