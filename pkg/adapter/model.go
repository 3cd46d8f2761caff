package adapter

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/model"
)

var (
	// ErrMissingAPIKey is returned when a model handle is built without credentials
	ErrMissingAPIKey = goerr.New("api key is required")

	// ErrEmptyResponse is returned when the provider answers without usable content
	ErrEmptyResponse = goerr.New("empty response from model")
)

// ChatModel is a configured remote chat model
type ChatModel interface {
	// Generate sends a single user prompt and returns the textual reply
	Generate(ctx context.Context, prompt string) (string, error)

	// Chat sends a full conversation with optional tool definitions. The
	// returned assistant message either has Content or ToolCalls.
	Chat(ctx context.Context, req *model.ChatRequest) (*model.Message, error)
}

// EmbeddingModel turns text into fixed-dimensional vectors
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedAll embeds segments in one request, preserving order
	EmbedAll(ctx context.Context, segments []*model.TextSegment) ([][]float32, error)
}

// ModelConfig is the construction record shared by every model handle
type ModelConfig struct {
	APIKey    string
	ModelName string

	// BaseURL overrides the provider endpoint; empty uses the SDK default
	BaseURL string
}
