// Package testtools provides fake model handles for tests.
package testtools

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/adapter"
	"github.com/m-mizutani/llmdemo/pkg/model"
)

// ChatModel is a func-field fake of adapter.ChatModel. Every Chat request is
// recorded.
type ChatModel struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
	ChatFunc     func(ctx context.Context, req *model.ChatRequest) (*model.Message, error)

	mu       sync.Mutex
	prompts  []string
	requests []*model.ChatRequest
}

func (m *ChatModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.GenerateFunc == nil {
		return "", goerr.New("GenerateFunc is not set")
	}
	return m.GenerateFunc(ctx, prompt)
}

func (m *ChatModel) Chat(ctx context.Context, req *model.ChatRequest) (*model.Message, error) {
	m.mu.Lock()
	copied := &model.ChatRequest{
		Messages: append([]model.Message(nil), req.Messages...),
		Tools:    req.Tools,
	}
	m.requests = append(m.requests, copied)
	m.mu.Unlock()

	if m.ChatFunc == nil {
		return nil, goerr.New("ChatFunc is not set")
	}
	return m.ChatFunc(ctx, req)
}

// Prompts returns the prompts passed to Generate
func (m *ChatModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Requests returns snapshots of the requests passed to Chat
func (m *ChatModel) Requests() []*model.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.ChatRequest(nil), m.requests...)
}

// Script returns a ChatFunc replying with replies in order. It fails once the
// replies are exhausted.
func Script(replies ...*model.Message) func(ctx context.Context, req *model.ChatRequest) (*model.Message, error) {
	var (
		mu sync.Mutex
		n  int
	)
	return func(ctx context.Context, req *model.ChatRequest) (*model.Message, error) {
		mu.Lock()
		defer mu.Unlock()
		if n >= len(replies) {
			return nil, goerr.New("script exhausted", goerr.V("calls", n+1))
		}
		reply := replies[n]
		n++
		return reply, nil
	}
}

// CallTools builds an assistant reply requesting the given tool calls
func CallTools(calls ...model.ToolCall) *model.Message {
	return &model.Message{Role: model.RoleAssistant, ToolCalls: calls}
}

// Reply builds a final assistant reply
func Reply(text string) *model.Message {
	msg := model.NewAssistantMessage(text)
	return &msg
}

// BagOfWords is a deterministic EmbeddingModel counting lowercase word
// occurrences. Each new word takes the next free dimension, wrapping at
// Dimension.
type BagOfWords struct {
	Dimension int

	mu    sync.Mutex
	vocab map[string]int
}

const defaultDimension = 256

func NewBagOfWords() *BagOfWords {
	return &BagOfWords{
		Dimension: defaultDimension,
		vocab:     make(map[string]int),
	}
}

func (b *BagOfWords) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.New("text to embed is empty")
	}
	return b.vector(text), nil
}

func (b *BagOfWords) EmbedAll(ctx context.Context, segments []*model.TextSegment) ([][]float32, error) {
	vectors := make([][]float32, len(segments))
	for i, s := range segments {
		v, err := b.Embed(ctx, s.Text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (b *BagOfWords) vector(text string) []float32 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.vocab == nil {
		b.vocab = make(map[string]int)
	}
	dim := b.Dimension
	if dim <= 0 {
		dim = defaultDimension
	}

	v := make([]float32, dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		idx, ok := b.vocab[w]
		if !ok {
			idx = len(b.vocab) % dim
			b.vocab[w] = idx
		}
		v[idx]++
	}
	return v
}

// EmbeddingModel is a func-field fake of adapter.EmbeddingModel
type EmbeddingModel struct {
	EmbedFunc    func(ctx context.Context, text string) ([]float32, error)
	EmbedAllFunc func(ctx context.Context, segments []*model.TextSegment) ([][]float32, error)
}

func (m *EmbeddingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc == nil {
		return nil, goerr.New("EmbedFunc is not set")
	}
	return m.EmbedFunc(ctx, text)
}

func (m *EmbeddingModel) EmbedAll(ctx context.Context, segments []*model.TextSegment) ([][]float32, error) {
	if m.EmbedAllFunc == nil {
		return nil, goerr.New("EmbedAllFunc is not set")
	}
	return m.EmbedAllFunc(ctx, segments)
}

var _ adapter.ChatModel = (*ChatModel)(nil)
var _ adapter.EmbeddingModel = (*BagOfWords)(nil)
var _ adapter.EmbeddingModel = (*EmbeddingModel)(nil)
