package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/adapter"
	"github.com/m-mizutani/llmdemo/pkg/model"
	"github.com/m-mizutani/llmdemo/pkg/tool"
	"github.com/m-mizutani/llmdemo/pkg/utils/logging"
)

// DefaultMaxIterations is the tool call limit of a single Chat
const DefaultMaxIterations = 8

// Retriever provides supporting segments for a question
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]*model.TextSegment, error)
}

// Assistant answers user messages with a chat model, optionally using tools,
// a conversation memory and retrieved context
type Assistant struct {
	model         adapter.ChatModel
	memory        *model.ChatMemory
	tools         *tool.Registry
	retriever     Retriever
	systemPrompt  string
	maxIterations int
}

// Input contains parameters for creating an Assistant. Only Model is required.
type Input struct {
	Model         adapter.ChatModel
	Memory        *model.ChatMemory
	Tools         *tool.Registry
	Retriever     Retriever
	SystemPrompt  string
	MaxIterations int
}

func New(input Input) (*Assistant, error) {
	if input.Model == nil {
		return nil, goerr.New("chat model is required")
	}
	if input.MaxIterations < 0 {
		return nil, goerr.New("max iterations must be positive", goerr.V("maxIterations", input.MaxIterations))
	}

	maxIterations := input.MaxIterations
	if maxIterations == 0 {
		maxIterations = DefaultMaxIterations
	}

	return &Assistant{
		model:         input.Model,
		memory:        input.Memory,
		tools:         input.Tools,
		retriever:     input.Retriever,
		systemPrompt:  input.SystemPrompt,
		maxIterations: maxIterations,
	}, nil
}

// Chat answers userMessage. Tool failures are handed back to the model as
// observations; only model and retrieval failures are returned as errors.
func (a *Assistant) Chat(ctx context.Context, userMessage string) (string, error) {
	if strings.TrimSpace(userMessage) == "" {
		return "", goerr.New("user message is blank")
	}

	userTurn := userMessage
	if a.retriever != nil {
		segments, err := a.retriever.Retrieve(ctx, userMessage)
		if err != nil {
			return "", goerr.Wrap(err, "failed to retrieve context")
		}
		logging.From(ctx).Debug("retrieved context", "segments", len(segments))

		userTurn, err = augment(userMessage, segments)
		if err != nil {
			return "", err
		}
	}

	var history []model.Message
	if a.memory != nil {
		a.memory.Add(model.NewUserMessage(userMessage))
		history = a.memory.Messages()
		// The augmented turn is sent but not remembered
		history[len(history)-1] = model.NewUserMessage(userTurn)
	} else {
		history = []model.Message{model.NewUserMessage(userTurn)}
	}

	var base []model.Message
	if a.systemPrompt != "" {
		base = append(base, model.NewSystemMessage(a.systemPrompt))
	}
	base = append(base, history...)

	reply, err := a.runToolLoop(ctx, base)
	if err != nil {
		return "", err
	}

	if a.memory != nil {
		a.memory.Add(model.NewAssistantMessage(reply))
	}
	return reply, nil
}

func (a *Assistant) runToolLoop(ctx context.Context, base []model.Message) (string, error) {
	var specs []*model.ToolSpec
	if a.tools != nil {
		specs = a.tools.Specs()
	}

	var transcript []model.Message
	for i := 0; i < a.maxIterations; i++ {
		messages := make([]model.Message, 0, len(base)+len(transcript))
		messages = append(messages, base...)
		messages = append(messages, transcript...)

		resp, err := a.model.Chat(ctx, &model.ChatRequest{
			Messages: messages,
			Tools:    specs,
		})
		if err != nil {
			return "", goerr.Wrap(err, "failed to chat", goerr.V("iteration", i+1))
		}

		if !resp.HasToolCalls() {
			return resp.Content, nil
		}

		transcript = append(transcript, *resp)
		for _, call := range resp.ToolCalls {
			transcript = append(transcript, model.NewToolMessage(call, a.executeTool(ctx, call)))
		}
	}

	logging.From(ctx).Warn("tool call limit exceeded", "maxIterations", a.maxIterations)
	return fmt.Sprintf("Error: tool call limit (%d iterations) exceeded without a final answer", a.maxIterations), nil
}

// executeTool runs call and returns the observation text for the model
func (a *Assistant) executeTool(ctx context.Context, call model.ToolCall) string {
	logger := logging.From(ctx)

	if a.tools == nil {
		logger.Warn("tool requested without registry", "name", call.Name)
		return "Error: tool registry not available"
	}

	result, err := a.tools.Execute(ctx, call)
	if err != nil {
		logger.Info("tool failed", "name", call.Name, "error", err)
		return "Error: " + err.Error()
	}

	logger.Debug("tool result", "name", call.Name, "result", result)
	return result
}
