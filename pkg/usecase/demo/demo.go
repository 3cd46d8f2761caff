// Package demo runs the three demonstration programs with their fixed inputs.
package demo

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/adapter"
	"github.com/m-mizutani/llmdemo/pkg/model"
	"github.com/m-mizutani/llmdemo/pkg/repository"
	"github.com/m-mizutani/llmdemo/pkg/tool"
	"github.com/m-mizutani/llmdemo/pkg/usecase/chat"
	"github.com/m-mizutani/llmdemo/pkg/usecase/rag"
)

const (
	PlainChatPrompt = "Explain why the sky is blue in one sentence."

	RAGDocument = "Optimum AI Lab builds autonomous AI agents for enterprise applications. " +
		"We specialize in LLM frameworks comparison and optimization. " +
		"Our dashboard provides comprehensive analysis of Python and Java frameworks."
	RAGQuestion = "What does Optimum AI Lab do?"

	// MemoryCapacity is the message window of the tool-calling assistant
	MemoryCapacity = 10
)

// ToolQuestions are asked in order within one conversation
var ToolQuestions = []string{
	"What is 15 * 8?",
	"Calculate 100 + 50",
	"What is 144 divided by 12?",
}

// Separator is printed between a question and its answer
var Separator = strings.Repeat("-", 50)

// RunPlainChat sends PlainChatPrompt once and prints the reply
func RunPlainChat(ctx context.Context, w io.Writer, llm adapter.ChatModel) error {
	fmt.Fprintln(w, "Initializing LLM...")
	fmt.Fprintln(w, "Prompt: "+PlainChatPrompt)
	fmt.Fprintln(w, Separator)

	resp, err := llm.Generate(ctx, PlainChatPrompt)
	if err != nil {
		return goerr.Wrap(err, "failed to generate response")
	}

	fmt.Fprintln(w, "Response: "+resp)
	return nil
}

// ToolCallingInput contains parameters for RunToolCalling
type ToolCallingInput struct {
	Model     adapter.ChatModel
	Tools     *tool.Registry
	Questions []string // Optional: defaults to ToolQuestions
}

// RunToolCalling asks each question to one tool-enabled assistant sharing a
// bounded memory, printing every answer
func RunToolCalling(ctx context.Context, w io.Writer, input ToolCallingInput) error {
	fmt.Fprintln(w, "Creating AI Assistant with tools...")

	memory, err := model.NewChatMemory(MemoryCapacity)
	if err != nil {
		return err
	}

	assistant, err := chat.New(chat.Input{
		Model:  input.Model,
		Memory: memory,
		Tools:  input.Tools,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create assistant")
	}

	questions := input.Questions
	if len(questions) == 0 {
		questions = ToolQuestions
	}

	for _, q := range questions {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Question: "+q)
		fmt.Fprintln(w, Separator)

		answer, err := assistant.Chat(ctx, q)
		if err != nil {
			return goerr.Wrap(err, "failed to answer question", goerr.V("question", q))
		}
		fmt.Fprintln(w, "Answer: "+answer)
	}

	return nil
}

// RAGQueryInput contains parameters for RunRAGQuery
type RAGQueryInput struct {
	Model    adapter.ChatModel
	Embedder adapter.EmbeddingModel
	Store    repository.EmbeddingStore // Optional: defaults to a new in-memory store
	Document string                    // Optional: defaults to RAGDocument
	Question string                    // Optional: defaults to RAGQuestion
}

// RunRAGQuery ingests the document into the store, then answers the question
// with retrieved context
func RunRAGQuery(ctx context.Context, w io.Writer, input RAGQueryInput) error {
	fmt.Fprintln(w, "Creating RAG pipeline...")

	text := input.Document
	if text == "" {
		text = RAGDocument
	}
	question := input.Question
	if question == "" {
		question = RAGQuestion
	}
	store := input.Store
	if store == nil {
		store = repository.NewMemory()
	}

	doc, err := rag.ParseDocument(text, map[string]string{"source": "inline"})
	if err != nil {
		return err
	}

	ingestor, err := rag.NewIngestor(rag.IngestorInput{
		Embedder: input.Embedder,
		Store:    store,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create ingestor")
	}

	fmt.Fprintln(w, "Ingesting documents...")
	ids, err := ingestor.Ingest(ctx, doc)
	if err != nil {
		return goerr.Wrap(err, "failed to ingest document")
	}
	fmt.Fprintf(w, "Ingested %d segment(s)\n", len(ids))

	retriever, err := rag.NewRetriever(rag.RetrieverInput{
		Embedder: input.Embedder,
		Store:    store,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create retriever")
	}

	memory, err := model.NewChatMemory(MemoryCapacity)
	if err != nil {
		return err
	}

	assistant, err := chat.New(chat.Input{
		Model:     input.Model,
		Memory:    memory,
		Retriever: retriever,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create assistant")
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Question: "+question)
	fmt.Fprintln(w, Separator)

	answer, err := assistant.Chat(ctx, question)
	if err != nil {
		return goerr.Wrap(err, "failed to answer question", goerr.V("question", question))
	}
	fmt.Fprintln(w, "Answer: "+answer)
	return nil
}
