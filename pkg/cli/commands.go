package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/service/mcp"
	"github.com/m-mizutani/llmdemo/pkg/tool"
	"github.com/m-mizutani/llmdemo/pkg/tool/calculator"
	"github.com/m-mizutani/llmdemo/pkg/usecase/demo"
	"github.com/m-mizutani/llmdemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// PlainChatCommand sends one prompt and prints the reply
func PlainChatCommand() *cli.Command {
	return &cli.Command{
		Name:  "plain-chat",
		Usage: "Send a single prompt to the chat model",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx = setupLogger(ctx, cfg, c.Root().ErrWriter)

			llm, err := cfg.newChatModel(ctx)
			if err != nil {
				return err
			}

			return demo.RunPlainChat(ctx, c.Root().Writer, withSpinner(llm, c.Root().ErrWriter))
		},
	}
}

// ToolCallingCommand asks arithmetic questions to a tool-enabled assistant
func ToolCallingCommand() *cli.Command {
	return &cli.Command{
		Name:  "tool-calling",
		Usage: "Ask arithmetic questions to an assistant with calculator tools",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx = setupLogger(ctx, cfg, c.Root().ErrWriter)

			llm, err := cfg.newChatModel(ctx)
			if err != nil {
				return err
			}

			registry, closeTools, err := newToolRegistry(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeTools()

			return demo.RunToolCalling(ctx, c.Root().Writer, demo.ToolCallingInput{
				Model: withSpinner(llm, c.Root().ErrWriter),
				Tools: registry,
			})
		},
	}
}

// newToolRegistry returns the tools of the MCP servers listed in MCP_CONFIG,
// or the in-process calculator when none is configured or reachable
func newToolRegistry(ctx context.Context, cfg *Config) (*tool.Registry, func(), error) {
	noop := func() {}

	provider, err := mcp.LoadAndConnect(ctx, cfg.MCPConfig)
	if err != nil {
		return nil, noop, goerr.Wrap(errConfig, "failed to load MCP_CONFIG", goerr.V("cause", err.Error()))
	}

	if provider == nil {
		registry, err := calculator.NewRegistry()
		return registry, noop, err
	}

	closeFn := func() {
		if err := provider.Close(); err != nil {
			logging.From(ctx).Warn("failed to close MCP connections", "error", err)
		}
	}

	tools, err := provider.Tools()
	if err != nil {
		closeFn()
		return nil, noop, err
	}

	registry, err := tool.New(tools...)
	if err != nil {
		closeFn()
		return nil, noop, err
	}

	logging.From(ctx).Info("using MCP tools", "tools", registry.Names())
	return registry, closeFn, nil
}

// RAGQueryCommand ingests a document and answers a question about it
func RAGQueryCommand() *cli.Command {
	return &cli.Command{
		Name:  "rag-query",
		Usage: "Answer a question with retrieval over an in-memory vector store",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx = setupLogger(ctx, cfg, c.Root().ErrWriter)

			llm, err := cfg.newChatModel(ctx)
			if err != nil {
				return err
			}
			embedder, err := cfg.newEmbeddingModel(ctx)
			if err != nil {
				return err
			}

			return demo.RunRAGQuery(ctx, c.Root().Writer, demo.RAGQueryInput{
				Model:    withSpinner(llm, c.Root().ErrWriter),
				Embedder: embedder,
			})
		},
	}
}

// CalculatorMCPCommand serves the calculator tools over MCP stdio
func CalculatorMCPCommand() *cli.Command {
	return &cli.Command{
		Name:  "calculator-mcp",
		Usage: "Serve multiply, add and divide tools over MCP (stdio)",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx = setupLogger(ctx, cfg, c.Root().ErrWriter)

			registry, err := calculator.NewRegistry()
			if err != nil {
				return err
			}

			return mcp.Serve(ctx, "calculator", registry)
		},
	}
}

// AppCommand bundles every demo as a subcommand
func AppCommand() *cli.Command {
	return &cli.Command{
		Name:  "llmdemo",
		Usage: "LLM demonstrations: plain chat, tool calling and retrieval-augmented answering",
		Commands: []*cli.Command{
			PlainChatCommand(),
			ToolCallingCommand(),
			RAGQueryCommand(),
			CalculatorMCPCommand(),
		},
	}
}
