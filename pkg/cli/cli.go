package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/m-mizutani/llmdemo/pkg/adapter"
	"github.com/m-mizutani/llmdemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	ExitFailure     = 1
	ExitConfigError = 2
)

type Error struct {
	Code    int
	Message string
}

// Run executes cmd with argv. A nil result means success; configuration
// problems yield ExitConfigError and everything else ExitFailure.
func Run(ctx context.Context, argv []string, cmd *cli.Command) *Error {
	if cmd.ErrWriter == nil {
		cmd.ErrWriter = os.Stderr
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.From(ctx).Error("command failed", "command", cmd.Name, "error", err)

		code := ExitFailure
		if errors.Is(err, errConfig) || errors.Is(err, adapter.ErrMissingAPIKey) {
			code = ExitConfigError
		}
		return &Error{
			Code:    code,
			Message: err.Error(),
		}
	}

	return nil
}

// setupLogger installs a logger writing to w at the configured level
func setupLogger(ctx context.Context, cfg *Config, w io.Writer) context.Context {
	logger := logging.New(cfg.LogLevel, w)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}
