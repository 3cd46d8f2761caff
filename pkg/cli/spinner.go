package cli

import (
	"context"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/llmdemo/pkg/adapter"
	"github.com/m-mizutani/llmdemo/pkg/model"
)

// spinnerChatModel shows a spinner on w while the wrapped model is working
type spinnerChatModel struct {
	adapter.ChatModel
	w io.Writer
}

func withSpinner(m adapter.ChatModel, w io.Writer) adapter.ChatModel {
	return &spinnerChatModel{ChatModel: m, w: w}
}

func (s *spinnerChatModel) start() func() {
	sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(s.w))
	sp.Suffix = " waiting for model..."
	sp.Start()
	return sp.Stop
}

func (s *spinnerChatModel) Generate(ctx context.Context, prompt string) (string, error) {
	defer s.start()()
	return s.ChatModel.Generate(ctx, prompt)
}

func (s *spinnerChatModel) Chat(ctx context.Context, req *model.ChatRequest) (*model.Message, error) {
	defer s.start()()
	return s.ChatModel.Chat(ctx, req)
}
