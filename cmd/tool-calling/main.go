package main

import (
	"context"
	"os"

	"github.com/m-mizutani/llmdemo/pkg/cli"
)

func main() {
	ctx := context.Background()
	if err := cli.Run(ctx, os.Args, cli.ToolCallingCommand()); err != nil {
		os.Exit(err.Code)
	}
}
