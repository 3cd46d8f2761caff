package main

import (
	"context"
	"log"

	"github.com/m-mizutani/llmdemo/pkg/service/mcp"
	"github.com/m-mizutani/llmdemo/pkg/tool/calculator"
)

func main() {
	registry, err := calculator.NewRegistry()
	if err != nil {
		log.Fatalf("failed to create registry: %v", err)
	}

	if err := mcp.Serve(context.Background(), "test-stdio-calculator", registry); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
