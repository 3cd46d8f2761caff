package rag

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/adapter"
	"github.com/m-mizutani/llmdemo/pkg/model"
	"github.com/m-mizutani/llmdemo/pkg/repository"
	"github.com/m-mizutani/llmdemo/pkg/utils/logging"
)

// Ingestor segments documents, embeds the segments and stores the vectors
type Ingestor struct {
	embedder adapter.EmbeddingModel
	store    repository.EmbeddingStore
	splitter Splitter
}

// IngestorInput contains parameters for creating an Ingestor
type IngestorInput struct {
	Embedder adapter.EmbeddingModel
	Store    repository.EmbeddingStore
	Splitter Splitter // Optional: defaults to SplitWhole
}

func NewIngestor(input IngestorInput) (*Ingestor, error) {
	if input.Embedder == nil {
		return nil, goerr.New("embedder is required")
	}
	if input.Store == nil {
		return nil, goerr.New("embedding store is required")
	}

	splitter := input.Splitter
	if splitter == nil {
		splitter = SplitWhole
	}

	return &Ingestor{
		embedder: input.Embedder,
		store:    input.Store,
		splitter: splitter,
	}, nil
}

// Ingest stores one vector per segment of doc and returns the assigned IDs
func (i *Ingestor) Ingest(ctx context.Context, doc *model.Document) ([]model.EmbeddingID, error) {
	if doc == nil {
		return nil, goerr.Wrap(ErrBlankDocument, "document is nil")
	}

	segments := i.splitter(doc)
	if len(segments) == 0 {
		return nil, goerr.Wrap(ErrBlankDocument, "document has no segments")
	}

	vectors, err := i.embedder.EmbedAll(ctx, segments)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed segments", goerr.V("segments", len(segments)))
	}

	ids, err := i.store.AddAll(ctx, vectors, segments)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store embeddings")
	}

	logging.From(ctx).Info("ingested document", "segments", len(segments))
	return ids, nil
}
