package rag

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/adapter"
	"github.com/m-mizutani/llmdemo/pkg/model"
	"github.com/m-mizutani/llmdemo/pkg/repository"
	"github.com/m-mizutani/llmdemo/pkg/utils/logging"
)

const (
	DefaultMaxResults = 2
	DefaultMinScore   = 0.6
)

// Retriever finds the segments most relevant to a query
type Retriever struct {
	embedder   adapter.EmbeddingModel
	store      repository.EmbeddingStore
	maxResults int
	minScore   float64
}

// RetrieverInput contains parameters for creating a Retriever. Zero values
// select DefaultMaxResults and DefaultMinScore.
type RetrieverInput struct {
	Embedder   adapter.EmbeddingModel
	Store      repository.EmbeddingStore
	MaxResults int
	MinScore   *float64
}

func NewRetriever(input RetrieverInput) (*Retriever, error) {
	if input.Embedder == nil {
		return nil, goerr.New("embedder is required")
	}
	if input.Store == nil {
		return nil, goerr.New("embedding store is required")
	}

	r := &Retriever{
		embedder:   input.Embedder,
		store:      input.Store,
		maxResults: DefaultMaxResults,
		minScore:   DefaultMinScore,
	}

	if input.MaxResults < 0 {
		return nil, goerr.New("max results must be positive", goerr.V("maxResults", input.MaxResults))
	}
	if input.MaxResults > 0 {
		r.maxResults = input.MaxResults
	}

	if input.MinScore != nil {
		if *input.MinScore < 0 || *input.MinScore > 1 {
			return nil, goerr.New("min score must be within [0, 1]", goerr.V("minScore", *input.MinScore))
		}
		r.minScore = *input.MinScore
	}

	return r, nil
}

// Retrieve returns at most maxResults segments scoring at least minScore,
// most relevant first. No match is not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]*model.TextSegment, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.New("query is blank")
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	matches, err := r.store.Search(ctx, &repository.SearchInput{
		Vector:     vec,
		MaxResults: r.maxResults,
		MinScore:   r.minScore,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search embeddings")
	}

	segments := make([]*model.TextSegment, len(matches))
	for i, m := range matches {
		segments[i] = m.Segment
		logging.From(ctx).Debug("retrieved segment", "id", m.ID, "score", m.Score)
	}

	return segments, nil
}
