package repository

import (
	"context"

	"github.com/m-mizutani/llmdemo/pkg/model"
)

// EmbeddingStore defines the interface for vector persistence and similarity
// search
type EmbeddingStore interface {
	// Add stores a vector with its segment and returns the assigned ID
	Add(ctx context.Context, vector []float32, segment *model.TextSegment) (model.EmbeddingID, error)

	// AddAll stores vectors[i] with segments[i] and returns IDs in input order
	AddAll(ctx context.Context, vectors [][]float32, segments []*model.TextSegment) ([]model.EmbeddingID, error)

	// Search returns the most relevant entries for the query vector
	Search(ctx context.Context, input *SearchInput) ([]*model.Match, error)
}

// SearchInput is a similarity search request
type SearchInput struct {
	Vector     []float32
	MaxResults int
	// MinScore drops matches whose relevance score is below it
	MinScore float64
}
