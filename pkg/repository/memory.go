package repository

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/model"
)

type record struct {
	id      model.EmbeddingID
	vector  []float32
	norm    float64
	segment *model.TextSegment
}

// Memory is an in-process EmbeddingStore with exhaustive cosine search.
// Contents are lost when the process exits.
type Memory struct {
	mu        sync.RWMutex
	records   []*record
	dimension int
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Add(ctx context.Context, vector []float32, segment *model.TextSegment) (model.EmbeddingID, error) {
	ids, err := m.AddAll(ctx, [][]float32{vector}, []*model.TextSegment{segment})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (m *Memory) AddAll(ctx context.Context, vectors [][]float32, segments []*model.TextSegment) ([]model.EmbeddingID, error) {
	if len(vectors) != len(segments) {
		return nil, goerr.New("number of vectors and segments differ",
			goerr.V("vectors", len(vectors)),
			goerr.V("segments", len(segments)))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	dim := m.dimension
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, goerr.New("vector is empty", goerr.V("index", i))
		}
		if segments[i] == nil {
			return nil, goerr.New("segment is nil", goerr.V("index", i))
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return nil, goerr.New("vector dimension mismatch",
				goerr.V("index", i),
				goerr.V("expected", dim),
				goerr.V("actual", len(v)))
		}
	}

	ids := make([]model.EmbeddingID, len(vectors))
	for i, v := range vectors {
		ids[i] = model.NewEmbeddingID()
		m.records = append(m.records, &record{
			id:      ids[i],
			vector:  slices.Clone(v),
			norm:    norm(v),
			segment: segments[i],
		})
	}
	m.dimension = dim

	return ids, nil
}

// Search scores every entry with (cosine + 1) / 2, so scores lie in [0, 1].
// Results are ordered by descending score; equal scores keep insertion order.
func (m *Memory) Search(ctx context.Context, input *SearchInput) ([]*model.Match, error) {
	if input == nil || len(input.Vector) == 0 {
		return nil, goerr.New("search vector is empty")
	}
	if input.MaxResults < 1 {
		return nil, goerr.New("max results must be positive", goerr.V("maxResults", input.MaxResults))
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.records) == 0 {
		return nil, nil
	}
	if len(input.Vector) != m.dimension {
		return nil, goerr.New("vector dimension mismatch",
			goerr.V("expected", m.dimension),
			goerr.V("actual", len(input.Vector)))
	}

	qNorm := norm(input.Vector)
	var matches []*model.Match
	for _, r := range m.records {
		score := RelevanceScore(cosine(input.Vector, r.vector, qNorm, r.norm))
		if score < input.MinScore {
			continue
		}
		matches = append(matches, &model.Match{
			ID:      r.id,
			Segment: r.segment,
			Score:   score,
		})
	}

	slices.SortStableFunc(matches, func(a, b *model.Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(matches) > input.MaxResults {
		matches = matches[:input.MaxResults]
	}
	return matches, nil
}

// Len returns the number of stored entries
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// RelevanceScore maps a cosine similarity in [-1, 1] to [0, 1]
func RelevanceScore(cos float64) float64 {
	return (cos + 1) / 2
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero length
func cosine(a, b []float32, aNorm, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	cos := dot / (aNorm * bNorm)
	return math.Max(-1, math.Min(1, cos))
}

var _ EmbeddingStore = (*Memory)(nil)
