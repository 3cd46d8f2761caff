package model

import (
	"strconv"

	"github.com/google/uuid"
)

// MetadataIndex is the segment metadata key holding the segment position
// within its source document
const MetadataIndex = "index"

// Document is a blob of text to be ingested
type Document struct {
	Text     string
	Metadata map[string]string
}

// TextSegment is a contiguous part of a Document suitable for embedding
type TextSegment struct {
	Text     string
	Metadata map[string]string
}

// NewTextSegment creates the index-th segment of doc. Document metadata is
// copied so segments never share a map with their document.
func NewTextSegment(doc *Document, text string, index int) *TextSegment {
	md := make(map[string]string, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		md[k] = v
	}
	md[MetadataIndex] = strconv.Itoa(index)

	return &TextSegment{
		Text:     text,
		Metadata: md,
	}
}

type EmbeddingID string

// NewEmbeddingID generates a new unique EmbeddingID
func NewEmbeddingID() EmbeddingID {
	return EmbeddingID(uuid.New().String())
}

// Match is a search hit of an embedding store. Score is a relevance score in
// [0, 1]; higher is more relevant.
type Match struct {
	ID      EmbeddingID
	Segment *TextSegment
	Score   float64
}
