package rag

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/model"
)

var ErrBlankDocument = goerr.New("document text is blank")

// ParseDocument builds a Document from raw text. Surrounding whitespace is
// trimmed and blank text is rejected.
func ParseDocument(text string, metadata map[string]string) (*model.Document, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, goerr.Wrap(ErrBlankDocument, "failed to parse document")
	}

	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}

	return &model.Document{
		Text:     trimmed,
		Metadata: md,
	}, nil
}

// Splitter divides a document into segments for embedding
type Splitter func(doc *model.Document) []*model.TextSegment

// SplitWhole keeps the document as a single segment
func SplitWhole(doc *model.Document) []*model.TextSegment {
	return []*model.TextSegment{model.NewTextSegment(doc, doc.Text, 0)}
}

var sentenceEnd = regexp.MustCompile(`[.!?]+\s+`)

// SplitSentences emits one segment per sentence. A sentence ends with '.',
// '!' or '?' followed by whitespace.
func SplitSentences(doc *model.Document) []*model.TextSegment {
	var segments []*model.TextSegment

	start := 0
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		segments = append(segments, model.NewTextSegment(doc, s, len(segments)))
	}

	for _, loc := range sentenceEnd.FindAllStringIndex(doc.Text, -1) {
		add(doc.Text[start:loc[1]])
		start = loc[1]
	}
	add(doc.Text[start:])

	return segments
}
