package chat

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"

	"github.com/abadojack/whatlanggo"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/llmdemo/pkg/model"
)

//go:embed prompt/augment.md
var augmentPromptRaw string

var augmentPromptTmpl = template.Must(template.New("augment").Parse(augmentPromptRaw))

// augment renders the user turn with retrieved segments
func augment(question string, segments []*model.TextSegment) (string, error) {
	var buf bytes.Buffer
	if err := augmentPromptTmpl.Execute(&buf, map[string]any{
		"Question": question,
		"Segments": segments,
		"Language": detectLanguage(question),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute augment prompt template")
	}

	return strings.TrimSpace(buf.String()), nil
}

// detectLanguage returns the English name of the question language, or an
// empty string when detection is not reliable
func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return info.Lang.String()
}
