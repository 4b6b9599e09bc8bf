package html

import (
	"bytes"
	"fmt"
	"html/template"
)

// renderMarkdown converts a Markdown fragment to HTML wrapped in a prose
// container. Empty input renders nothing.
func (r *Renderer) renderMarkdown(text string) (template.HTML, error) {
	if text == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("goldmark convert: %w", err)
	}
	return template.HTML(`<div class="prose dark:prose-invert max-w-none">` + buf.String() + `</div>`), nil
}
