// Package render defines the interface for rendering chat logs into various
// output formats.
package render

import (
	"io"

	"github.com/sonnes/copilotmd/core"
)

// Renderer writes a chat log to the given writer in a specific format.
type Renderer interface {
	Render(w io.Writer, log *core.ChatLog) error
}

// Extension maps an output format to its file extension, or "" for formats
// that are not written to files.
func Extension(format string) string {
	switch format {
	case "html":
		return ".html"
	case "markdown":
		return ".md"
	case "json":
		return ".json"
	default:
		return ""
	}
}
