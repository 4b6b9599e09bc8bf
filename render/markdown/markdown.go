// Package markdown renders Copilot chat logs as navigable Markdown documents.
//
// The document opens with a title and participant header, followed by a
// table of contents when the log holds more than one request. Each request
// becomes an anchored section with navigation links, the user's message, the
// assistant's response (with collapsible blocks for tool calls and file
// edits), and response metadata.
package markdown

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sonnes/copilotmd/core"
)

const (
	DefaultTitle              = "GitHub Copilot Chat Log"
	DefaultParticipantHeading = "Participant"
	DefaultRequester          = "User"
	DefaultResponder          = "GitHub Copilot"

	tocAnchor = "table-of-contents"
)

// Renderer converts chat logs to Markdown.
type Renderer struct {
	// Title is the top-level heading of the document.
	Title string
	// ParticipantHeading labels the user in the header and in each request.
	ParticipantHeading string
}

// New returns a Renderer with the default title and headings.
func New() *Renderer {
	return &Renderer{
		Title:              DefaultTitle,
		ParticipantHeading: DefaultParticipantHeading,
	}
}

// RenderedTurn is one request rendered to Markdown, along with the pieces
// other output formats reuse.
type RenderedTurn struct {
	Number     int
	Anchor     string
	UserText   string // normalized user message
	References string // collapsible references block, empty when none
	Response   string // normalized assistant response
	Elapsed    time.Duration
	HasElapsed bool
	ModelInfo  string
	Markdown   string // the complete section, every line newline-terminated
}

// Render writes the Markdown document for log to w.
func (r *Renderer) Render(w io.Writer, log *core.ChatLog) error {
	if _, err := io.WriteString(w, r.Convert(log)); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// Convert returns the Markdown document for log.
func (r *Renderer) Convert(log *core.ChatLog) string {
	var b strings.Builder
	b.WriteString(r.header(log))
	for _, t := range r.Turns(log) {
		b.WriteString(t.Markdown)
	}
	// Every section ends in a blank line; the document ends in a single newline.
	return strings.TrimSuffix(b.String(), "\n")
}

// Turns renders every request of log in order.
func (r *Renderer) Turns(log *core.ChatLog) []RenderedTurn {
	turns := make([]RenderedTurn, 0, len(log.Requests))
	for i, req := range log.Requests {
		turns = append(turns, r.turn(req, i+1, len(log.Requests)))
	}
	return turns
}

func (r *Renderer) header(log *core.ChatLog) string {
	requester := log.RequesterUsername
	if requester == "" {
		requester = DefaultRequester
	}
	responder := log.ResponderUsername
	if responder == "" {
		responder = DefaultResponder
	}

	var lines []string
	lines = append(lines,
		"# "+r.title(),
		"",
		fmt.Sprintf("**%s:** %s", r.participant(), requester),
		"<br>**Assistant:** "+responder,
		"",
	)

	if len(log.Requests) > 1 {
		lines = append(lines,
			fmt.Sprintf(`<a name="%s"></a>`, tocAnchor),
			"## Table of Contents",
			"",
		)
		for i, req := range log.Requests {
			n := i + 1
			lines = append(lines, fmt.Sprintf("- [Request %d](#%s): %s", n, core.Anchor(n), req.Preview()))
		}
		lines = append(lines, "")
	}

	lines = append(lines, "---", "")
	return joinLines(lines)
}

func (r *Renderer) turn(req core.Request, n, total int) RenderedTurn {
	t := RenderedTurn{
		Number:    n,
		Anchor:    core.Anchor(n),
		ModelInfo: req.ModelInfo(),
	}
	t.Elapsed, t.HasElapsed = req.Elapsed()

	var lines []string
	lines = append(lines,
		fmt.Sprintf(`<a name="%s"></a>`, t.Anchor),
		fmt.Sprintf("## Request %d %s", n, navLinks(n, total)),
		"",
	)

	if text := req.UserText(); text != "" {
		t.UserText = core.NormalizeText(text)
		lines = append(lines, "### "+r.participant(), "", t.UserText, "")
	}

	if len(req.Response) > 0 {
		lines = append(lines, "### Assistant", "")

		if len(req.References) > 0 {
			t.References = formatReferences(req.References)
			lines = append(lines, t.References)
		}

		if resp := chooseResponse(req); strings.TrimSpace(resp) != "" {
			if cleaned := core.NormalizeText(resp); strings.TrimSpace(cleaned) != "" {
				t.Response = cleaned
				lines = append(lines, cleaned, "")
			}
		}
	}

	var meta []string
	if t.HasElapsed {
		meta = append(meta, fmt.Sprintf("> *Response time: %.2f seconds*", t.Elapsed.Seconds()))
	}
	if t.ModelInfo != "" {
		meta = append(meta, fmt.Sprintf("> <br>*Model: %s*", t.ModelInfo))
	}
	if len(meta) > 0 {
		lines = append(lines, meta...)
		lines = append(lines, "")
	}

	if n < total {
		lines = append(lines, "---", "")
	}

	t.Markdown = joinLines(lines)
	return t
}

// navLinks builds the up/previous/next links of a request heading. The first
// and last requests show inert glyphs in place of the missing neighbor.
func navLinks(n, total int) string {
	links := []string{fmt.Sprintf("[^](#%s)", tocAnchor)}
	if n > 1 {
		links = append(links, fmt.Sprintf("[<](#%s)", core.Anchor(n-1)))
	} else {
		links = append(links, "<")
	}
	if n < total {
		links = append(links, fmt.Sprintf("[>](#%s)", core.Anchor(n+1)))
	} else {
		links = append(links, ">")
	}
	return strings.Join(links, " ")
}

func (r *Renderer) title() string {
	if r.Title == "" {
		return DefaultTitle
	}
	return r.Title
}

func (r *Renderer) participant() string {
	if r.ParticipantHeading == "" {
		return DefaultParticipantHeading
	}
	return r.ParticipantHeading
}

// joinLines terminates every line with a newline.
func joinLines(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}
