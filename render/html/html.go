// Package html renders chat logs as standalone HTML pages styled with
// Tailwind CSS v4 (CDN) and syntax highlighting via goldmark + chroma.
package html

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"sort"

	"github.com/sonnes/copilotmd/core"
	"github.com/sonnes/copilotmd/render/markdown"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
)

//go:embed templates/*.html
var content embed.FS

// Renderer renders a chat log to a standalone HTML page. Each request is
// converted to Markdown first and the pieces are rendered through goldmark.
type Renderer struct {
	md       goldmark.Markdown
	tmpl     *template.Template
	markdown *markdown.Renderer
}

// New creates an HTML Renderer with goldmark configured for GFM and syntax
// highlighting. m controls the Markdown conversion; nil uses the defaults.
func New(m *markdown.Renderer) *Renderer {
	if m == nil {
		m = markdown.New()
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("dracula"),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false), // inline styles for standalone pages
				),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(), // <details> blocks are raw HTML
		),
	)

	tmpl := template.Must(
		template.New("page.html").
			Funcs(funcMap()).
			ParseFS(content, "templates/*.html"),
	)

	return &Renderer{md: md, tmpl: tmpl, markdown: m}
}

// pageData is the top-level template data passed to page.html.
type pageData struct {
	Log             *core.ChatLog
	Title           string
	Heading         string // document title shown above the session title
	Participant     string // label for the user
	Requester       string
	Responder       string
	Model           string
	DiffStats       *core.DiffStats
	Turns           []turnData
	OverallDuration string // total session duration (e.g. "2m 30s")
}

// turnData is the per-request template data.
type turnData struct {
	Number      int
	Anchor      string
	Preview     string
	Participant string
	Prev, Next string // anchors of the neighboring requests, empty at the ends
	User       template.HTML
	References template.HTML
	Response   template.HTML
	Elapsed    string
	Model      string
	Tools      int
}

// indexData is the template data passed to index.html.
type indexData struct {
	Entries []core.ManifestEntry
}

// RenderIndex writes an HTML index page listing the given manifest entries to
// w. Entries are sorted newest-first by CreatedAt.
func (r *Renderer) RenderIndex(w io.Writer, entries []core.ManifestEntry) error {
	sorted := make([]core.ManifestEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return r.tmpl.ExecuteTemplate(w, "index.html", indexData{Entries: sorted})
}

// Render writes the chat log as a complete HTML page to w.
func (r *Renderer) Render(w io.Writer, log *core.ChatLog) error {
	turns := r.markdown.Turns(log)

	data := pageData{
		Log:         log,
		Title:       core.Title(log),
		Heading:     orDefault(r.markdown.Title, markdown.DefaultTitle),
		Participant: orDefault(r.markdown.ParticipantHeading, markdown.DefaultParticipantHeading),
		Requester:   orDefault(log.RequesterUsername, markdown.DefaultRequester),
		Responder:   orDefault(log.ResponderUsername, markdown.DefaultResponder),
		Model:       core.PrimaryModel(log),
		DiffStats:   log.Stats(),
	}
	if log.UpdatedAt != nil && !log.CreatedAt.IsZero() {
		data.OverallDuration = formatDuration(log.UpdatedAt.Sub(log.CreatedAt))
	}

	for i, t := range turns {
		req := log.Requests[i]
		td := turnData{
			Number:      t.Number,
			Anchor:      t.Anchor,
			Preview:     req.Preview(),
			Participant: data.Participant,
			Model:       t.ModelInfo,
			Tools:       req.ToolInvocationCount(),
		}
		if i > 0 {
			td.Prev = turns[i-1].Anchor
		}
		if i < len(turns)-1 {
			td.Next = turns[i+1].Anchor
		}
		if t.HasElapsed {
			td.Elapsed = fmt.Sprintf("%.2fs", t.Elapsed.Seconds())
		}

		var err error
		if td.User, err = r.renderMarkdown(t.UserText); err != nil {
			return fmt.Errorf("render request %d message: %w", t.Number, err)
		}
		if td.References, err = r.renderMarkdown(t.References); err != nil {
			return fmt.Errorf("render request %d references: %w", t.Number, err)
		}
		if td.Response, err = r.renderMarkdown(t.Response); err != nil {
			return fmt.Errorf("render request %d response: %w", t.Number, err)
		}
		data.Turns = append(data.Turns, td)
	}

	return r.tmpl.ExecuteTemplate(w, "page.html", data)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
