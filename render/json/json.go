// Package json renders chat logs as a JSON document of rendered turns.
package json

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sonnes/copilotmd/core"
	"github.com/sonnes/copilotmd/render/markdown"
)

// Renderer renders a chat log to JSON.
type Renderer struct {
	// Indent controls pretty-printing. When true, output is indented.
	Indent bool
	// Markdown controls how turns are converted; nil uses the defaults.
	Markdown *markdown.Renderer
}

// New creates a JSON Renderer with indented output.
func New() *Renderer {
	return &Renderer{Indent: true}
}

// Document is the top-level JSON object.
type Document struct {
	SessionID string          `json:"session_id,omitempty"`
	Title     string          `json:"title,omitempty"`
	Requester string          `json:"requester"`
	Responder string          `json:"responder"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
	DiffStats *core.DiffStats `json:"diff_stats,omitempty"`
	Turns     []Turn          `json:"turns"`
}

// Turn is one rendered request.
type Turn struct {
	Number          int      `json:"number"`
	Anchor          string   `json:"anchor"`
	UserText        string   `json:"user_text"`
	References      []string `json:"references,omitempty"`
	Response        string   `json:"response"`
	ElapsedSeconds  *float64 `json:"elapsed_seconds,omitempty"`
	Model           string   `json:"model,omitempty"`
	ToolInvocations int      `json:"tool_invocations,omitempty"`
}

// Render writes the chat log as JSON to w.
func (r *Renderer) Render(w io.Writer, log *core.ChatLog) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if r.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(r.document(log)); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func (r *Renderer) document(log *core.ChatLog) Document {
	m := r.Markdown
	if m == nil {
		m = markdown.New()
	}

	doc := Document{
		SessionID: log.SessionID,
		Title:     core.Title(log),
		Requester: orDefault(log.RequesterUsername, markdown.DefaultRequester),
		Responder: orDefault(log.ResponderUsername, markdown.DefaultResponder),
		UpdatedAt: log.UpdatedAt,
		DiffStats: log.Stats(),
		Turns:     []Turn{},
	}
	if !log.CreatedAt.IsZero() {
		created := log.CreatedAt
		doc.CreatedAt = &created
	}

	for i, t := range m.Turns(log) {
		req := log.Requests[i]
		turn := Turn{
			Number:          t.Number,
			Anchor:          t.Anchor,
			UserText:        t.UserText,
			Response:        t.Response,
			Model:           t.ModelInfo,
			ToolInvocations: req.ToolInvocationCount(),
		}
		for _, ref := range req.References {
			turn.References = append(turn.References, ref.Name)
		}
		if t.HasElapsed {
			s := t.Elapsed.Seconds()
			turn.ElapsedSeconds = &s
		}
		doc.Turns = append(doc.Turns, turn)
	}
	return doc
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
