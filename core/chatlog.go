// Package core defines the in-memory form of a Copilot chat session: the
// requests a user made, the raw response fragments the assistant produced,
// and the classification of those fragments that every renderer consumes.
package core

import (
	"encoding/json"
	"time"
)

// ChatLog is the top-level container for a single chat session.
type ChatLog struct {
	SessionID         string     `json:"session_id,omitempty"`
	RequesterUsername string     `json:"requester_username,omitempty"`
	ResponderUsername string     `json:"responder_username,omitempty"`
	CreatedAt         time.Time  `json:"created_at,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
	Requests          []Request  `json:"requests"`

	// DiffStats caches the edit statistics once transformers that rewrite
	// edit text have run. Use Stats to read it.
	DiffStats *DiffStats `json:"diff_stats,omitempty"`
}

// Request is one turn: the user's message and everything the assistant
// produced in reply. Requests are numbered from 1 in ChatLog order.
type Request struct {
	ID         string            `json:"id,omitempty"`
	Message    Message           `json:"message"`
	Response   []json.RawMessage `json:"response,omitempty"` // raw fragments, classified at render time
	Result     *Result           `json:"result,omitempty"`
	References []Reference       `json:"references,omitempty"`
	ModelID    string            `json:"model_id,omitempty"`
	Details    string            `json:"details,omitempty"` // free-form model detail, e.g. "Claude Sonnet 4 • 1x"
	Timestamp  *time.Time        `json:"timestamp,omitempty"`
}

// Message is the user side of a request. Text is nil when the export only
// carries the split parts form.
type Message struct {
	Text  *string       `json:"text,omitempty"`
	Parts []MessagePart `json:"parts,omitempty"`
}

// MessagePart is one piece of a split user message. HasText distinguishes a
// part with an empty text field from a part without one.
type MessagePart struct {
	Text    string `json:"text,omitempty"`
	HasText bool   `json:"-"`
}

// Result holds per-request metadata reported by the assistant.
type Result struct {
	TotalElapsedMs *float64        `json:"total_elapsed_ms,omitempty"`
	ToolCallRounds []ToolCallRound `json:"tool_call_rounds,omitempty"`
}

// ToolCallRound is one round of the agent loop. Response is the text the model
// produced in that round; non-string responses decode as empty.
type ToolCallRound struct {
	Response string `json:"response,omitempty"`
}

// Reference is a contextual item attached to a request (a file, a prompt).
type Reference struct {
	Name        string `json:"name"`
	Kind        string `json:"kind,omitempty"`         // e.g. "file", "promptFile"
	OriginLabel string `json:"origin_label,omitempty"` // set for prompt files contributed by settings
}

// String returns a pointer to s, for building Message values.
func String(s string) *string {
	return &s
}
