package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	// PreviewLimit is the maximum rune length of a table-of-contents preview.
	PreviewLimit = 80

	// NoMessagePreview stands in for a request without message text.
	NoMessagePreview = "[No message content]"

	modelNamespace = "copilot/"
)

// Anchor returns the anchor name of the n-th request, counting from 1.
func Anchor(n int) string {
	return fmt.Sprintf("request-%d", n)
}

// UserText returns the user's message. The direct text field wins; otherwise
// the text of every part is concatenated without a separator.
func (r Request) UserText() string {
	if r.Message.Text != nil {
		return *r.Message.Text
	}
	var b strings.Builder
	for _, p := range r.Message.Parts {
		if p.HasText {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Preview returns the first line of the user's message for the table of
// contents, truncated to PreviewLimit runes.
func (r Request) Preview() string {
	var preview string
	if r.Message.Text != nil {
		preview = *r.Message.Text
	} else {
		for _, p := range r.Message.Parts {
			if p.HasText {
				preview = p.Text
				break
			}
		}
	}
	if preview == "" {
		return NoMessagePreview
	}
	first, _, _ := strings.Cut(preview, "\n")
	return TruncatePreview(first, PreviewLimit)
}

// TruncatePreview shortens s to at most limit runes, ending in "..." when cut.
func TruncatePreview(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// ConsolidatedResponse joins the non-blank response of every tool-call round,
// in round order. Each round response is trimmed.
func (r Request) ConsolidatedResponse() string {
	if r.Result == nil {
		return ""
	}
	var parts []string
	for _, round := range r.Result.ToolCallRounds {
		if s := strings.TrimSpace(round.Response); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// Fragments classifies the request's response fragments.
func (r Request) Fragments() []Fragment {
	return ClassifyResponse(r.Response)
}

// ToolInvocationCount returns the number of serialized tool invocations in
// the response.
func (r Request) ToolInvocationCount() int {
	n := 0
	for _, f := range r.Fragments() {
		if f.Kind == FragmentToolInvocation {
			n++
		}
	}
	return n
}

// Elapsed returns the total response time, if the request recorded one.
func (r Request) Elapsed() (time.Duration, bool) {
	if r.Result == nil || r.Result.TotalElapsedMs == nil {
		return 0, false
	}
	return time.Duration(*r.Result.TotalElapsedMs * float64(time.Millisecond)), true
}

// ModelDisplayName returns the model id without its namespace prefix.
func (r Request) ModelDisplayName() string {
	return strings.TrimPrefix(r.ModelID, modelNamespace)
}

// ModelInfo joins the model display name and the detail string with a middle
// dot. The detail is omitted when it repeats the display name.
func (r Request) ModelInfo() string {
	var parts []string
	display := r.ModelDisplayName()
	if display != "" {
		parts = append(parts, display)
	}
	if r.Details != "" && r.Details != display {
		parts = append(parts, r.Details)
	}
	return strings.Join(parts, " • ")
}
