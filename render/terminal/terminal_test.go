package terminal

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/copilotmd/core"
)

func render(t *testing.T, width int, log *core.ChatLog) string {
	t.Helper()
	r := &Renderer{Width: width}
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, log))
	return ansi.Strip(buf.String())
}

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func TestRenderHeader(t *testing.T) {
	log := &core.ChatLog{
		SessionID:         "abc-123",
		RequesterUsername: "octocat",
		CreatedAt:         time.Now(),
		Requests: []core.Request{
			{
				Message: core.Message{Text: core.String("Refactor the parser")},
				Response: []json.RawMessage{
					raw(`{"kind":"textEditGroup","uri":{"fsPath":"/repo/parser.go"},"edits":[[{"text":"a\nb\n","range":{"startLineNumber":1,"endLineNumber":3}}]]}`),
				},
				ModelID: "copilot/claude-sonnet-4",
			},
		},
	}

	out := render(t, 100, log)

	assert.Contains(t, out, "Refactor the parser  +2 ~1 -3")
	assert.Contains(t, out, "@octocat")
	assert.Contains(t, out, "just now")
	assert.Contains(t, out, "claude-sonnet-4")
	assert.Contains(t, out, "1 request")
}

func TestRenderBasicLog(t *testing.T) {
	elapsed := 2500.0
	log := &core.ChatLog{
		SessionID: "test-basic",
		Requests: []core.Request{
			{
				Message:    core.Message{Text: core.String("Fix the auth bug")},
				References: []core.Reference{{Name: "auth.go", Kind: "file"}, {Name: "login.go", Kind: "file"}},
				Response: []json.RawMessage{
					raw(`{"value":"Found the issue "}`),
					raw(`{"value":"in the auth module.\nMore detail here."}`),
					raw(`{"kind":"toolInvocationSerialized","invocationMessage":"Running","resultDetails":{"input":{"command":"grep -rn auth src/"}}}`),
					raw(`{"kind":"progressTaskSerialized","content":{"value":"Indexed workspace"}}`),
					raw(`{"kind":"undoStop","id":"u1"}`),
					raw(`{"value":"Done."}`),
				},
				Result:  &core.Result{TotalElapsedMs: &elapsed},
				ModelID: "copilot/gpt-4o",
				Details: "GPT-4o • 1x",
			},
		},
	}

	out := render(t, 80, log)

	assert.Contains(t, out, "Session test-basic")
	assert.Contains(t, out, "USER")
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "Fix the auth bug")
	assert.Contains(t, out, "📎 2 references")
	assert.Contains(t, out, "COPILOT")
	assert.Contains(t, out, "gpt-4o • GPT-4o • 1x")
	assert.Contains(t, out, "3s")
	assert.Contains(t, out, "Found the issue in the auth module.")
	assert.NotContains(t, out, "More detail here.")
	assert.Contains(t, out, "⚙ Running  grep -rn auth src/")
	assert.Contains(t, out, "✔ Indexed workspace")
	assert.Contains(t, out, "Done.")
	assert.NotContains(t, out, "undoStop")
}

func TestRenderEditLine(t *testing.T) {
	log := &core.ChatLog{
		Requests: []core.Request{
			{
				Message: core.Message{Text: core.String("Edit it")},
				Response: []json.RawMessage{
					raw(`{"kind":"textEditGroup","uri":{"fsPath":"/repo/main.py"},"edits":[[{"text":"print(1)\nprint(2)"}]]}`),
				},
			},
		},
	}

	out := render(t, 80, log)
	assert.Contains(t, out, "✎ main.py  +2 lines")
}

func TestRenderFallsBackToRoundResponses(t *testing.T) {
	log := &core.ChatLog{
		Requests: []core.Request{
			{
				Message: core.Message{Text: core.String("Hello")},
				Result:  &core.Result{ToolCallRounds: []core.ToolCallRound{{Response: "From the rounds"}}},
			},
		},
	}

	out := render(t, 80, log)
	assert.Contains(t, out, "From the rounds")
}

func TestRenderUsernames(t *testing.T) {
	log := &core.ChatLog{
		RequesterUsername: "octocat",
		ResponderUsername: "GitHub Copilot",
		Requests: []core.Request{
			{
				Message:  core.Message{Text: core.String("Hi")},
				Response: []json.RawMessage{raw(`{"value":"Hello"}`)},
			},
		},
	}

	out := render(t, 80, log)
	assert.Contains(t, out, "OCTOCAT")
	assert.Contains(t, out, "GITHUB COPILOT")
}

func TestRenderTruncation(t *testing.T) {
	log := &core.ChatLog{
		SessionID: "test-truncate",
		Requests: []core.Request{
			{Message: core.Message{Text: core.String(strings.Repeat("a", 300))}},
		},
	}

	out := render(t, 60, log)
	assert.Contains(t, out, "...")
	assert.NotContains(t, out, strings.Repeat("a", 100))
}

func TestRenderMultiTurn(t *testing.T) {
	log := &core.ChatLog{
		SessionID: "test-multi",
		Requests: []core.Request{
			{
				Message:  core.Message{Text: core.String("First question")},
				Response: []json.RawMessage{raw(`{"value":"First answer"}`)},
			},
			{
				Message:  core.Message{Parts: []core.MessagePart{{Text: "Second question", HasText: true}}},
				Response: []json.RawMessage{raw(`{"value":"Second answer"}`)},
			},
		},
	}

	out := render(t, 80, log)
	assert.Contains(t, out, "First question")
	assert.Contains(t, out, "First answer")
	assert.Contains(t, out, "Second question")
	assert.Contains(t, out, "Second answer")
	assert.Contains(t, out, "#2")
	assert.Contains(t, out, "2 requests")
	assert.Equal(t, 2, strings.Count(out, "USER"))
	assert.Equal(t, 2, strings.Count(out, "COPILOT"))
}

func TestRenderEmptyRequests(t *testing.T) {
	log := &core.ChatLog{
		SessionID: "empty",
		Requests:  []core.Request{{}},
	}

	out := render(t, 80, log)
	assert.Contains(t, out, core.NoMessagePreview)
	assert.NotContains(t, out, "COPILOT")
}

func TestRenderEmptyLog(t *testing.T) {
	out := render(t, 80, &core.ChatLog{SessionID: "empty"})
	assert.Contains(t, out, "Session empty")
	assert.Contains(t, out, "0 requests")
	assert.NotContains(t, out, "USER")
}

func TestRenderRequestTimestamps(t *testing.T) {
	t1 := time.Date(2026, 2, 3, 3, 26, 0, 0, time.UTC)
	t2 := t1.Add(5 * time.Second)

	log := &core.ChatLog{
		Requests: []core.Request{
			{Message: core.Message{Text: core.String("Hello")}, Timestamp: &t1},
			{Message: core.Message{Text: core.String("Again")}, Timestamp: &t2},
		},
	}

	out := render(t, 80, log)
	assert.Contains(t, out, "Feb 3, 2026 3:26 AM")
	assert.Contains(t, out, "5s")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"first\nsecond", 20, "first"},
		{"abcdefghij", 8, "abcde..."},
		{"  padded  ", 10, "padded"},
		{"abcdefgh", 1, "a..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truncate(tt.in, tt.width), "truncate(%q, %d)", tt.in, tt.width)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1273, "1,273"},
		{1228873, "1,228,873"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in), "formatNumber(%d)", tt.in)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{500 * time.Millisecond, "<1s"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m 30s"},
		{5 * time.Minute, "5m"},
		{72*time.Hour + 44*time.Minute, "72h 44m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in), "formatDuration(%s)", tt.in)
	}
}
