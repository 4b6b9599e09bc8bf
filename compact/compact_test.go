package compact

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonnes/copilotmd/core"
)

func logWith(fragments ...string) *core.ChatLog {
	req := core.Request{Message: core.Message{Text: core.String("go")}}
	for _, f := range fragments {
		req.Response = append(req.Response, json.RawMessage(f))
	}
	return &core.ChatLog{Requests: []core.Request{req}}
}

func TestLineSummary(t *testing.T) {
	tests := []struct {
		name  string
		label string
		input string
		want  string
	}{
		{"empty", "output", "", "[output: 0 lines]"},
		{"single line", "output", "hello", "[output: 1 line]"},
		{"multiple lines", "output", "a\nb\nc", "[output: 3 lines]"},
		{"trailing newline", "text", "a\nb\nc\nd\n", "[text: 4 lines]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lineSummary(tt.label, tt.input))
		})
	}
}

func TestCompactToolOutput(t *testing.T) {
	longOutput, err := json.Marshal(strings.Repeat("line\n", 50))
	require.NoError(t, err)

	tests := []struct {
		name       string
		fragment   string
		wantOutput string
	}{
		{
			name:       "long output",
			fragment:   `{"kind":"toolInvocationSerialized","invocationMessage":"Running","resultDetails":{"input":{"z":1,"a":2},"output":[{"value":` + string(longOutput) + `}]}}`,
			wantOutput: "[output: 50 lines]",
		},
		{
			name:       "short output",
			fragment:   `{"kind":"toolInvocationSerialized","invocationMessage":"Running","resultDetails":{"input":{"z":1,"a":2},"output":[{"value":"ok\n"}]}}`,
			wantOutput: "[output: 1 line]",
		},
		{
			name:       "structured output left alone",
			fragment:   `{"kind":"toolInvocationSerialized","invocationMessage":"Running","resultDetails":{"input":{"z":1,"a":2},"output":[{"value":{"files":3}}]}}`,
			wantOutput: `{"files":3}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logWith(tt.fragment)
			require.NoError(t, New(Config{}).Transform(log))

			frags := log.Requests[0].Fragments()
			require.Len(t, frags, 1)
			require.NotNil(t, frags[0].Tool)
			assert.Equal(t, "Running", frags[0].Tool.Message)
			assert.Equal(t, `{"z":1,"a":2}`, frags[0].Tool.Input)
			assert.Equal(t, tt.wantOutput, frags[0].Tool.Output)
		})
	}
}

func TestCompactEdits(t *testing.T) {
	log := logWith(
		`{"value":"Editing."}`,
		`{"kind":"textEditGroup","uri":{"fsPath":"/repo/a.py"},"edits":[[{"text":"a\nb\nc\n","range":{"startLineNumber":2,"endLineNumber":4}},{"text":""}]]}`,
	)

	require.NoError(t, New(Config{}).Transform(log))

	frags := log.Requests[0].Fragments()
	require.Len(t, frags, 2)
	assert.Equal(t, "Editing.", frags[0].Text)

	edit := frags[1].Edit
	require.NotNil(t, edit)
	assert.Equal(t, "/repo/a.py", edit.Path)
	require.Len(t, edit.Groups, 1)
	require.Len(t, edit.Groups[0], 2)
	assert.Equal(t, core.TextEdit{Text: "[text: 3 lines]", StartLine: 2, EndLine: 4}, edit.Groups[0][0])
	assert.Empty(t, edit.Groups[0][1].Text)
}

func TestStripEdits(t *testing.T) {
	log := logWith(
		`{"value":"Before."}`,
		`{"kind":"textEditGroup","uri":{"fsPath":"/repo/a.py"},"edits":[[{"text":"x"}]]}`,
		`{"value":"After."}`,
	)

	require.NoError(t, New(Config{StripEdits: true}).Transform(log))

	frags := log.Requests[0].Fragments()
	require.Len(t, frags, 2)
	assert.Equal(t, "Before.", frags[0].Text)
	assert.Equal(t, "After.", frags[1].Text)
}

func TestCompactLeavesOtherFragments(t *testing.T) {
	fragments := []string{
		`"plain string"`,
		`{"value":"text"}`,
		`{"kind":"undoStop","id":"u1"}`,
		`{"kind":"toolInvocationSerialized","invocationMessage":"No details"}`,
		`{"kind":"textEditGroup","uri":{"fsPath":"/a"},"edits":"broken"}`,
		`not json`,
	}
	log := logWith(fragments...)

	require.NoError(t, New(Config{}).Transform(log))

	require.Len(t, log.Requests[0].Response, len(fragments))
	for i, f := range fragments {
		assert.Equal(t, f, string(log.Requests[0].Response[i]))
	}
}

func TestCompactEmptyResponse(t *testing.T) {
	log := &core.ChatLog{Requests: []core.Request{{}}}
	require.NoError(t, New(Config{StripEdits: true}).Transform(log))
	assert.Nil(t, log.Requests[0].Response)
}

func TestCompactCachesDiffStats(t *testing.T) {
	log := logWith(
		`{"kind":"textEditGroup","uri":{"fsPath":"/repo/a.py"},"edits":[[{"text":"a\nb\nc","range":{"startLineNumber":1,"endLineNumber":1}}]]}`,
	)
	want := core.ComputeDiffStats(log)
	require.NotNil(t, want)

	require.NoError(t, New(Config{StripEdits: true}).Transform(log))

	assert.Nil(t, core.ComputeDiffStats(log))
	assert.Equal(t, want, log.Stats())
}
