package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyFragmentText(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind FragmentKind
		wantText string
	}{
		{"value verbatim", `{"value":"Test content"}`, FragmentPlainText, "Test content"},
		{"value with markdown", `{"value":"**bold**\n- item","supportThemeIcons":false}`, FragmentPlainText, "**bold**\n- item"},
		{"inline reference kind", `{"kind":"inlineReference","value":"Should be skipped"}`, FragmentInternal, ""},
		{"undo stop", `{"kind":"undoStop","id":"abc"}`, FragmentInternal, ""},
		{"codeblock uri", `{"kind":"codeblockUri","uri":{"path":"/x"}}`, FragmentInternal, ""},
		{"prepare tool invocation", `{"kind":"prepareToolInvocation","toolName":"run_in_terminal"}`, FragmentInternal, ""},
		{"other kind with content value", `{"kind":"markdownContent","content":{"value":"note"}}`, FragmentPlainText, "*note*"},
		{"other kind with invocation message", `{"kind":"progressMessage","invocationMessage":{"value":"Working"}}`, FragmentPlainText, "*Working*"},
		{"other kind with past tense message", `{"kind":"x","pastTenseMessage":{"value":"Worked"}}`, FragmentPlainText, "*Worked*"},
		{"content wins over invocation message", `{"kind":"x","content":{"value":"c"},"invocationMessage":{"value":"i"}}`, FragmentPlainText, "*c*"},
		{"id with kind", `{"kind":"confirmation","id":"1"}`, FragmentInternal, ""},
		{"moniker key", `{"$mid":1,"value":"x"}`, FragmentInternal, ""},
		{"id with moniker", `{"id":"1","$mid":1}`, FragmentInternal, ""},
		{"inline reference key", `{"inlineReference":{"path":"/a"}}`, FragmentInternal, ""},
		{"raw dump value suppressed", `{"value":"{\"$mid\":1,\"path\":\"/a\"}"}`, FragmentInternal, ""},
		{"orphaned fence suppressed", "{\"value\":\"  ```  \"}", FragmentUnknown, ""},
		{"fence with language kept", "{\"value\":\"```go\"}", FragmentPlainText, "```go"},
		{"content string", `{"content":"plain content"}`, FragmentPlainText, "plain content"},
		{"content object value", `{"content":{"value":"nested"}}`, FragmentPlainText, "nested"},
		{"content object without value stringified", `{"content":{"other":1}}`, FragmentUnknown, `{"content":{"other":1}}`},
		{"content object with text stringified", `{"content":{"text":"hi"}}`, FragmentUnknown, `{"content":{"text":"hi"}}`},
		{"content list stringified", `{"content":[1,2]}`, FragmentUnknown, `{"content":[1,2]}`},
		{"bare string", `"just text"`, FragmentPlainText, "just text"},
		{"bare string dump with kind", `"{kind: 'x'}"`, FragmentUnknown, ""},
		{"bare string dump with moniker", `"{$mid: 1}"`, FragmentUnknown, ""},
		{"unknown object stringified", `{"foo":1}`, FragmentUnknown, `{"foo":1}`},
		{"empty object", `{}`, FragmentUnknown, ""},
		{"null", `null`, FragmentUnknown, ""},
		{"number", `42`, FragmentUnknown, "42"},
		{"zero", `0`, FragmentUnknown, ""},
		{"invalid json", `{`, FragmentUnknown, ""},
		{"non-string value stringified", `{"value":{"a":"<b>"}}`, FragmentPlainText, `{"a":"<b>"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ClassifyFragment(json.RawMessage(tt.raw))
			assert.Equal(t, tt.wantKind, f.Kind)
			assert.Equal(t, tt.wantText, f.Text)
		})
	}
}

func TestClassifyToolInvocation(t *testing.T) {
	tests := []struct {
		name          string
		raw           string
		wantMessage   string
		wantInput     string
		wantInputJSON bool
		wantOutput    string
		wantHasOutput bool
	}{
		{
			name:          "string input",
			raw:           `{"kind":"toolInvocationSerialized","invocationMessage":{"value":"Running tests"},"resultDetails":{"input":"{\"command\":\"go test\"}"}}`,
			wantMessage:   "Running tests",
			wantInput:     `{"command":"go test"}`,
			wantInputJSON: true,
		},
		{
			name:          "object input keeps key order",
			raw:           `{"kind":"toolInvocationSerialized","invocationMessage":"Searching","resultDetails":{"input":{"z":1,"a":2}}}`,
			wantMessage:   "Searching",
			wantInput:     `{"z":1,"a":2}`,
			wantInputJSON: true,
		},
		{
			name:          "invalid json input",
			raw:           `{"kind":"toolInvocationSerialized","invocationMessage":{"value":"Reading"},"resultDetails":{"input":"not json"}}`,
			wantMessage:   "Reading",
			wantInput:     "not json",
			wantInputJSON: false,
		},
		{
			name:        "falls back to past tense",
			raw:         `{"kind":"toolInvocationSerialized","pastTenseMessage":{"value":"Ran tests"}}`,
			wantMessage: "Ran tests",
		},
		{
			name:        "empty invocation falls back to past tense",
			raw:         `{"kind":"toolInvocationSerialized","invocationMessage":"","pastTenseMessage":{"value":"Read file"}}`,
			wantMessage: "Read file",
		},
		{
			name:        "default message",
			raw:         `{"kind":"toolInvocationSerialized"}`,
			wantMessage: "Ran tool",
		},
		{
			name:          "first output item",
			raw:           `{"kind":"toolInvocationSerialized","invocationMessage":"Run","resultDetails":{"input":"{}","output":[{"value":"ok"},{"value":"ignored"}]}}`,
			wantMessage:   "Run",
			wantInput:     "{}",
			wantInputJSON: true,
			wantOutput:    "ok",
			wantHasOutput: true,
		},
		{
			name:        "empty object input is absent",
			raw:         `{"kind":"toolInvocationSerialized","invocationMessage":"Run","resultDetails":{"input":{}}}`,
			wantMessage: "Run",
		},
		{
			name:        "list result details",
			raw:         `{"kind":"toolInvocationSerialized","invocationMessage":"Find","resultDetails":[{"path":"/a"}]}`,
			wantMessage: "Find",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ClassifyFragment(json.RawMessage(tt.raw))
			require.Equal(t, FragmentToolInvocation, f.Kind)
			require.NotNil(t, f.Tool)
			assert.True(t, f.Deferred())
			assert.Equal(t, tt.wantMessage, f.Tool.Message)
			assert.Equal(t, tt.wantInput, f.Tool.Input)
			assert.Equal(t, tt.wantInputJSON, f.Tool.InputJSON)
			assert.Equal(t, tt.wantOutput, f.Tool.Output)
			assert.Equal(t, tt.wantHasOutput, f.Tool.HasOutput)
		})
	}
}

func TestClassifyProgressTask(t *testing.T) {
	f := ClassifyFragment(json.RawMessage(`{"kind":"progressTaskSerialized","content":{"value":"Indexed workspace"}}`))
	require.Equal(t, FragmentProgressTask, f.Kind)
	require.NotNil(t, f.Task)
	assert.Equal(t, "Indexed workspace", f.Task.Content)

	f = ClassifyFragment(json.RawMessage(`{"kind":"progressTaskSerialized"}`))
	require.NotNil(t, f.Task)
	assert.Empty(t, f.Task.Content)
}

func TestClassifyTextEditGroup(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantNil    bool
		wantPath   string
		wantGroups int
		check      func(t *testing.T, g *TextEditGroup)
	}{
		{
			name:       "fsPath with range",
			raw:        `{"kind":"textEditGroup","uri":{"fsPath":"/repo/main.py","path":"/ignored"},"edits":[[{"text":"print(1)\n","range":{"startLineNumber":3,"endLineNumber":5}}]]}`,
			wantPath:   "/repo/main.py",
			wantGroups: 1,
			check: func(t *testing.T, g *TextEditGroup) {
				require.Len(t, g.Groups[0], 1)
				assert.Equal(t, TextEdit{Text: "print(1)\n", StartLine: 3, EndLine: 5}, g.Groups[0][0])
			},
		},
		{
			name:       "path fallback",
			raw:        `{"kind":"textEditGroup","uri":{"path":"/repo/README.md"},"edits":[[{"text":"# Title"}]]}`,
			wantPath:   "/repo/README.md",
			wantGroups: 1,
		},
		{
			name:     "missing uri",
			raw:      `{"kind":"textEditGroup","edits":[[{"text":"x"}]]}`,
			wantPath: "",
			wantGroups: 1,
		},
		{
			name:    "no edits",
			raw:     `{"kind":"textEditGroup","uri":{"path":"/a.go"},"edits":[]}`,
			wantPath: "/a.go",
			check: func(t *testing.T, g *TextEditGroup) {
				assert.Nil(t, g.Groups)
			},
		},
		{
			name:       "empty and non-object entries skipped",
			raw:        `{"kind":"textEditGroup","uri":{"path":"/a.go"},"edits":[[],["junk",{"text":"ok"}]]}`,
			wantPath:   "/a.go",
			wantGroups: 1,
			check: func(t *testing.T, g *TextEditGroup) {
				require.Len(t, g.Groups[0], 1)
				assert.Equal(t, "ok", g.Groups[0][0].Text)
			},
		},
		{
			name:    "uri not an object",
			raw:     `{"kind":"textEditGroup","uri":"file:///a.go","edits":[[{"text":"x"}]]}`,
			wantNil: true,
		},
		{
			name:    "numeric edits",
			raw:     `{"kind":"textEditGroup","uri":{"path":"/a.go"},"edits":5}`,
			wantNil: true,
		},
		{
			name:     "string edits keep summary only",
			raw:      `{"kind":"textEditGroup","uri":{"path":"/a.go"},"edits":"broken"}`,
			wantPath: "/a.go",
			check: func(t *testing.T, g *TextEditGroup) {
				assert.NotNil(t, g.Groups)
			},
		},
		{
			name:     "object edits keep summary only",
			raw:      `{"kind":"textEditGroup","uri":{"path":"/a.go"},"edits":{"text":"x"}}`,
			wantPath: "/a.go",
			check: func(t *testing.T, g *TextEditGroup) {
				assert.NotNil(t, g.Groups)
			},
		},
		{
			name:       "range ignored on empty text",
			raw:        `{"kind":"textEditGroup","uri":{"fsPath":"b.py"},"edits":[[{"text":"","range":"bad"},{"text":"x = 1"}]]}`,
			wantPath:   "b.py",
			wantGroups: 1,
			check: func(t *testing.T, g *TextEditGroup) {
				require.Len(t, g.Groups[0], 2)
				assert.Equal(t, TextEdit{}, g.Groups[0][0])
				assert.Equal(t, TextEdit{Text: "x = 1"}, g.Groups[0][1])
			},
		},
		{
			name:       "float and string line numbers",
			raw:        `{"kind":"textEditGroup","uri":{"path":"/a.go"},"edits":[[{"text":"x","range":{"startLineNumber":1.0,"endLineNumber":"4"}}]]}`,
			wantPath:   "/a.go",
			wantGroups: 1,
			check: func(t *testing.T, g *TextEditGroup) {
				assert.Equal(t, TextEdit{Text: "x", StartLine: 1, EndLine: 4}, g.Groups[0][0])
			},
		},
		{
			name:       "fractional line number ignored",
			raw:        `{"kind":"textEditGroup","uri":{"path":"/a.go"},"edits":[[{"text":"x","range":{"startLineNumber":1.5,"endLineNumber":2}}]]}`,
			wantPath:   "/a.go",
			wantGroups: 1,
			check: func(t *testing.T, g *TextEditGroup) {
				assert.Equal(t, TextEdit{Text: "x", EndLine: 2}, g.Groups[0][0])
			},
		},
		{
			name:    "numeric edit group",
			raw:     `{"kind":"textEditGroup","uri":{"path":"/a.go"},"edits":[7]}`,
			wantNil: true,
		},
		{
			name:    "range not an object",
			raw:     `{"kind":"textEditGroup","uri":{"path":"/a.go"},"edits":[[{"text":"x","range":"1-2"}]]}`,
			wantNil: true,
		},
		{
			name:    "non-string text",
			raw:     `{"kind":"textEditGroup","uri":{"path":"/a.go"},"edits":[[{"text":42}]]}`,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ClassifyFragment(json.RawMessage(tt.raw))
			require.Equal(t, FragmentTextEditGroup, f.Kind)
			assert.True(t, f.Deferred())
			if tt.wantNil {
				assert.Nil(t, f.Edit)
				return
			}
			require.NotNil(t, f.Edit)
			assert.Equal(t, tt.wantPath, f.Edit.Path)
			assert.Len(t, f.Edit.Groups, tt.wantGroups)
			if tt.check != nil {
				tt.check(t, f.Edit)
			}
		})
	}
}

func TestInternalKindsYieldEmptyText(t *testing.T) {
	for kind := range internalKinds {
		raw, err := json.Marshal(map[string]any{"kind": kind, "value": "x", "content": map[string]any{"value": "y"}})
		require.NoError(t, err)
		f := ClassifyFragment(raw)
		assert.Equal(t, FragmentInternal, f.Kind, kind)
		assert.Empty(t, f.Text, kind)
		assert.False(t, f.Deferred(), kind)
	}
}

func TestClassifyResponse(t *testing.T) {
	frags := ClassifyResponse([]json.RawMessage{
		json.RawMessage(`{"value":"a"}`),
		json.RawMessage(`{"kind":"undoStop"}`),
		json.RawMessage(`{"kind":"progressTaskSerialized","content":{"value":"done"}}`),
	})
	require.Len(t, frags, 3)
	assert.Equal(t, FragmentPlainText, frags[0].Kind)
	assert.Equal(t, FragmentInternal, frags[1].Kind)
	assert.Equal(t, FragmentProgressTask, frags[2].Kind)
}
