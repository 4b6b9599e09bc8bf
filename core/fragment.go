package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FragmentKind enumerates the semantic kinds of a response fragment.
type FragmentKind string

const (
	FragmentPlainText      FragmentKind = "plain_text"
	FragmentToolInvocation FragmentKind = "tool_invocation"
	FragmentProgressTask   FragmentKind = "progress_task"
	FragmentTextEditGroup  FragmentKind = "text_edit_group"
	FragmentInternal       FragmentKind = "internal"
	FragmentUnknown        FragmentKind = "unknown"
)

// MonikerToken marks host-UI object references that must never be rendered.
const MonikerToken = "$mid"

// Fragment is one classified piece of an assistant response. The Kind field
// determines which other fields are populated.
type Fragment struct {
	Kind FragmentKind
	Text string          // set for "plain_text" and "unknown"; empty when suppressed
	Tool *ToolInvocation // set for "tool_invocation"
	Task *ProgressTask   // set for "progress_task"
	Edit *TextEditGroup  // set for "text_edit_group"; nil if the structure could not be read
}

// Deferred reports whether the fragment renders as a block after the
// response text has been joined.
func (f Fragment) Deferred() bool {
	switch f.Kind {
	case FragmentToolInvocation, FragmentProgressTask, FragmentTextEditGroup:
		return true
	}
	return false
}

// ToolInvocation is a serialized tool call.
type ToolInvocation struct {
	Message   string // invocation message, falling back to the past-tense message
	Input     string // tool input: a JSON document or, if InputJSON is false, raw text
	InputJSON bool
	Output    string // value of the first output item
	HasOutput bool
}

// ProgressTask is a progress notice shown as a checkmarked line.
type ProgressTask struct {
	Content string
}

// TextEditGroup is a set of inline edits applied to one file. Groups is nil
// when the fragment carried no edits.
type TextEditGroup struct {
	Path   string
	Groups [][]TextEdit
}

// TextEdit is a single replacement. StartLine and EndLine are zero when the
// edit carries no range.
type TextEdit struct {
	Text      string
	StartLine int
	EndLine   int
}

// internalKinds are UI bookkeeping tags that never reach the output.
var internalKinds = map[string]bool{
	"inlineReference": true,
	"undoStop":        true,
	"codeblockUri":    true,
	// Superseded by the toolInvocationSerialized event that follows it.
	"prepareToolInvocation": true,
}

// ClassifyFragment determines the kind of a raw response fragment and
// extracts its display text or typed payload. It never fails: undecodable
// input classifies as an empty Unknown fragment.
func ClassifyFragment(raw json.RawMessage) Fragment {
	v, err := decodeAny(raw)
	if err != nil {
		return Fragment{Kind: FragmentUnknown}
	}

	switch val := v.(type) {
	case map[string]any:
		return classifyObject(val, raw)
	case string:
		if looksLikeDump(val) {
			return Fragment{Kind: FragmentUnknown}
		}
		if val == "" {
			return Fragment{Kind: FragmentUnknown}
		}
		return Fragment{Kind: FragmentPlainText, Text: val}
	default:
		if !truthy(v) {
			return Fragment{Kind: FragmentUnknown}
		}
		return Fragment{Kind: FragmentUnknown, Text: stringify(v)}
	}
}

// ClassifyResponse classifies every fragment of a request's response, in order.
func ClassifyResponse(raw []json.RawMessage) []Fragment {
	fragments := make([]Fragment, 0, len(raw))
	for _, r := range raw {
		fragments = append(fragments, ClassifyFragment(r))
	}
	return fragments
}

func classifyObject(m map[string]any, raw json.RawMessage) Fragment {
	if kind, ok := m["kind"]; ok {
		k, _ := kind.(string)
		switch {
		case k == "textEditGroup":
			f := Fragment{Kind: FragmentTextEditGroup}
			if edit, ok := parseTextEditGroup(m); ok {
				f.Edit = edit
			}
			return f
		case internalKinds[k]:
			return Fragment{Kind: FragmentInternal}
		case k == "toolInvocationSerialized":
			return Fragment{Kind: FragmentToolInvocation, Tool: parseToolInvocation(m, raw)}
		case k == "progressTaskSerialized":
			return Fragment{Kind: FragmentProgressTask, Task: parseProgressTask(m)}
		}

		for _, key := range []string{"content", "invocationMessage", "pastTenseMessage"} {
			if v, ok := nestedValue(m, key); ok {
				return Fragment{Kind: FragmentPlainText, Text: "*" + stringify(v) + "*"}
			}
		}
	}

	_, hasID := m["id"]
	_, hasKind := m["kind"]
	_, hasMoniker := m[MonikerToken]
	_, hasInlineRef := m["inlineReference"]
	if (hasID && (hasKind || hasMoniker)) || hasMoniker || hasInlineRef {
		return Fragment{Kind: FragmentInternal}
	}

	if v, ok := m["value"]; ok {
		s, isString := v.(string)
		if !isString {
			return Fragment{Kind: FragmentPlainText, Text: stringify(v)}
		}
		if strings.Contains(s, "{") && strings.Contains(s, MonikerToken) {
			return Fragment{Kind: FragmentInternal}
		}
		if strings.TrimSpace(s) == "```" {
			// Orphaned fence left behind by a tool invocation.
			return Fragment{Kind: FragmentUnknown}
		}
		return Fragment{Kind: FragmentPlainText, Text: s}
	}

	if c, ok := m["content"]; ok {
		switch content := c.(type) {
		case string:
			return Fragment{Kind: FragmentPlainText, Text: content}
		case map[string]any:
			if v, ok := content["value"]; ok {
				return Fragment{Kind: FragmentPlainText, Text: stringify(v)}
			}
		}
	}

	if len(m) == 0 {
		return Fragment{Kind: FragmentUnknown}
	}
	return Fragment{Kind: FragmentUnknown, Text: stringify(m)}
}

// parseToolInvocation reads the messages and result details of a serialized
// tool call. Input stays empty when resultDetails is missing or not an object.
func parseToolInvocation(m map[string]any, raw json.RawMessage) *ToolInvocation {
	pastTense := "Ran tool"
	switch p := m["pastTenseMessage"].(type) {
	case map[string]any:
		if v, ok := p["value"]; ok {
			pastTense = stringify(v)
		}
	case string:
		pastTense = p
	}

	message := ""
	switch inv := m["invocationMessage"].(type) {
	case map[string]any:
		message = "Ran tool"
		if v, ok := inv["value"]; ok {
			message = stringify(v)
		}
	case string:
		message = inv
	}
	if message == "" {
		message = pastTense
	}

	tool := &ToolInvocation{Message: message}

	details, ok := m["resultDetails"].(map[string]any)
	if !ok {
		return tool
	}

	input, ok := details["input"]
	if !ok || !truthy(input) {
		return tool
	}
	if s, isString := input.(string); isString {
		tool.Input = s
		tool.InputJSON = json.Valid([]byte(s))
	} else {
		// Keep the original key order of object inputs.
		var rd struct {
			ResultDetails struct {
				Input json.RawMessage `json:"input"`
			} `json:"resultDetails"`
		}
		if err := json.Unmarshal(raw, &rd); err == nil && len(rd.ResultDetails.Input) > 0 {
			tool.Input = string(rd.ResultDetails.Input)
		} else {
			tool.Input = stringify(input)
		}
		tool.InputJSON = true
	}

	if output, ok := details["output"].([]any); ok && len(output) > 0 {
		tool.HasOutput = true
		if item, ok := output[0].(map[string]any); ok {
			if v, ok := item["value"]; ok {
				tool.Output = stringify(v)
			}
		} else {
			tool.Output = stringify(output[0])
		}
	}

	return tool
}

func parseProgressTask(m map[string]any) *ProgressTask {
	content, ok := m["content"].(map[string]any)
	if !ok {
		return &ProgressTask{}
	}
	v, ok := content["value"]
	if !ok || !truthy(v) {
		return &ProgressTask{}
	}
	return &ProgressTask{Content: stringify(v)}
}

// parseTextEditGroup reads the target file and edits of a textEditGroup
// fragment. It reports false when the structure is not traversable, in which
// case the fragment renders as nothing.
func parseTextEditGroup(m map[string]any) (*TextEditGroup, bool) {
	uri := map[string]any{}
	if u, ok := m["uri"]; ok {
		if uri, ok = u.(map[string]any); !ok {
			return nil, false
		}
	}
	path := stringVal(uri, "fsPath")
	if path == "" {
		path = stringVal(uri, "path")
	}

	edits, ok := m["edits"]
	if !ok || !truthy(edits) {
		return &TextEditGroup{Path: path}, true
	}
	var rawGroups []any
	switch e := edits.(type) {
	case []any:
		rawGroups = e
	case string, map[string]any:
		// Iterable but holds no edit groups; the block keeps its summary line.
		return &TextEditGroup{Path: path, Groups: [][]TextEdit{}}, true
	default:
		return nil, false
	}

	// Non-nil Groups marks an edit list that was present, even if every
	// group in it turns out empty.
	group := &TextEditGroup{Path: path, Groups: make([][]TextEdit, 0, len(rawGroups))}
	for _, rg := range rawGroups {
		if !truthy(rg) {
			continue
		}
		var entries []any
		switch g := rg.(type) {
		case []any:
			entries = g
		case string, map[string]any:
			// Iterable but holds no edit objects.
			continue
		default:
			return nil, false
		}

		var batch []TextEdit
		for _, e := range entries {
			em, ok := e.(map[string]any)
			if !ok {
				continue
			}
			edit, ok := parseTextEdit(em)
			if !ok {
				return nil, false
			}
			batch = append(batch, edit)
		}
		group.Groups = append(group.Groups, batch)
	}
	return group, true
}

func parseTextEdit(m map[string]any) (TextEdit, bool) {
	var edit TextEdit
	if t, ok := m["text"]; ok && truthy(t) {
		s, ok := t.(string)
		if !ok {
			return TextEdit{}, false
		}
		edit.Text = s
	}
	if edit.Text == "" {
		return edit, true
	}
	if r, ok := m["range"]; ok && truthy(r) {
		rng, ok := r.(map[string]any)
		if !ok {
			return TextEdit{}, false
		}
		edit.StartLine = intVal(rng, "startLineNumber")
		edit.EndLine = intVal(rng, "endLineNumber")
	}
	return edit, true
}

// looksLikeDump reports whether s is a raw dump of an internal object.
func looksLikeDump(s string) bool {
	return strings.Contains(s, "{") && (strings.Contains(s, MonikerToken) || strings.Contains(s, "kind"))
}

// nestedValue returns m[key]["value"] when m[key] is an object carrying one.
func nestedValue(m map[string]any, key string) (any, bool) {
	obj, ok := m[key].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj["value"]
	return v, ok
}

func decodeAny(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// stringify renders a decoded JSON value as display text: strings verbatim,
// everything else as compact JSON.
func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// truthy mirrors the emptiness test applied to loosely typed JSON fields:
// null, false, zero, and empty strings, arrays and objects are all absent.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case json.Number:
		f, err := val.Float64()
		return err != nil || f != 0
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}

func stringVal(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// intVal reads a line number. Whole floats such as 3.0 and numeric strings
// are accepted; anything else reads as 0.
func intVal(m map[string]any, key string) int {
	var s string
	switch v := m[key].(type) {
	case json.Number:
		s = v.String()
	case string:
		s = strings.TrimSpace(v)
	default:
		return 0
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(f)
}
