package markdown

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sonnes/copilotmd/core"
	"github.com/sonnes/copilotmd/safepath"
)

const unknownFile = "Unknown file"

// fenceLanguages maps file extensions to code fence language tags. Other
// extensions get an untagged fence.
var fenceLanguages = map[string]string{
	".md":   "markdown",
	".py":   "python",
	".json": "json",
}

// toolBlock renders a tool invocation as a collapsible block holding its
// input and first output. Invocations without input render nothing.
func toolBlock(t *core.ToolInvocation) string {
	if t == nil || t.Input == "" {
		return ""
	}

	input, ok := indentJSON(t.Input)
	if !t.InputJSON || !ok {
		return fmt.Sprintf("<details>\n  <summary>%s</summary>\n  <p>Completed with input: %s</p>\n</details>\n\n", t.Message, t.Input)
	}

	lines := []string{
		"<details>",
		fmt.Sprintf("  <summary>%s</summary>", t.Message),
		"  <p>Input</p>",
		"",
		"```json",
		input,
		"```",
		"",
	}

	if t.HasOutput {
		output := t.Output
		if looksStructured(output) {
			if pretty, ok := indentJSON(output); ok {
				output = pretty
			}
		}
		lines = append(lines,
			"  <p>Output</p>",
			"",
			"```json",
			output,
			"```",
			"",
		)
	}

	lines = append(lines, "</details>")
	return strings.Join(lines, "\n") + "\n\n"
}

// editBlock renders a text-edit group as a collapsible block with one fenced
// code block per edit. Groups that could not be read, or that carry no edit
// list, render nothing.
func editBlock(g *core.TextEditGroup) string {
	if g == nil || g.Groups == nil {
		return ""
	}

	name := unknownFile
	if g.Path != "" {
		name = safepath.Sanitize(g.Path)
	}
	lang := fenceLanguages[filepath.Ext(name)]

	lines := []string{
		"<details>",
		"  <summary>🛠️ File Edit: " + name + "</summary>",
	}
	for _, group := range g.Groups {
		for _, e := range group {
			if e.Text == "" {
				continue
			}
			if e.StartLine != 0 && e.EndLine != 0 {
				lines = append(lines,
					fmt.Sprintf("  <p><strong>Modified lines %d-%d:</strong></p>", e.StartLine, e.EndLine),
					"",
				)
			}
			lines = append(lines, "```"+lang, e.Text, "```", "")
		}
	}
	lines = append(lines, "</details>")
	return strings.Join(lines, "\n") + "\n\n"
}

// progressLine renders a completed progress task as a checkmarked line.
func progressLine(p *core.ProgressTask) string {
	if p == nil || p.Content == "" {
		return ""
	}
	return "\n✔️ " + p.Content + "\n"
}

// indentJSON pretty-prints a JSON document with two-space indentation.
func indentJSON(s string) (string, bool) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(strings.TrimSpace(s)), "", "  "); err != nil {
		return "", false
	}
	return buf.String(), true
}

func looksStructured(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}
