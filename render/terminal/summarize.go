package terminal

import (
	"encoding/json"
	"fmt"

	"github.com/sonnes/copilotmd/core"
	"github.com/sonnes/copilotmd/safepath"
)

// summaryKeys are the tool input fields worth showing, in priority order.
var summaryKeys = []string{"command", "filePath", "file_path", "path", "query", "pattern", "url"}

// summarizeTool produces a compact one-liner like "[Ran terminal: go test]".
func summarizeTool(tool *core.ToolInvocation) string {
	if tool == nil {
		return "[tool]"
	}
	name := tool.Message
	if name == "" {
		name = "tool"
	}
	summary := extractToolSummary(tool)
	if summary == "" {
		return fmt.Sprintf("[%s]", name)
	}
	return fmt.Sprintf("[%s: %s]", name, summary)
}

// extractToolSummary extracts the most relevant field from the tool input.
// Inputs that are not JSON objects are shown as-is.
func extractToolSummary(tool *core.ToolInvocation) string {
	if tool == nil || tool.Input == "" {
		return ""
	}
	if !tool.InputJSON {
		return tool.Input
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(tool.Input), &m); err != nil || m == nil {
		return ""
	}
	for _, key := range summaryKeys {
		if v := stringField(m, key); v != "" {
			return v
		}
	}
	return ""
}

// summarizeEdit describes an edit group as "file  +N lines".
func summarizeEdit(edit *core.TextEditGroup) (string, string) {
	if edit == nil {
		return "", ""
	}
	name := "Unknown file"
	if edit.Path != "" {
		name = safepath.Sanitize(edit.Path)
	}
	lines := 0
	for _, group := range edit.Groups {
		for _, e := range group {
			lines += core.CountLines(e.Text)
		}
	}
	return name, fmt.Sprintf("+%d lines", lines)
}

// stringField safely extracts a string value from a map.
func stringField(m map[string]any, key string) string {
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
