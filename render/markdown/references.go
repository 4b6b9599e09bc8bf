package markdown

import (
	"fmt"
	"strings"

	"github.com/sonnes/copilotmd/core"
)

const (
	promptPrefix    = "prompt:"
	settingsPrefix  = "github.copilot.chat."
	promptFileKind  = "promptFile"
	promptIcon      = "☰"
	fileIcon        = "📄"
	settingIcon     = "⚙️"
	referencesBreak = "<br>"
)

// formatReferences renders the context a request was sent with as a
// collapsible block. Prompt files that name a chat setting in their origin
// label contribute a second line, counted as its own reference.
func formatReferences(refs []core.Reference) string {
	if len(refs) == 0 {
		return ""
	}

	var lines []string
	for _, ref := range refs {
		if name, ok := strings.CutPrefix(ref.Name, promptPrefix); ok {
			lines = append(lines, promptIcon+" "+name)
		} else {
			lines = append(lines, fileIcon+" "+ref.Name)
		}

		if ref.Kind == promptFileKind && strings.Contains(ref.OriginLabel, settingsPrefix) {
			lines = append(lines, settingIcon+" "+settingsPrefix+settingName(ref.OriginLabel))
		}
	}

	return fmt.Sprintf("<details>\n  <summary>Used %d references</summary>\n  <p>%s</p>\n</details>\n\n\n",
		len(lines), strings.Join(lines, referencesBreak))
}

// settingName extracts the setting key that follows the last settings
// prefix in an origin label, up to the first space.
func settingName(label string) string {
	rest := label[strings.LastIndex(label, settingsPrefix)+len(settingsPrefix):]
	name, _, _ := strings.Cut(rest, " ")
	return name
}
