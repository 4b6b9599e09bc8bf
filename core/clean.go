package core

import (
	"strings"
	"unicode"
)

// checkmark is the glyph that starts checklist-style lines in responses.
const checkmark = "✅"

// NormalizeText cleans extracted text for rendering. It is idempotent.
//
// Lines leaking raw internal objects are dropped, consecutive checkmark lines
// get an explicit <br> so renderers that merge adjacent lines keep them apart,
// trailing whitespace is trimmed (leading indentation is kept), runs of blank
// lines collapse to one and trailing blank lines are removed.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}

	lines := strings.Split(s, "\n")
	if isLeakage(s) {
		kept := lines[:0:0]
		for _, line := range lines {
			if !isLeakage(line) {
				kept = append(kept, line)
			}
		}
		lines = kept
	}

	lines = spaceCheckmarks(lines)

	out := make([]string, 0, len(lines))
	prevBlank := false
	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		blank := line == ""
		if blank && prevBlank {
			continue
		}
		out = append(out, line)
		prevBlank = blank
	}

	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}

// isLeakage reports whether s contains a fragment of a raw internal object.
func isLeakage(s string) bool {
	return strings.Contains(s, "{") && (strings.Contains(s, MonikerToken) || strings.Contains(s, "kind"))
}

// spaceCheckmarks prefixes <br> to a checkmark line that directly follows
// another checkmark line. A checkmark line after ordinary text is left alone.
func spaceCheckmarks(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line
		if i == 0 || !startsWithCheckmark(line) {
			continue
		}
		if startsWithCheckmark(lines[i-1]) {
			out[i] = "<br>" + line
		}
	}
	return out
}

func startsWithCheckmark(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), checkmark)
}
