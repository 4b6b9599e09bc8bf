package core

import (
	"fmt"
	"strings"
	"time"
)

// DiffStats summarizes the inline edits made across a session.
type DiffStats struct {
	Added   int `json:"added,omitempty"`   // lines of replacement text
	Removed int `json:"removed,omitempty"` // lines covered by edit ranges
	Changed int `json:"changed,omitempty"` // unique files touched
}

// ComputeDiffStats walks every text-edit group in the session and computes
// aggregate line-level statistics from the current fragments.
func ComputeDiffStats(log *ChatLog) *DiffStats {
	files := make(map[string]bool)
	var added, removed int

	for _, req := range log.Requests {
		for _, f := range req.Fragments() {
			if f.Kind != FragmentTextEditGroup || f.Edit == nil {
				continue
			}
			touched := false
			for _, group := range f.Edit.Groups {
				for _, e := range group {
					if e.Text == "" {
						continue
					}
					touched = true
					added += countLines(e.Text)
					if e.StartLine > 0 && e.EndLine >= e.StartLine {
						removed += e.EndLine - e.StartLine + 1
					}
				}
			}
			if touched && f.Edit.Path != "" {
				files[f.Edit.Path] = true
			}
		}
	}

	if added == 0 && removed == 0 && len(files) == 0 {
		return nil
	}

	return &DiffStats{
		Added:   added,
		Removed: removed,
		Changed: len(files),
	}
}

// Stats returns the cached diff statistics, computing them when absent.
func (l *ChatLog) Stats() *DiffStats {
	if l.DiffStats != nil {
		return l.DiffStats
	}
	return ComputeDiffStats(l)
}

// RelativeTime formats a time.Time as a human-readable relative string.
func RelativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(d.Hours()/(24*7)))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%dmo ago", int(d.Hours()/(24*30)))
	default:
		return fmt.Sprintf("%dy ago", int(d.Hours()/(24*365)))
	}
}

// CountLines returns the number of lines in s.
// An empty string has 0 lines. A string with no newline has 1 line.
func CountLines(s string) int {
	return countLines(s)
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n") + 1
	if strings.HasSuffix(s, "\n") {
		n--
	}
	return n
}
