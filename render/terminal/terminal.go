// Package terminal renders chat logs as ANSI-colored request cards.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"github.com/sonnes/copilotmd/core"
)

const defaultWidth = 100

const (
	defaultRequester = "user"
	defaultResponder = "copilot"
)

// Renderer pretty-prints a chat log as request cards to the terminal.
type Renderer struct {
	// Width overrides terminal width detection. Zero means auto-detect.
	Width int
}

// New creates a terminal Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render writes the chat log as ANSI-colored cards to w, one user card and
// one assistant card per request.
func (r *Renderer) Render(w io.Writer, log *core.ChatLog) error {
	width := r.termWidth()

	writeHeader(w, log)

	var prev *time.Time
	for i, req := range log.Requests {
		var gap string
		if req.Timestamp != nil && prev != nil {
			gap = formatDuration(req.Timestamp.Sub(*prev))
		}
		if req.Timestamp != nil {
			prev = req.Timestamp
		}
		writeRequest(w, log, i+1, req, gap, width)
	}

	fmt.Fprintln(w)
	return nil
}

func (r *Renderer) termWidth() int {
	if r.Width > 0 {
		return r.Width
	}
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// writeHeader renders the session metadata block.
func writeHeader(w io.Writer, log *core.ChatLog) {
	// Row 1: Title + diff stats
	title := core.Title(log)
	if title == "" && log.SessionID != "" {
		title = "Session " + log.SessionID
	}
	row1 := styleTitle.Render(title)
	if stats := log.Stats(); stats != nil {
		var parts []string
		if stats.Added > 0 {
			parts = append(parts, styleAdded.Render("+"+formatNumber(stats.Added)))
		}
		if stats.Changed > 0 {
			parts = append(parts, styleChanged.Render("~"+formatNumber(stats.Changed)))
		}
		if stats.Removed > 0 {
			parts = append(parts, styleRemoved.Render("-"+formatNumber(stats.Removed)))
		}
		if len(parts) > 0 {
			row1 += "  " + strings.Join(parts, " ")
		}
	}
	fmt.Fprintln(w, row1)

	// Row 2: @requester  relative_time  model  requests
	var parts []string
	if log.RequesterUsername != "" {
		parts = append(parts, "@"+log.RequesterUsername)
	}
	if !log.CreatedAt.IsZero() {
		parts = append(parts, core.RelativeTime(log.CreatedAt))
	}
	if m := core.PrimaryModel(log); m != "" {
		parts = append(parts, m)
	}
	parts = append(parts, plural(len(log.Requests), "request"))
	fmt.Fprintln(w, styleMeta.Render(strings.Join(parts, "  ")))
}

// writeSeparator renders a horizontal rule.
func writeSeparator(w io.Writer, width int) {
	n := min(width, 72)
	fmt.Fprintln(w)
	fmt.Fprintln(w, styleSeparator.Render(strings.Repeat("─", n)))
}

// writeRequest renders the user card and the assistant card of one request.
func writeRequest(w io.Writer, log *core.ChatLog, n int, req core.Request, gap string, width int) {
	contentWidth := width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	writeSeparator(w, width)

	// User card.
	requester := log.RequesterUsername
	if requester == "" {
		requester = defaultRequester
	}
	var meta []string
	meta = append(meta, fmt.Sprintf("#%d", n))
	if req.Timestamp != nil {
		meta = append(meta, formatTime(*req.Timestamp))
	}
	if gap != "" {
		meta = append(meta, gap)
	}
	writeCard(w, styleUserBadge.Render(strings.ToUpper(requester)), meta, userLines(req, contentWidth))

	// Assistant card.
	lines := responseLines(req, contentWidth)
	if len(lines) == 0 {
		return
	}
	responder := log.ResponderUsername
	if responder == "" {
		responder = defaultResponder
	}
	meta = nil
	if info := req.ModelInfo(); info != "" {
		meta = append(meta, info)
	}
	if d, ok := req.Elapsed(); ok {
		meta = append(meta, styleDuration.Render(formatDuration(d)))
	}
	fmt.Fprintln(w)
	writeCard(w, styleAssistantBadge.Render(strings.ToUpper(responder)), meta, lines)
}

func writeCard(w io.Writer, badge string, meta []string, lines []string) {
	header := badge
	if len(meta) > 0 {
		header += "    " + styleMeta.Render(strings.Join(meta, "    "))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, " "+header)
	for _, line := range lines {
		fmt.Fprintln(w, "  "+line)
	}
}

func userLines(req core.Request, width int) []string {
	text := strings.TrimSpace(req.UserText())
	if text == "" {
		return []string{styleMeta.Render(core.NoMessagePreview)}
	}
	lines := []string{truncate(text, width)}
	if n := len(req.References); n > 0 {
		lines = append(lines, styleToolDetail.Render("📎 "+plural(n, "reference")))
	}
	return lines
}

// responseLines condenses the response fragments into one line per text run,
// tool call, edit and progress notice. Streamed text chunks between two
// blocks are joined before their first line is taken.
func responseLines(req core.Request, width int) []string {
	var lines []string
	var text strings.Builder

	flush := func() {
		if s := strings.TrimSpace(text.String()); s != "" {
			lines = append(lines, truncate(s, width))
		}
		text.Reset()
	}

	for _, f := range req.Fragments() {
		switch f.Kind {
		case core.FragmentPlainText:
			text.WriteString(f.Text)
		case core.FragmentToolInvocation:
			flush()
			lines = append(lines, toolLine(f.Tool, width))
		case core.FragmentTextEditGroup:
			flush()
			if file, count := summarizeEdit(f.Edit); file != "" {
				lines = append(lines, styleToolName.Render("✎ "+file)+"  "+styleAdded.Render(count))
			}
		case core.FragmentProgressTask:
			flush()
			if f.Task != nil && f.Task.Content != "" {
				lines = append(lines, styleProgress.Render("✔ "+truncate(f.Task.Content, width-2)))
			}
		}
	}
	flush()

	if len(lines) == 0 {
		if s := req.ConsolidatedResponse(); s != "" {
			lines = append(lines, truncate(s, width))
		}
	}
	return lines
}

func toolLine(tool *core.ToolInvocation, width int) string {
	name := "tool"
	if tool != nil && tool.Message != "" {
		name = tool.Message
	}
	line := styleToolName.Render("⚙ " + truncate(name, width-2))
	if summary := extractToolSummary(tool); summary != "" {
		nameWidth := lipgloss.Width("⚙ " + name + "  ")
		if rest := width - nameWidth; rest >= 4 {
			line += "  " + styleToolDetail.Render(truncate(summary, rest))
		}
	}
	return line
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// truncate shortens text to maxWidth, appending "..." if needed.
// Multi-line text is reduced to the first line.
func truncate(s string, maxWidth int) string {
	if maxWidth < 4 {
		maxWidth = 4
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if lipgloss.Width(s) <= maxWidth {
		return s
	}

	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func formatTime(t time.Time) string {
	return t.Format("Jan 2, 2006 3:04 PM")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0 && s > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

func formatNumber(n int) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return formatNumber(n/1000) + "," + fmt.Sprintf("%03d", n%1000)
}
