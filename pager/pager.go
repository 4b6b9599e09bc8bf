// Package pager shows pre-rendered terminal output in a scrollable
// full-screen view.
package pager

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// sectionMarker starts the rule line that separates requests.
const sectionMarker = "─"

var (
	styleTitle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#0f172a", Dark: "#f1f5f9"})
	styleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#94a3b8", Dark: "#64748b"})
)

// Model is a bubbletea model paging through rendered content.
type Model struct {
	title    string
	content  string
	sections []int // line offsets of request separators

	viewport viewport.Model
	ready    bool
}

// New creates a pager for content.
func New(title, content string) Model {
	return Model{
		title:    title,
		content:  content,
		sections: sectionOffsets(content),
	}
}

// Run shows content full-screen until the user quits.
func Run(title, content string) error {
	p := tea.NewProgram(New(title, content), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run pager: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - lipgloss.Height(m.headerView()) - lipgloss.Height(m.footerView())
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "n":
			m.jump(1)
			return m, nil
		case "p":
			m.jump(-1)
			return m, nil
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}
	return m.headerView() + "\n" + m.viewport.View() + "\n" + m.footerView()
}

func (m Model) headerView() string {
	return styleTitle.Render(" " + m.title)
}

func (m Model) footerView() string {
	percent := 100
	if m.ready {
		percent = int(m.viewport.ScrollPercent() * 100)
	}
	return styleHelp.Render(fmt.Sprintf(" %3d%%  ↑/↓ scroll · n/p next/prev request · g/G top/bottom · q quit", percent))
}

// jump moves to the next (dir > 0) or previous request separator.
func (m *Model) jump(dir int) {
	cur := m.viewport.YOffset
	if dir > 0 {
		for _, off := range m.sections {
			if off > cur {
				m.viewport.SetYOffset(off)
				return
			}
		}
		return
	}
	for i := len(m.sections) - 1; i >= 0; i-- {
		if off := m.sections[i]; off < cur {
			m.viewport.SetYOffset(off)
			return
		}
	}
	m.viewport.GotoTop()
}

// sectionOffsets returns the line numbers of the separator rules in content.
func sectionOffsets(content string) []int {
	var offsets []int
	for i, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(ansi.Strip(line)), sectionMarker) {
			offsets = append(offsets, i)
		}
	}
	return offsets
}
