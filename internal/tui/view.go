package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/designctl/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/designctl/internal/livesync"
	"github.com/alexisbeaulieu97/designctl/internal/target"
)

// View renders the current state of the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var sections []string
	sections = append(sections, titleStyle.Render(fmt.Sprintf("designctl • %s", m.title)))

	if m.state == livesync.StateHydrating {
		sections = append(sections, fmt.Sprintf("%s loading settings...", m.spinner.View()))
	}

	sections = append(sections, sectionStyle.Render("Slots"), m.renderSlots())

	if m.editing != "" {
		sections = append(sections, m.renderEditor())
	}

	if m.preview != nil {
		if rendered := strings.TrimSpace(m.preview.Render()); rendered != "" {
			sections = append(sections, sectionStyle.Render("Preview"), rendered)
		}
	}

	if line := m.statusLine(); line != "" {
		sections = append(sections, line)
	}
	sections = append(sections, helpStyle.Render(m.help()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderSlots() string {
	if len(m.keys) == 0 {
		return ephemeralStyle.Render("no slots")
	}

	reg := m.ctrl.Registry()
	lines := make([]string, 0, len(m.keys))
	for i, key := range m.keys {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		value := m.values[key]
		rendered := valueStyle.Render(value)
		if target.IsHexColor(value) {
			rendered = lipgloss.NewStyle().Background(lipgloss.Color(value)).Render("  ") + " " + rendered
		}
		line := marker + keyStyle.Render(key) + rendered
		if def, ok := reg.Lookup(key); ok && !def.Persistent() {
			line += " " + ephemeralStyle.Render("(not saved)")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderEditor() string {
	def, _ := m.ctrl.Registry().Lookup(m.editing)
	header := fmt.Sprintf("Edit %s (%s)", m.editing, m.widgets.For(def).Kind)
	return modalStyle.Render(header + "\n" + m.input.View())
}

func (m Model) statusLine() string {
	switch {
	case m.errMsg != "":
		return errorStyle.Render(m.errMsg)
	case m.status != "":
		return statusStyle.Render(m.status)
	}
	if m.logs != nil {
		if entry, ok := m.logs.Last(logging.LevelWarn); ok {
			return errorStyle.Render(entry.String())
		}
	}
	return ""
}

func (m Model) help() string {
	if m.editing != "" {
		return "enter save • esc cancel"
	}
	return "↑/↓ move • enter edit • r reload • q quit"
}
