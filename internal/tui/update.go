package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/designctl/internal/livesync"
	"github.com/alexisbeaulieu97/designctl/internal/tui/modal"
)

// Update handles Bubbletea messages and updates model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ChangeMsg:
		m.applyChange(msg.Change)
		return m, m.feed.next()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m.quit()
		}
		if m.editing != "" {
			return m.handleEditKey(msg)
		}
		return m.handleListKey(msg)
	}
	return m, nil
}

func (m *Model) applyChange(change livesync.Change) {
	m.values = change.Values
	m.state = m.ctrl.State()
	if change.Source == livesync.SourceReset {
		m.keys = m.ctrl.Registry().Keys()
		if m.editing != "" {
			m.closeEditor()
		}
	}
	if m.cursor >= len(m.keys) {
		m.cursor = max(len(m.keys)-1, 0)
	}
	if change.Source == livesync.SourceHydration {
		m.status = "settings loaded"
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.keys)-1 {
			m.cursor++
		}
	case "enter", "e":
		return m.openEditor()
	case "r":
		m.errMsg = ""
		if err := m.reload(m.ctx); err != nil {
			m.errMsg = fmt.Sprintf("reload unavailable: %v", err)
			return m, nil
		}
		m.state = m.ctrl.State()
		m.status = "reloading settings"
		return m, m.spinner.Tick
	}
	return m, nil
}

func (m Model) openEditor() (tea.Model, tea.Cmd) {
	key, ok := m.Selected()
	if !ok {
		return m, nil
	}
	if m.state != livesync.StateReady {
		m.errMsg = "settings are still loading"
		return m, nil
	}
	if err := m.modals.Open(editModalID(key)); err != nil {
		if errors.Is(err, modal.ErrModalActive) {
			m.errMsg = "close the open dialog first"
		} else {
			m.errMsg = err.Error()
		}
		return m, nil
	}

	def, _ := m.ctrl.Registry().Lookup(key)
	w := m.widgets.For(def)

	input := textinput.New()
	input.Placeholder = w.Placeholder
	input.CharLimit = w.CharLimit
	input.SetValue(m.values[key])
	input.Focus()

	m.input = input
	m.editing = key
	m.errMsg = ""
	m.status = ""
	return m, textinput.Blink
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeEditor()
		m.status = "edit cancelled"
		return m, nil
	case tea.KeyEnter:
		return m.commitEdit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) commitEdit() (tea.Model, tea.Cmd) {
	key := m.editing
	value := m.input.Value()
	def, _ := m.ctrl.Registry().Lookup(key)

	if err := m.widgets.For(def).Validate(value); err != nil {
		m.errMsg = err.Error()
		return m, nil
	}
	if err := m.ctrl.SetValue(key, value); err != nil {
		m.errMsg = fmt.Sprintf("update rejected: %v", err)
		return m, nil
	}

	m.values = m.ctrl.Values()
	m.closeEditor()
	m.errMsg = ""
	m.status = fmt.Sprintf("%s updated", key)
	return m, nil
}

func (m *Model) closeEditor() {
	m.modals.Close(editModalID(m.editing))
	m.editing = ""
	m.input.Blur()
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.editing != "" {
		m.closeEditor()
	}
	m.quitting = true
	return m, tea.Quit
}

func editModalID(key string) string {
	return "edit:" + key
}
