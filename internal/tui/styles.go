package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).MarginTop(1)

	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	keyStyle       = lipgloss.NewStyle().Width(24)
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	ephemeralStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true).MarginTop(1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1).
			MarginTop(1)
)
