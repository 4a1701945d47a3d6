package target

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// IsHexColor reports whether value is a #rgb or #rrggbb color.
func IsHexColor(value string) bool {
	return hexColorPattern.MatchString(strings.TrimSpace(value))
}

// TerminalTheme applies custom properties to lipgloss styles so settings can
// be previewed in a terminal. Color values become swatches; anything else is
// shown as text.
type TerminalTheme struct {
	mu     sync.RWMutex
	values map[string]string
	colors map[string]lipgloss.Color

	labelStyle lipgloss.Style
	valueStyle lipgloss.Style
}

// NewTerminalTheme creates an empty theme.
func NewTerminalTheme() *TerminalTheme {
	return &TerminalTheme{
		values:     make(map[string]string),
		colors:     make(map[string]lipgloss.Color),
		labelStyle: lipgloss.NewStyle().Bold(true).Width(28),
		valueStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	}
}

// SetProperty implements ports.Target.
func (t *TerminalTheme) SetProperty(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[name] = value
	if IsHexColor(value) {
		t.colors[name] = lipgloss.Color(strings.TrimSpace(value))
		return
	}
	delete(t.colors, name)
}

// Color returns the lipgloss color held by name, if the value is a color.
func (t *TerminalTheme) Color(name string) (lipgloss.Color, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.colors[name]
	return c, ok
}

// Value returns the raw value held by name.
func (t *TerminalTheme) Value(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[name]
	return v, ok
}

// Style returns a style using name as background color, with a readable
// foreground picked from its luminance.
func (t *TerminalTheme) Style(name string) lipgloss.Style {
	c, ok := t.Color(name)
	if !ok {
		return lipgloss.NewStyle()
	}
	fg := lipgloss.Color("#000000")
	if isDark(string(c)) {
		fg = lipgloss.Color("#ffffff")
	}
	return lipgloss.NewStyle().Background(c).Foreground(fg)
}

// Swatch renders one property line.
func (t *TerminalTheme) Swatch(name string) string {
	value, _ := t.Value(name)
	block := "      "
	if _, ok := t.Color(name); ok {
		block = t.Style(name).Render("      ")
	}
	return fmt.Sprintf("%s %s %s", block, t.labelStyle.Render(name), t.valueStyle.Render(value))
}

// Render renders every property, sorted by name.
func (t *TerminalTheme) Render() string {
	t.mu.RLock()
	names := make([]string, 0, len(t.values))
	for name := range t.values {
		names = append(names, name)
	}
	t.mu.RUnlock()
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, t.Swatch(name))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func isDark(hex string) bool {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return false
	}
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		return false
	}
	// Rec. 601 luma
	luma := (299*r + 587*g + 114*b) / 1000
	return luma < 128
}
