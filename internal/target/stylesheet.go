package target

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// StyleSheet is a custom property declaration block, the CSS equivalent of
// an element's inline style. It also records external stylesheets requested
// through LoadStylesheet.
type StyleSheet struct {
	mu          sync.RWMutex
	selector    string
	props       map[string]string
	stylesheets []string
	loaded      map[string]struct{}
}

// NewStyleSheet creates an empty block for selector (":root" when empty).
func NewStyleSheet(selector string) *StyleSheet {
	if strings.TrimSpace(selector) == "" {
		selector = ":root"
	}
	return &StyleSheet{
		selector: selector,
		props:    make(map[string]string),
		loaded:   make(map[string]struct{}),
	}
}

// SetProperty implements ports.Target.
func (s *StyleSheet) SetProperty(name, value string) {
	s.mu.Lock()
	s.props[name] = value
	s.mu.Unlock()
}

// LoadStylesheet implements ports.ResourceLoader. Repeated URLs are ignored.
func (s *StyleSheet) LoadStylesheet(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.loaded[url]; ok {
		return
	}
	s.loaded[url] = struct{}{}
	s.stylesheets = append(s.stylesheets, url)
}

// Property returns the current value of name.
func (s *StyleSheet) Property(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.props[name]
	return v, ok
}

// Properties returns a copy of every declared property.
func (s *StyleSheet) Properties() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.props))
	for k, v := range s.props {
		out[k] = v
	}
	return out
}

// Stylesheets returns the loaded external stylesheet URLs in load order.
func (s *StyleSheet) Stylesheets() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.stylesheets...)
}

// CSS renders @import rules followed by the declaration block, with
// properties sorted by name.
func (s *StyleSheet) CSS() string {
	var b strings.Builder
	_, _ = s.WriteTo(&b)
	return b.String()
}

// WriteTo implements io.WriterTo.
func (s *StyleSheet) WriteTo(w io.Writer) (int64, error) {
	s.mu.RLock()
	names := make([]string, 0, len(s.props))
	for name := range s.props {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, url := range s.stylesheets {
		fmt.Fprintf(&b, "@import url(%q);\n", url)
	}
	if len(s.stylesheets) > 0 {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%s {\n", s.selector)
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %s;\n", name, s.props[name])
	}
	b.WriteString("}\n")
	s.mu.RUnlock()

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
