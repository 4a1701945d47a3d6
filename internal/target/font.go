package target

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/alexisbeaulieu97/designctl/internal/ports"
	"github.com/alexisbeaulieu97/designctl/internal/slots"
)

// DefaultFontCSSBase is the Google Fonts css2 endpoint.
const DefaultFontCSSBase = "https://fonts.googleapis.com/css2"

var genericFamilies = map[string]struct{}{
	"serif": {}, "sans-serif": {}, "monospace": {}, "cursive": {}, "fantasy": {},
	"system-ui": {}, "ui-serif": {}, "ui-sans-serif": {}, "ui-monospace": {},
	"ui-rounded": {}, "emoji": {}, "math": {}, "fangsong": {}, "inherit": {}, "initial": {},
}

// FontHook loads the stylesheet of the primary family of every font slot
// after it is applied. Targets without ports.ResourceLoader are skipped.
type FontHook struct {
	BaseURL string
	Weights []int
}

// NewFontHook returns a hook requesting weights 400, 500 and 700.
func NewFontHook() *FontHook {
	return &FontHook{BaseURL: DefaultFontCSSBase, Weights: []int{400, 500, 700}}
}

// AfterApply implements the sync core's post-apply hook.
func (h *FontHook) AfterApply(def slots.Definition, value string, t ports.Target) {
	if def.Widget != slots.WidgetFont {
		return
	}
	loader, ok := t.(ports.ResourceLoader)
	if !ok {
		return
	}
	family := PrimaryFamily(value)
	if family == "" {
		return
	}
	loader.LoadStylesheet(h.URL(family))
}

// URL builds the stylesheet URL for family.
func (h *FontHook) URL(family string) string {
	base := h.BaseURL
	if base == "" {
		base = DefaultFontCSSBase
	}
	spec := strings.ReplaceAll(url.QueryEscape(family), "%20", "+")
	if len(h.Weights) > 0 {
		weights := make([]string, 0, len(h.Weights))
		for _, w := range h.Weights {
			weights = append(weights, strconv.Itoa(w))
		}
		spec += ":wght@" + strings.Join(weights, ";")
	}
	return base + "?family=" + spec + "&display=swap"
}

// PrimaryFamily extracts the first non-generic family from a font-family
// value, e.g. `"Fira Code", monospace` yields "Fira Code".
func PrimaryFamily(value string) string {
	for _, part := range strings.Split(value, ",") {
		family := strings.Trim(strings.TrimSpace(part), `"'`)
		if family == "" {
			continue
		}
		if _, generic := genericFamilies[strings.ToLower(family)]; generic {
			continue
		}
		return family
	}
	return ""
}
