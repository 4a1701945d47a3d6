// Package widget maps slot widget names to the closed set of editor
// variants.
package widget

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alexisbeaulieu97/designctl/internal/slots"
	"github.com/alexisbeaulieu97/designctl/internal/target"
)

// ErrUnknownWidget is returned for widget names outside the registry.
var ErrUnknownWidget = errors.New("unknown widget")

// Kind is one editor variant.
type Kind int

const (
	KindText Kind = iota
	KindColor
	KindFont
	KindSize
)

func (k Kind) String() string {
	switch k {
	case KindColor:
		return "color"
	case KindFont:
		return "font"
	case KindSize:
		return "size"
	default:
		return "text"
	}
}

// Widget describes how a slot value is edited and checked.
type Widget struct {
	Kind        Kind
	Placeholder string
	CharLimit   int

	validate func(string) error
}

// Validate reports whether value is acceptable input for the widget.
func (w Widget) Validate(value string) error {
	if w.validate == nil {
		return nil
	}
	return w.validate(value)
}

// Registry resolves widget names to widgets.
type Registry struct {
	widgets map[string]Widget
}

var sizePattern = regexp.MustCompile(`^-?[0-9]*\.?[0-9]+(px|rem|em|%|vh|vw|pt)?$`)

// NewRegistry returns a registry holding every built-in widget.
func NewRegistry() *Registry {
	return &Registry{widgets: map[string]Widget{
		string(slots.WidgetText): {Kind: KindText, Placeholder: "value", CharLimit: 1024},
		string(slots.WidgetColor): {Kind: KindColor, Placeholder: "#rrggbb", CharLimit: 7, validate: func(v string) error {
			if !target.IsHexColor(v) {
				return fmt.Errorf("%q is not a hex color", v)
			}
			return nil
		}},
		string(slots.WidgetFont): {Kind: KindFont, Placeholder: "Inter, sans-serif", CharLimit: 256, validate: func(v string) error {
			if strings.Trim(strings.TrimSpace(v), `,"'`) == "" {
				return fmt.Errorf("font family is empty")
			}
			return nil
		}},
		string(slots.WidgetSize): {Kind: KindSize, Placeholder: "16px", CharLimit: 32, validate: func(v string) error {
			if !sizePattern.MatchString(strings.TrimSpace(v)) {
				return fmt.Errorf("%q is not a size", v)
			}
			return nil
		}},
	}}
}

// Lookup returns the widget registered under name.
func (r *Registry) Lookup(name string) (Widget, error) {
	w, ok := r.widgets[name]
	if !ok {
		return Widget{}, fmt.Errorf("%w: %q", ErrUnknownWidget, name)
	}
	return w, nil
}

// For returns the widget of def, falling back to the text widget.
func (r *Registry) For(def slots.Definition) Widget {
	w, err := r.Lookup(string(def.Widget))
	if err != nil {
		return r.widgets[string(slots.WidgetText)]
	}
	return w
}
