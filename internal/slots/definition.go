package slots

import (
	"regexp"
	"strings"
	"unicode"
)

// WidgetKind names the editor variant used to present a slot.
type WidgetKind string

const (
	WidgetColor WidgetKind = "color"
	WidgetFont  WidgetKind = "font"
	WidgetSize  WidgetKind = "size"
	WidgetText  WidgetKind = "text"
)

// WidgetKinds lists every supported widget kind.
var WidgetKinds = []WidgetKind{WidgetColor, WidgetFont, WidgetSize, WidgetText}

// Valid reports whether k is a known widget kind.
func (k WidgetKind) Valid() bool {
	for _, known := range WidgetKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Definition is the canonical description of one slot.
type Definition struct {
	Key            string     `validate:"required"`
	TargetProperty string     `validate:"required,css_property"`
	DefaultValue   string     `validate:"max=1024"`
	StorageKey     string     `validate:"max=512"`
	Widget         WidgetKind `validate:"required,widget_kind"`
}

// Persistent reports whether the slot has a storage key.
func (d Definition) Persistent() bool {
	return d.StorageKey != ""
}

// SlotConfig is the caller-supplied shape of an explicit slot.
type SlotConfig struct {
	TargetProperty string `yaml:"target_property" json:"target_property"`
	DefaultValue   string `yaml:"default" json:"default"`
	StorageKey     string `yaml:"storage_key,omitempty" json:"storage_key,omitempty"`
	Widget         string `yaml:"widget,omitempty" json:"widget,omitempty"`
}

var targetPropertyPattern = regexp.MustCompile(`^--[A-Za-z0-9_-]+$`)

// ValidTargetProperty reports whether name follows the custom property
// convention: a leading "--" followed by letters, digits, '-' or '_'.
func ValidTargetProperty(name string) bool {
	return targetPropertyPattern.MatchString(name)
}

// Convention derives target property names from slot keys.
type Convention struct {
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
}

// Property returns the target property for key, e.g. "primaryColor" becomes
// "--primary-color", or "--color-primary" with Prefix "color".
func (c Convention) Property(key string) string {
	prefix := kebab(c.Prefix)
	if prefix != "" {
		prefix += "-"
	}
	return "--" + prefix + kebab(key)
}

func kebab(s string) string {
	var b strings.Builder
	runes := []rune(strings.TrimSpace(s))
	for i, r := range runes {
		switch {
		case r == '_' || r == ' ' || r == '.' || r == '-':
			b.WriteRune('-')
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				if unicode.IsLower(prev) || unicode.IsDigit(prev) {
					b.WriteRune('-')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, "-")
}

// inferWidget guesses an editor kind for baseline-derived slots.
func inferWidget(category, key, value string) WidgetKind {
	lowerKey := strings.ToLower(key)
	lowerCategory := strings.ToLower(category)
	v := strings.TrimSpace(strings.ToLower(value))
	isSize := strings.HasSuffix(v, "px") || strings.HasSuffix(v, "rem") || strings.HasSuffix(v, "em") ||
		strings.Contains(lowerKey, "size") || strings.Contains(lowerKey, "radius") || strings.Contains(lowerKey, "spacing")
	switch {
	case strings.HasPrefix(v, "#") || strings.HasPrefix(v, "rgb") || strings.HasPrefix(v, "hsl"):
		return WidgetColor
	case isSize:
		return WidgetSize
	case strings.Contains(lowerCategory, "font") || strings.Contains(lowerKey, "font"):
		return WidgetFont
	case strings.Contains(lowerCategory, "color") || strings.Contains(lowerKey, "color"):
		return WidgetColor
	default:
		return WidgetText
	}
}
