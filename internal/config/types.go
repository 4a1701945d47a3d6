package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexisbeaulieu97/designctl/internal/slots"
)

// Storage backends accepted in a document.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRemote = "remote"
)

// DefaultStorePath is used by the file backend when no path is configured.
const DefaultStorePath = "~/.designctl/settings.json"

// Document is a slot configuration document.
type Document struct {
	Version    string                      `yaml:"version" validate:"required,semver"`
	Namespace  string                      `yaml:"namespace,omitempty" validate:"omitempty,segment"`
	Category   string                      `yaml:"category,omitempty" validate:"omitempty,segment"`
	Convention ConventionConfig            `yaml:"convention,omitempty"`
	Baseline   map[string]string           `yaml:"baseline,omitempty"`
	Slots      map[string]slots.SlotConfig `yaml:"slots,omitempty"`
	Storage    StorageConfig               `yaml:"storage,omitempty"`
	Hydration  HydrationConfig             `yaml:"hydration,omitempty"`
}

// ConventionConfig controls how baseline keys map to target properties.
type ConventionConfig struct {
	Prefix string `yaml:"prefix,omitempty" validate:"omitempty,max=32"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend  string `yaml:"backend,omitempty" validate:"omitempty,oneof=file memory remote"`
	Path     string `yaml:"path,omitempty"`
	URL      string `yaml:"url,omitempty" validate:"omitempty,url"`
	CacheTTL string `yaml:"cache_ttl,omitempty" validate:"omitempty,duration"`
}

// HydrationConfig tunes the hydration engine.
type HydrationConfig struct {
	Concurrency int `yaml:"concurrency,omitempty" validate:"omitempty,min=1,max=64"`
}

// ApplyDefaults fills unset optional fields.
func (d *Document) ApplyDefaults() {
	if d.Category == "" {
		d.Category = slots.DefaultCategory
	}
	if d.Storage.Backend == "" {
		d.Storage.Backend = BackendFile
	}
	if d.Storage.Backend == BackendFile && d.Storage.Path == "" {
		d.Storage.Path = DefaultStorePath
	}
}

// Spec converts the document into resolver input.
func (d *Document) Spec() slots.Spec {
	return slots.Spec{
		Namespace:  d.Namespace,
		Category:   d.Category,
		Slots:      d.Slots,
		Baseline:   d.Baseline,
		Convention: slots.Convention{Prefix: d.Convention.Prefix},
	}
}

// CacheTTLDuration returns the parsed cache TTL, or zero when unset.
func (s StorageConfig) CacheTTLDuration() time.Duration {
	if s.CacheTTL == "" {
		return 0
	}
	d, err := time.ParseDuration(s.CacheTTL)
	if err != nil {
		return 0
	}
	return d
}

// ResolvedPath expands a leading "~" in the file backend path.
func (s StorageConfig) ResolvedPath() (string, error) {
	return ExpandHome(s.Path)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
