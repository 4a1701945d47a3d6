package slots

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/alexisbeaulieu97/designctl/internal/ports"
)

// DefaultCategory is used when a Spec names no category.
const DefaultCategory = "settings"

// Spec is the input to registry resolution.
type Spec struct {
	// Namespace scopes storage keys, typically a profile or session id.
	// Empty disables persistence for every slot without an explicit key.
	Namespace string
	// Category is the base label of storage keys (colors, fonts, ...).
	Category string
	// Slots are explicit definitions; they win over Baseline entries.
	Slots map[string]SlotConfig
	// Baseline maps slot keys to default values for derived slots.
	Baseline   map[string]string
	Convention Convention
}

func (s Spec) category() string {
	if s.Category == "" {
		return DefaultCategory
	}
	return s.Category
}

// StorageKey returns the effective storage key for a slot key, or "" when
// Namespace is empty.
func (s Spec) StorageKey(key string) string {
	if s.Namespace == "" {
		return ""
	}
	return s.Namespace + "/" + s.category() + "/" + key
}

// Fingerprint hashes the resolver input. Equal inputs hash equally regardless
// of map iteration order.
func (s Spec) Fingerprint() uint64 {
	h := xxhash.New()
	writeFields(h, s.Namespace, s.category(), s.Convention.Prefix)

	baseline := sortedKeys(s.Baseline)
	writeFields(h, "baseline")
	for _, key := range baseline {
		writeFields(h, key, s.Baseline[key])
	}

	explicit := make([]string, 0, len(s.Slots))
	for key := range s.Slots {
		explicit = append(explicit, key)
	}
	sort.Strings(explicit)
	writeFields(h, "slots")
	for _, key := range explicit {
		cfg := s.Slots[key]
		writeFields(h, key, cfg.TargetProperty, cfg.DefaultValue, cfg.StorageKey, cfg.Widget)
	}
	return h.Sum64()
}

// Resolve builds a Registry from spec. It never fails: invalid slots are
// dropped and reported through Registry.Warnings.
func Resolve(spec Spec) *Registry {
	b := newBuilder(spec.Namespace, spec.category())

	for _, key := range sortedKeys(spec.Baseline) {
		value := spec.Baseline[key]
		b.add(Definition{
			Key:            key,
			TargetProperty: spec.Convention.Property(key),
			DefaultValue:   value,
			StorageKey:     spec.StorageKey(key),
			Widget:         inferWidget(spec.Category, key, value),
		})
	}

	explicit := make([]string, 0, len(spec.Slots))
	for key := range spec.Slots {
		explicit = append(explicit, key)
	}
	sort.Strings(explicit)

	for _, key := range explicit {
		cfg := spec.Slots[key]
		def := Definition{
			Key:            key,
			TargetProperty: cfg.TargetProperty,
			DefaultValue:   cfg.DefaultValue,
			StorageKey:     cfg.StorageKey,
			Widget:         WidgetKind(cfg.Widget),
		}
		if def.TargetProperty == "" {
			def.TargetProperty = spec.Convention.Property(key)
		}
		if def.StorageKey == "" {
			def.StorageKey = spec.StorageKey(key)
		}
		if def.Widget == "" {
			def.Widget = inferWidget(spec.Category, key, cfg.DefaultValue)
		}
		b.add(def)
	}

	return b.build(spec.Fingerprint())
}

// Resolver memoizes Resolve so unchanged input yields the identical
// *Registry. Only the most recent registry is retained.
type Resolver struct {
	mu     sync.Mutex
	last   *Registry
	logger ports.Logger
}

// NewResolver creates a memoizing resolver. logger may be nil.
func NewResolver(logger ports.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// Resolve returns the cached registry when spec is unchanged since the last
// call, otherwise resolves it afresh and logs each rejected slot.
func (r *Resolver) Resolve(ctx context.Context, spec Spec) *Registry {
	fp := spec.Fingerprint()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last != nil && r.last.specPrint == fp {
		return r.last
	}

	reg := Resolve(spec)
	r.last = reg

	if r.logger != nil {
		var merr *multierror.Error
		if errors.As(reg.Warnings(), &merr) {
			for _, err := range merr.Errors {
				r.logger.Warn(ctx, "slot rejected", "namespace", spec.Namespace, "error", err)
			}
		}
		r.logger.Debug(ctx, "registry resolved", "namespace", spec.Namespace, "slots", reg.Len())
	}
	return reg
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
