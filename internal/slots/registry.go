package slots

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-multierror"

	derrors "github.com/alexisbeaulieu97/designctl/pkg/errors"
)

// Registry is an immutable set of slot definitions keyed by slot key.
type Registry struct {
	slots       map[string]Definition
	keys        []string
	namespace   string
	category    string
	fingerprint uint64
	specPrint   uint64
	warnings    *multierror.Error
}

// NewRegistry builds a registry from explicit definitions. Invalid or
// duplicate definitions are skipped and reported through Warnings.
func NewRegistry(defs ...Definition) *Registry {
	b := newBuilder("", "")
	for _, def := range defs {
		if _, exists := b.slots[def.Key]; exists {
			b.reject(derrors.NewSlotError(def.Key, "key", "duplicate slot key", nil))
			continue
		}
		b.add(def)
	}
	return b.build(0)
}

// Len returns the number of slots.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Keys returns the slot keys in sorted order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// Lookup returns the definition for key.
func (r *Registry) Lookup(key string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	def, ok := r.slots[key]
	return def, ok
}

// Definitions returns every definition ordered by key.
func (r *Registry) Definitions() []Definition {
	if r == nil {
		return nil
	}
	out := make([]Definition, 0, len(r.keys))
	for _, key := range r.keys {
		out = append(out, r.slots[key])
	}
	return out
}

// Defaults returns a fresh key -> default value map.
func (r *Registry) Defaults() map[string]string {
	out := make(map[string]string, r.Len())
	if r == nil {
		return out
	}
	for key, def := range r.slots {
		out[key] = def.DefaultValue
	}
	return out
}

// Namespace returns the namespace the registry was resolved for, if any.
func (r *Registry) Namespace() string {
	if r == nil {
		return ""
	}
	return r.namespace
}

// Category returns the storage category label.
func (r *Registry) Category() string {
	if r == nil {
		return ""
	}
	return r.category
}

// Fingerprint is a content hash of the resolved definitions.
func (r *Registry) Fingerprint() uint64 {
	if r == nil {
		return 0
	}
	return r.fingerprint
}

// Warnings returns the slots rejected during resolution, or nil.
func (r *Registry) Warnings() error {
	if r == nil {
		return nil
	}
	return r.warnings.ErrorOrNil()
}

type builder struct {
	slots     map[string]Definition
	namespace string
	category  string
	warnings  *multierror.Error
}

func newBuilder(namespace, category string) *builder {
	return &builder{
		slots:     make(map[string]Definition),
		namespace: namespace,
		category:  category,
	}
}

// add keeps any earlier definition for the same key when def is invalid.
func (b *builder) add(def Definition) {
	if err := def.Validate(); err != nil {
		b.reject(err)
		return
	}
	b.slots[def.Key] = def
}

func (b *builder) reject(err error) {
	b.warnings = multierror.Append(b.warnings, err)
}

func (b *builder) build(specPrint uint64) *Registry {
	keys := make([]string, 0, len(b.slots))
	for key := range b.slots {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	h := xxhash.New()
	for _, key := range keys {
		def := b.slots[key]
		writeFields(h, def.Key, def.TargetProperty, def.DefaultValue, def.StorageKey, string(def.Widget))
	}

	return &Registry{
		slots:       b.slots,
		keys:        keys,
		namespace:   b.namespace,
		category:    b.category,
		fingerprint: h.Sum64(),
		specPrint:   specPrint,
		warnings:    b.warnings,
	}
}

// writeFields writes length-prefixed fields so adjacent values cannot collide.
func writeFields(h *xxhash.Digest, fields ...string) {
	for _, f := range fields {
		_, _ = h.WriteString(strconv.Itoa(len(f)))
		_, _ = h.WriteString(":")
		_, _ = h.WriteString(f)
	}
}

// String renders a short description, useful in logs.
func (r *Registry) String() string {
	if r == nil {
		return "registry(nil)"
	}
	return fmt.Sprintf("registry(%d slots, %016x)", len(r.keys), r.fingerprint)
}
