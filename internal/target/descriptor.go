// Package target describes what settings are applied to and provides the
// concrete targets used by designctl.
package target

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/alexisbeaulieu97/designctl/internal/ports"
)

// Kind tags the variant held by a Descriptor.
type Kind int

const (
	KindNone Kind = iota
	KindDirect
	KindFactory
	KindHolder
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindFactory:
		return "factory"
	case KindHolder:
		return "holder"
	default:
		return "none"
	}
}

var descriptorIDs atomic.Uint64

// Descriptor is a tagged reference to a target: a direct handle, a factory
// invoked on every resolution, or a Ref whose handle appears later.
// Descriptors compare by identity through Same.
type Descriptor struct {
	id      uint64
	kind    Kind
	direct  ports.Target
	factory func() ports.Target
	holder  *Ref
}

// Direct wraps an existing handle.
func Direct(t ports.Target) Descriptor {
	return Descriptor{id: descriptorIDs.Add(1), kind: KindDirect, direct: t}
}

// Factory wraps a function returning the current handle, or nil when none
// exists yet. fn may be called while the controller holds its state lock and
// must not call back into the controller.
func Factory(fn func() ports.Target) Descriptor {
	return Descriptor{id: descriptorIDs.Add(1), kind: KindFactory, factory: fn}
}

// Holder wraps a Ref populated asynchronously by the target's owner.
func Holder(ref *Ref) Descriptor {
	return Descriptor{id: descriptorIDs.Add(1), kind: KindHolder, holder: ref}
}

// Kind returns the variant tag.
func (d Descriptor) Kind() Kind {
	return d.kind
}

// Same reports whether d and o were produced by the same constructor call.
func (d Descriptor) Same(o Descriptor) bool {
	return d.id == o.id
}

// Resolve returns the concrete handle. It is evaluated afresh on every call.
func (d Descriptor) Resolve() (ports.Target, bool) {
	var t ports.Target
	switch d.kind {
	case KindDirect:
		t = d.direct
	case KindFactory:
		if d.factory != nil {
			t = d.factory()
		}
	case KindHolder:
		if d.holder != nil {
			t = d.holder.Current()
		}
	}
	return t, t != nil
}

// Watch registers fn to run whenever a holder's handle changes. For other
// variants it is a no-op. The returned function removes the watcher.
func (d Descriptor) Watch(fn func()) func() {
	if d.kind != KindHolder || d.holder == nil || fn == nil {
		return func() {}
	}
	return d.holder.watch(fn)
}

// SameHandle reports whether a and b are the same handle. Handles of
// non-comparable types are never the same.
func SameHandle(a, b ports.Target) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// Ref holds a handle that becomes available after construction, the way an
// element reference is populated once its owner mounts.
type Ref struct {
	mu       sync.RWMutex
	current  ports.Target
	watchers map[int]func()
	nextID   int
}

// NewRef returns an empty Ref.
func NewRef() *Ref {
	return &Ref{watchers: make(map[int]func())}
}

// Current returns the held handle, or nil.
func (r *Ref) Current() ports.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Set stores t and notifies watchers. Watchers run on the caller's goroutine
// after the lock is released.
func (r *Ref) Set(t ports.Target) {
	r.mu.Lock()
	r.current = t
	watchers := make([]func(), 0, len(r.watchers))
	for _, fn := range r.watchers {
		watchers = append(watchers, fn)
	}
	r.mu.Unlock()

	for _, fn := range watchers {
		fn()
	}
}

// Clear drops the held handle.
func (r *Ref) Clear() {
	r.Set(nil)
}

func (r *Ref) watch(fn func()) func() {
	r.mu.Lock()
	if r.watchers == nil {
		r.watchers = make(map[int]func())
	}
	r.nextID++
	id := r.nextID
	r.watchers[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.watchers, id)
		r.mu.Unlock()
	}
}
