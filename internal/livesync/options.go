package livesync

import (
	"github.com/alexisbeaulieu97/designctl/internal/logger"
	"github.com/alexisbeaulieu97/designctl/internal/ports"
	"github.com/alexisbeaulieu97/designctl/internal/slots"
)

// DefaultConcurrency bounds parallel adapter reads during hydration.
const DefaultConcurrency = 8

// Hook runs after a value has been written to the target, both during
// hydration and for live updates. Calls are serialized and run without the
// controller's state lock, so AfterApply may read Values, Value, State and
// Registry. It must not call SetValue, Reconfigure or Close, which wait for
// the write in progress.
type Hook interface {
	AfterApply(def slots.Definition, value string, t ports.Target)
}

// HookFunc adapts a function to Hook.
type HookFunc func(def slots.Definition, value string, t ports.Target)

// AfterApply implements Hook.
func (f HookFunc) AfterApply(def slots.Definition, value string, t ports.Target) {
	f(def, value, t)
}

// Options configures a Controller. The zero value is usable.
type Options struct {
	Logger      ports.Logger
	Publisher   ports.EventPublisher
	Hook        Hook
	Concurrency int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.Discard()
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}
