package livesync

import (
	"context"
	"sort"
	"sync"

	"github.com/alexisbeaulieu97/designctl/internal/ports"
	"github.com/alexisbeaulieu97/designctl/internal/slots"
	"github.com/alexisbeaulieu97/designctl/internal/target"
)

// Controller owns the value store of one registry and keeps it in sync with a
// target and a persistence adapter. All methods are safe for concurrent use.
type Controller struct {
	adapter ports.Adapter
	opts    Options
	writes  *persistQueue

	// applyMu serializes target writes and hooks. It is taken before mu so
	// teardown can wait for an in-flight write without holding mu during
	// target or hook calls.
	applyMu sync.Mutex

	mu          sync.Mutex
	ctx         context.Context
	registry    *slots.Registry
	desc        target.Descriptor
	values      map[string]string
	state       State
	started     bool
	generation  uint64
	cancelRun   context.CancelFunc
	runFallback State
	bound       ports.Target
	unwatch     func()
	ready       chan struct{}
	readyClosed bool
	closed      chan struct{}

	subs    map[int]func(Change)
	nextSub int
	pending []Change

	notifyMu sync.Mutex
}

// New returns an Uninitialized controller whose values are the registry
// defaults. A nil adapter disables persistence entirely. Call Start to begin
// hydration.
func New(reg *slots.Registry, desc target.Descriptor, adapter ports.Adapter, opts Options) *Controller {
	if reg == nil {
		reg = slots.NewRegistry()
	}
	opts = opts.withDefaults()
	c := &Controller{
		adapter:  adapter,
		opts:     opts,
		ctx:      context.Background(),
		registry: reg,
		desc:     desc,
		values:   reg.Defaults(),
		state:    StateUninitialized,
		ready:    make(chan struct{}),
		closed:   make(chan struct{}),
		subs:     make(map[int]func(Change)),
	}
	c.writes = newPersistQueue(c.persist)
	return c
}

// Start performs the first evaluation. Hydration begins when the target
// resolves; for holder descriptors the controller retries whenever the
// holder's handle changes. Calling Start again re-evaluates an Uninitialized
// controller, which is how factory targets are retried. ctx scopes hydration
// work and log correlation and should outlive the controller.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.started {
		if ctx != nil {
			c.ctx = ctx
		}
		c.started = true
		c.watchLocked()
	}
	c.triggerLocked()
	c.mu.Unlock()
	return nil
}

// Values returns a copy of the value store.
func (c *Controller) Values() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyValues(c.values)
}

// Value returns the current value of key.
func (c *Controller) Value(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// Registry returns the registry the controller currently serves.
func (c *Controller) Registry() *slots.Registry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry
}

// State returns the hydration state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// WaitReady blocks until the controller is Ready, it is closed, or ctx ends.
func (c *Controller) WaitReady(ctx context.Context) error {
	c.mu.Lock()
	if c.readyClosed {
		c.mu.Unlock()
		return nil
	}
	if c.state == StateClosed {
		c.mu.Unlock()
		return ErrClosed
	}
	ready, closed := c.ready, c.closed
	c.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers fn for value store changes. Changes are delivered in
// the order they happened, never concurrently, and outside the controller
// lock, so fn may call back into the controller.
func (c *Controller) Subscribe(fn func(Change)) ports.Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return &subscription{controller: c, id: id}
}

type subscription struct {
	controller *Controller
	id         int
	once       sync.Once
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.controller.mu.Lock()
		delete(s.controller.subs, s.id)
		s.controller.mu.Unlock()
	})
}

// Reconfigure swaps the registry and target. Passing the current registry
// and a descriptor for which Same reports true is a no-op. Otherwise any
// in-flight hydration is discarded, values reset to the new defaults, the
// state returns to Uninitialized, and hydration is re-triggered if the
// controller was started.
func (c *Controller) Reconfigure(reg *slots.Registry, desc target.Descriptor) error {
	if reg == nil {
		reg = slots.NewRegistry()
	}

	c.applyMu.Lock()
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		c.applyMu.Unlock()
		return ErrClosed
	}
	if reg == c.registry && desc.Same(c.desc) {
		c.mu.Unlock()
		c.applyMu.Unlock()
		return nil
	}

	c.teardownLocked()
	c.registry = reg
	c.desc = desc
	c.values = reg.Defaults()
	c.setStateLocked(StateUninitialized)
	c.enqueueLocked(Change{Source: SourceReset})
	if c.started {
		c.watchLocked()
		c.triggerLocked()
	}
	ctx := c.ctx
	c.mu.Unlock()
	c.applyMu.Unlock()

	c.opts.Logger.Debug(ctx, "controller reconfigured", "slots", reg.Len(), "target", desc.Kind().String())
	c.dispatch()
	return nil
}

// Close discards in-flight hydration and stops accepting updates. It waits
// for a target write in progress, so the target is never written after Close
// returns. Writes already queued still reach the adapter; use Flush to wait
// for them.
func (c *Controller) Close() error {
	c.applyMu.Lock()
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		c.applyMu.Unlock()
		return nil
	}
	c.teardownLocked()
	c.setStateLocked(StateClosed)
	close(c.closed)
	c.mu.Unlock()
	c.applyMu.Unlock()

	c.writes.stop()
	return nil
}

// teardownLocked invalidates the current run and stops watching the target.
func (c *Controller) teardownLocked() {
	c.generation++
	if c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
	if c.unwatch != nil {
		c.unwatch()
		c.unwatch = nil
	}
	c.bound = nil
}

func (c *Controller) watchLocked() {
	if c.unwatch != nil {
		c.unwatch()
	}
	c.unwatch = c.desc.Watch(c.onTargetChanged)
}

// onTargetChanged reacts to a holder publishing a handle. A new handle
// while hydrating restarts the run; a new handle once Ready re-runs
// hydration against it. Clearing the holder leaves the state alone: the
// run in progress fails on its next write and the next handle retries.
func (c *Controller) onTargetChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}

	switch c.state {
	case StateUninitialized:
		c.triggerLocked()
	case StateHydrating, StateReady:
		t, ok := c.desc.Resolve()
		if !ok || target.SameHandle(t, c.bound) {
			return
		}
		fallback := StateReady
		if c.state == StateHydrating {
			fallback = c.runFallback
		}
		c.opts.Logger.Debug(c.ctx, "target replaced, hydrating again", "state", c.state.String())
		c.beginRunLocked(fallback)
	}
}

// setStateLocked changes state. Leaving Ready re-arms WaitReady; entering it
// does not release waiters until signalReadyLocked.
func (c *Controller) setStateLocked(s State) {
	c.state = s
	if s != StateReady && c.readyClosed {
		c.ready = make(chan struct{})
		c.readyClosed = false
	}
}

func (c *Controller) signalReadyLocked() {
	if c.state == StateReady && !c.readyClosed {
		close(c.ready)
		c.readyClosed = true
	}
}

func (c *Controller) enqueueLocked(change Change) {
	change.Values = copyValues(c.values)
	c.pending = append(c.pending, change)
}

// dispatch delivers pending changes. Only one goroutine delivers at a time;
// a caller that finds delivery in progress leaves its changes to it.
func (c *Controller) dispatch() {
	for {
		if !c.notifyMu.TryLock() {
			return
		}
		for {
			c.mu.Lock()
			batch := c.pending
			c.pending = nil
			subs := c.subscribersLocked()
			c.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, change := range batch {
				for _, fn := range subs {
					fn(change)
				}
			}
		}
		c.notifyMu.Unlock()

		c.mu.Lock()
		more := len(c.pending) > 0
		c.mu.Unlock()
		if !more {
			return
		}
	}
}

func (c *Controller) subscribersLocked() []func(Change) {
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		out = append(out, c.subs[id])
	}
	return out
}

func (c *Controller) publish(ctx context.Context, eventType string, fields map[string]interface{}) {
	if c.opts.Publisher == nil {
		return
	}
	if err := c.opts.Publisher.Publish(ctx, ports.Event{Type: eventType, Fields: fields}); err != nil {
		c.opts.Logger.Warn(ctx, "event publish failed", "event_type", eventType, "error", err)
	}
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
