package livesync

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/alexisbeaulieu97/designctl/internal/ports"
	"github.com/alexisbeaulieu97/designctl/internal/slots"
)

// Reinitialize re-runs hydration against the current registry and target,
// e.g. after the storage backend became reachable. Values stay visible during
// the run and are replaced in one step when it completes. Live updates are
// rejected until then.
func (c *Controller) Reinitialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateClosed:
		return ErrClosed
	case StateReady:
	default:
		c.opts.Logger.Warn(ctx, "reinitialize ignored", "state", c.state.String())
		return ErrNotReady
	}

	if _, ok := c.desc.Resolve(); !ok {
		c.opts.Logger.Debug(ctx, "reinitialize skipped: target not resolved")
		return nil
	}
	c.beginRunLocked(StateReady)
	return nil
}

// triggerLocked starts the initial hydration if the target resolves.
func (c *Controller) triggerLocked() {
	if c.state != StateUninitialized {
		return
	}
	if _, ok := c.desc.Resolve(); !ok {
		c.opts.Logger.Debug(c.ctx, "hydration deferred: target not resolved", "target", c.desc.Kind().String())
		return
	}
	c.beginRunLocked(StateUninitialized)
}

// beginRunLocked starts a new generation bound to the handle the descriptor
// currently resolves to. fallback is the state restored if the run ends
// without completing.
func (c *Controller) beginRunLocked(fallback State) {
	c.generation++
	if c.cancelRun != nil {
		c.cancelRun()
	}
	runCtx, cancel := context.WithCancel(c.ctx)
	c.cancelRun = cancel
	c.runFallback = fallback
	c.bound, _ = c.desc.Resolve()
	c.setStateLocked(StateHydrating)

	go c.hydrate(runCtx, c.generation, c.registry, fallback)
}

func (c *Controller) hydrate(ctx context.Context, gen uint64, reg *slots.Registry, fallback State) {
	logger := c.opts.Logger.With("generation", gen)
	defs := reg.Definitions()

	logger.Debug(ctx, "hydration started", "slots", len(defs))
	c.publish(ctx, ports.EventHydrationStarted, map[string]interface{}{"slots": len(defs), "generation": gen})

	results := make([]string, len(defs))
	// Reads start once queued live updates are stored, so a re-run never
	// reads a value older than the one the user last set.
	err := c.writes.wait(ctx)
	if err == nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.opts.Concurrency)
		for i, def := range defs {
			g.Go(func() error {
				value, ok := c.read(gctx, def)
				if !ok {
					return errStaleRun
				}
				results[i] = value
				return c.applyHydrated(gen, def, value)
			})
		}
		err = g.Wait()
	}

	c.mu.Lock()
	if c.generation != gen {
		c.mu.Unlock()
		logger.Debug(ctx, "hydration discarded")
		c.publish(ctx, ports.EventHydrationCancelled, map[string]interface{}{"generation": gen})
		return
	}
	c.cancelRun()
	c.cancelRun = nil
	if err != nil {
		// The target went away mid-run. Retry on the next trigger.
		c.setStateLocked(fallback)
		c.signalReadyLocked()
		c.mu.Unlock()
		logger.Debug(ctx, "hydration incomplete", "error", err)
		return
	}

	values := make(map[string]string, len(defs))
	for i, def := range defs {
		values[def.Key] = results[i]
	}
	c.values = values
	c.setStateLocked(StateReady)
	c.enqueueLocked(Change{Source: SourceHydration})
	c.mu.Unlock()

	logger.Info(ctx, "hydration completed", "slots", len(defs))
	c.publish(ctx, ports.EventHydrationCompleted, map[string]interface{}{"slots": len(defs), "generation": gen})
	c.dispatch()

	// Waiters are released only after subscribers saw the new values.
	c.mu.Lock()
	if c.generation == gen {
		c.signalReadyLocked()
	}
	c.mu.Unlock()
}

// read resolves one slot's value. ok is false only when the run was
// cancelled; every other failure falls back to the default.
func (c *Controller) read(ctx context.Context, def slots.Definition) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	if !def.Persistent() || c.adapter == nil {
		return def.DefaultValue, true
	}

	value, found, err := c.adapter.GetItem(ctx, def.StorageKey)
	if ctx.Err() != nil {
		return "", false
	}
	switch {
	case err != nil:
		c.opts.Logger.Error(ctx, "slot read failed, using default",
			"slot", def.Key, "storage_key", def.StorageKey, "error", err)
		c.publish(ctx, ports.EventSlotFallback, map[string]interface{}{"slot": def.Key, "reason": "error"})
		return def.DefaultValue, true
	case !found:
		c.opts.Logger.Debug(ctx, "no persisted value, using default", "slot", def.Key, "storage_key", def.StorageKey)
		c.publish(ctx, ports.EventSlotFallback, map[string]interface{}{"slot": def.Key, "reason": "missing"})
		return def.DefaultValue, true
	default:
		return value, true
	}
}

// applyHydrated writes one resolved value to the target if gen is still
// current. The descriptor, target and hook run outside mu.
func (c *Controller) applyHydrated(gen uint64, def slots.Definition, value string) error {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	current := c.generation == gen
	desc := c.desc
	c.mu.Unlock()
	if !current {
		return errStaleRun
	}
	t, ok := desc.Resolve()
	if !ok {
		return errTargetLost
	}
	c.apply(t, def, value)
	return nil
}

// apply writes value to t and runs the hook. Callers hold applyMu.
func (c *Controller) apply(t ports.Target, def slots.Definition, value string) {
	t.SetProperty(def.TargetProperty, value)
	if c.opts.Hook != nil {
		c.opts.Hook.AfterApply(def, value, t)
	}
}
