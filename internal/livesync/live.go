package livesync

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexisbeaulieu97/designctl/internal/ports"
)

// SetValue applies a live update: the value store and the target change
// immediately, subscribers are notified, and the value is queued for storage
// when the slot has a storage key. Storage failures are logged and published
// but never rolled back. The returned errors are informational: ErrNotReady
// while hydrating (the update is dropped so it cannot be persisted from a
// stale baseline), ErrUnknownSlot for keys outside the registry, ErrClosed
// after Close.
func (c *Controller) SetValue(key, value string) error {
	c.applyMu.Lock()
	c.mu.Lock()
	ctx := c.ctx

	switch c.state {
	case StateReady:
	case StateClosed:
		c.mu.Unlock()
		c.applyMu.Unlock()
		return ErrClosed
	default:
		state := c.state
		c.mu.Unlock()
		c.applyMu.Unlock()
		c.opts.Logger.Warn(ctx, "update ignored: controller not ready", "slot", key, "state", state.String())
		return ErrNotReady
	}

	def, ok := c.registry.Lookup(key)
	if !ok {
		c.mu.Unlock()
		c.applyMu.Unlock()
		c.opts.Logger.Warn(ctx, "update ignored: unknown slot", "slot", key)
		return fmt.Errorf("%w: %q", ErrUnknownSlot, key)
	}

	c.values[key] = value
	desc := c.desc
	c.enqueueLocked(Change{Source: SourceUser, Key: key, Value: value})
	if def.Persistent() && c.adapter != nil {
		c.writes.push(persistJob{ctx: ctx, slot: key, storageKey: def.StorageKey, value: value})
	}
	c.mu.Unlock()

	if t, resolved := desc.Resolve(); resolved {
		c.apply(t, def, value)
	} else {
		c.opts.Logger.Debug(ctx, "update not applied: target not resolved", "slot", key)
	}
	c.applyMu.Unlock()

	c.publish(ctx, ports.EventSlotUpdated, map[string]interface{}{"slot": key, "value": value})
	c.dispatch()
	return nil
}

// Flush blocks until every queued storage write has been attempted or ctx
// ends.
func (c *Controller) Flush(ctx context.Context) error {
	return c.writes.wait(ctx)
}

func (c *Controller) persist(job persistJob) {
	ctx := job.ctx
	if err := c.adapter.SetItem(context.WithoutCancel(ctx), job.storageKey, job.value); err != nil {
		c.opts.Logger.Error(ctx, "slot write failed",
			"slot", job.slot, "storage_key", job.storageKey, "error", err)
		c.publish(ctx, ports.EventSlotPersistFailed, map[string]interface{}{
			"slot":        job.slot,
			"storage_key": job.storageKey,
			"error":       err.Error(),
		})
		return
	}
	c.opts.Logger.Debug(ctx, "slot persisted", "slot", job.slot, "storage_key", job.storageKey)
	c.publish(ctx, ports.EventSlotPersisted, map[string]interface{}{"slot": job.slot, "storage_key": job.storageKey})
}

type persistJob struct {
	ctx        context.Context
	slot       string
	storageKey string
	value      string
}

// persistQueue runs jobs one at a time in push order on a single goroutine.
type persistQueue struct {
	exec func(persistJob)

	mu         sync.Mutex
	cond       *sync.Cond
	items      []persistJob
	idle       chan struct{}
	idleClosed bool
	stopped    bool
}

func newPersistQueue(exec func(persistJob)) *persistQueue {
	q := &persistQueue{
		exec:       exec,
		idle:       make(chan struct{}),
		idleClosed: true,
	}
	close(q.idle)
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

func (q *persistQueue) push(job persistJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.items = append(q.items, job)
	if q.idleClosed {
		q.idle = make(chan struct{})
		q.idleClosed = false
	}
	q.cond.Signal()
}

func (q *persistQueue) run() {
	for {
		q.mu.Lock()
		for len(q.items) == 0 {
			if !q.idleClosed {
				close(q.idle)
				q.idleClosed = true
			}
			if q.stopped {
				q.mu.Unlock()
				return
			}
			q.cond.Wait()
		}
		job := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		q.exec(job)
	}
}

// wait blocks until the queue is empty and no job is running.
func (q *persistQueue) wait(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// stop lets the worker exit once the queued jobs are done.
func (q *persistQueue) stop() {
	q.mu.Lock()
	q.stopped = true
	q.cond.Broadcast()
	q.mu.Unlock()
}
