package livesync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/designctl/internal/infrastructure/events"
	"github.com/alexisbeaulieu97/designctl/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/designctl/internal/logger"
	"github.com/alexisbeaulieu97/designctl/internal/ports"
	"github.com/alexisbeaulieu97/designctl/internal/slots"
)

const waitTimeout = 2 * time.Second

type propertyWrite struct {
	Name  string
	Value string
}

// spyTarget records every property write.
type spyTarget struct {
	mu     sync.Mutex
	writes []propertyWrite
}

func (s *spyTarget) SetProperty(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, propertyWrite{Name: name, Value: value})
}

func (s *spyTarget) Writes() []propertyWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]propertyWrite(nil), s.writes...)
}

func (s *spyTarget) Property(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.writes) - 1; i >= 0; i-- {
		if s.writes[i].Name == name {
			return s.writes[i].Value, true
		}
	}
	return "", false
}

// spyAdapter is an in-memory adapter that records calls, can fail, and can
// hold reads on a gate. With ignoreCancel set, gated reads wait for the gate
// even after their context ends, like a backend that does not honour
// cancellation.
type spyAdapter struct {
	mu           sync.Mutex
	items        map[string]string
	gets         []string
	sets         []propertyWrite
	getErr       error
	setErr       error
	gates        map[string]chan struct{}
	setGates     map[string]chan struct{}
	ignoreCancel bool
	entered      chan string
}

func newSpyAdapter(items map[string]string) *spyAdapter {
	if items == nil {
		items = map[string]string{}
	}
	return &spyAdapter{
		items:    items,
		gates:    map[string]chan struct{}{},
		setGates: map[string]chan struct{}{},
		entered:  make(chan string, 64),
	}
}

// gate blocks reads of key until the returned function is called.
func (a *spyAdapter) gate(key string) func() {
	ch := make(chan struct{})
	a.mu.Lock()
	a.gates[key] = ch
	a.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (a *spyAdapter) GetItem(ctx context.Context, key string) (string, bool, error) {
	a.mu.Lock()
	a.gets = append(a.gets, key)
	gate := a.gates[key]
	a.mu.Unlock()

	select {
	case a.entered <- key:
	default:
	}
	if gate != nil {
		if a.ignoreCancel {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return "", false, ctx.Err()
			}
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.getErr != nil {
		return "", false, a.getErr
	}
	v, ok := a.items[key]
	return v, ok, nil
}

// gateSet blocks writes of key until the returned function is called.
func (a *spyAdapter) gateSet(key string) func() {
	ch := make(chan struct{})
	a.mu.Lock()
	a.setGates[key] = ch
	a.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (a *spyAdapter) SetItem(_ context.Context, key, value string) error {
	a.mu.Lock()
	gate := a.setGates[key]
	a.mu.Unlock()
	if gate != nil {
		<-gate
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.sets = append(a.sets, propertyWrite{Name: key, Value: value})
	if a.setErr != nil {
		return a.setErr
	}
	a.items[key] = value
	return nil
}

func (a *spyAdapter) Put(key, value string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.items[key] = value
}

func (a *spyAdapter) Gets() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.gets...)
}

func (a *spyAdapter) Sets() []propertyWrite {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]propertyWrite(nil), a.sets...)
}

func (a *spyAdapter) waitEntered(t *testing.T, key string) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case got := <-a.entered:
			if got == key {
				return
			}
		case <-deadline:
			t.Fatalf("read of %q never started", key)
		}
	}
}

// eventRecorder collects published events by type.
type eventRecorder struct {
	publisher *events.LoggingPublisher
	mu        sync.Mutex
	seen      map[string]int
	signal    chan string
}

func newEventRecorder(t *testing.T, types ...string) *eventRecorder {
	t.Helper()
	r := &eventRecorder{
		publisher: events.NewLoggingPublisher(logger.Discard()),
		seen:      map[string]int{},
		signal:    make(chan string, 256),
	}
	for _, typ := range types {
		_, err := r.publisher.Subscribe(typ, func(_ context.Context, ev ports.DomainEvent) error {
			r.mu.Lock()
			r.seen[ev.EventType()]++
			r.mu.Unlock()
			select {
			case r.signal <- ev.EventType():
			default:
			}
			return nil
		})
		require.NoError(t, err)
	}
	return r
}

func (r *eventRecorder) Count(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[typ]
}

func (r *eventRecorder) waitFor(t *testing.T, typ string) {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case got := <-r.signal:
			if got == typ {
				return
			}
		case <-deadline:
			t.Fatalf("event %q never published", typ)
		}
	}
}

func colorSlot(key, storageKey, def string) slots.Definition {
	return slots.Definition{
		Key:            key,
		TargetProperty: "--" + key,
		DefaultValue:   def,
		StorageKey:     storageKey,
		Widget:         slots.WidgetColor,
	}
}

func waitReady(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	require.NoError(t, c.WaitReady(ctx))
}

func flush(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	require.NoError(t, c.Flush(ctx))
}

func startController(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
}

func newBufferedLogger() (*logging.EventBuffer, ports.Logger) {
	buffer := logging.NewEventBuffer(0)
	return buffer, logging.NewBufferedLogger(buffer)
}
