package livesync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/designctl/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/designctl/internal/ports"
	"github.com/alexisbeaulieu97/designctl/internal/slots"
	"github.com/alexisbeaulieu97/designctl/internal/storage"
	"github.com/alexisbeaulieu97/designctl/internal/target"
)

func TestHydrationAppliesPersistedValue(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(map[string]string{"s1": "#ff0000"})
	spy := &spyTarget{}

	c := New(reg, target.Direct(spy), adapter, Options{})
	assert.Equal(t, StateUninitialized, c.State())
	assert.Equal(t, map[string]string{"k1": "#000000"}, c.Values())

	startController(t, c)
	waitReady(t, c)

	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, map[string]string{"k1": "#ff0000"}, c.Values())
	value, ok := spy.Property("--k1")
	require.True(t, ok)
	assert.Equal(t, "#ff0000", value)
}

func TestHydrationFallsBackToDefaultOnReadError(t *testing.T) {
	reg := slots.NewRegistry(
		colorSlot("k1", "s1", "#000000"),
		colorSlot("k2", "s2", "#111111"),
	)
	adapter := newSpyAdapter(map[string]string{"s2": "#222222"})
	adapter.getErr = errors.New("storage offline")
	buffer, logger := newBufferedLogger()
	spy := &spyTarget{}

	c := New(reg, target.Direct(spy), adapter, Options{Logger: logger})
	startController(t, c)
	waitReady(t, c)

	assert.Equal(t, map[string]string{"k1": "#000000", "k2": "#111111"}, c.Values())
	value, _ := spy.Property("--k1")
	assert.Equal(t, "#000000", value)
	assert.Equal(t, 2, buffer.Count(logging.LevelError))

	entry, ok := buffer.Last(logging.LevelError)
	require.True(t, ok)
	assert.Equal(t, "slot read failed, using default", entry.Message)
}

func TestHydrationSingleReadErrorLogsOnce(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(nil)
	adapter.getErr = errors.New("rejected")
	buffer, logger := newBufferedLogger()

	c := New(reg, target.Direct(&spyTarget{}), adapter, Options{Logger: logger})
	startController(t, c)
	waitReady(t, c)

	v, _ := c.Value("k1")
	assert.Equal(t, "#000000", v)
	assert.Equal(t, 1, buffer.Count(logging.LevelError))
}

func TestHydrationMissingValueUsesDefaultWithoutError(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	buffer, logger := newBufferedLogger()
	recorder := newEventRecorder(t, ports.EventSlotFallback)

	c := New(reg, target.Direct(&spyTarget{}), newSpyAdapter(nil), Options{
		Logger:    logger,
		Publisher: recorder.publisher,
	})
	startController(t, c)
	waitReady(t, c)

	assert.Equal(t, map[string]string{"k1": "#000000"}, c.Values())
	assert.Zero(t, buffer.Count(logging.LevelError))
	assert.Equal(t, 1, recorder.Count(ports.EventSlotFallback))
}

func TestValuesKeysMatchRegistryAfterHydration(t *testing.T) {
	reg := slots.NewRegistry(
		colorSlot("a", "sa", "#000000"),
		colorSlot("b", "", "#111111"),
		colorSlot("c", "sc", "#222222"),
	)
	adapter := newSpyAdapter(map[string]string{"sa": "#aaaaaa", "unrelated": "x"})

	c := New(reg, target.Direct(&spyTarget{}), adapter, Options{Concurrency: 1})
	startController(t, c)
	waitReady(t, c)

	values := c.Values()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, reg.Keys(), keys)
}

func TestEphemeralSlotNeverTouchesAdapter(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("draft", "", "#000000"))
	adapter := newSpyAdapter(nil)
	spy := &spyTarget{}

	c := New(reg, target.Direct(spy), adapter, Options{})
	startController(t, c)
	waitReady(t, c)

	require.NoError(t, c.SetValue("draft", "#abcdef"))
	flush(t, c)

	assert.Empty(t, adapter.Gets())
	assert.Empty(t, adapter.Sets())
	value, _ := spy.Property("--draft")
	assert.Equal(t, "#abcdef", value)
}

func TestNilAdapterUsesDefaults(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))

	c := New(reg, target.Direct(&spyTarget{}), nil, Options{})
	startController(t, c)
	waitReady(t, c)

	require.NoError(t, c.SetValue("k1", "#010101"))
	flush(t, c)
	v, _ := c.Value("k1")
	assert.Equal(t, "#010101", v)
}

func TestSetValueWhileHydratingIsIgnored(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(map[string]string{"s1": "#ff0000"})
	release := adapter.gate("s1")
	defer release()
	buffer, logger := newBufferedLogger()
	spy := &spyTarget{}

	c := New(reg, target.Direct(spy), adapter, Options{Logger: logger})
	startController(t, c)
	adapter.waitEntered(t, "s1")
	assert.Equal(t, StateHydrating, c.State())

	err := c.SetValue("k1", "#123456")
	require.ErrorIs(t, err, ErrNotReady)
	assert.Equal(t, 1, buffer.Count(logging.LevelWarn))
	assert.Empty(t, spy.Writes())

	release()
	waitReady(t, c)
	flush(t, c)

	assert.Equal(t, map[string]string{"k1": "#ff0000"}, c.Values())
	assert.Empty(t, adapter.Sets())
	for _, w := range spy.Writes() {
		assert.NotEqual(t, "#123456", w.Value)
	}
}

func TestSetValueUnknownSlotIsNoop(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(nil)
	spy := &spyTarget{}

	c := New(reg, target.Direct(spy), adapter, Options{})
	startController(t, c)
	waitReady(t, c)
	before := len(spy.Writes())

	err := c.SetValue("nope", "#ffffff")
	require.ErrorIs(t, err, ErrUnknownSlot)
	flush(t, c)

	assert.Equal(t, map[string]string{"k1": "#000000"}, c.Values())
	assert.Len(t, spy.Writes(), before)
	assert.Empty(t, adapter.Sets())
}

func TestSetValueAppliesAndPersists(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(nil)
	spy := &spyTarget{}
	recorder := newEventRecorder(t, ports.EventSlotUpdated, ports.EventSlotPersisted)

	c := New(reg, target.Direct(spy), adapter, Options{Publisher: recorder.publisher})
	startController(t, c)
	waitReady(t, c)

	require.NoError(t, c.SetValue("k1", "#00ff00"))
	v, _ := c.Value("k1")
	assert.Equal(t, "#00ff00", v)
	applied, _ := spy.Property("--k1")
	assert.Equal(t, "#00ff00", applied)

	flush(t, c)
	assert.Equal(t, []propertyWrite{{Name: "s1", Value: "#00ff00"}}, adapter.Sets())
	assert.Equal(t, 1, recorder.Count(ports.EventSlotUpdated))
	assert.Equal(t, 1, recorder.Count(ports.EventSlotPersisted))
}

func TestSetValueIsIdempotent(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(nil)
	spy := &spyTarget{}

	c := New(reg, target.Direct(spy), adapter, Options{})
	startController(t, c)
	waitReady(t, c)

	require.NoError(t, c.SetValue("k1", "#0000ff"))
	flush(t, c)
	first := c.Values()
	stored, _, err := adapter.GetItem(context.Background(), "s1")
	require.NoError(t, err)

	require.NoError(t, c.SetValue("k1", "#0000ff"))
	flush(t, c)
	storedAgain, _, err := adapter.GetItem(context.Background(), "s1")
	require.NoError(t, err)

	assert.Equal(t, first, c.Values())
	assert.Equal(t, stored, storedAgain)
	applied, _ := spy.Property("--k1")
	assert.Equal(t, "#0000ff", applied)
}

func TestWritesPreserveCallOrder(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(nil)

	c := New(reg, target.Direct(&spyTarget{}), adapter, Options{})
	startController(t, c)
	waitReady(t, c)

	for _, v := range []string{"#111111", "#222222", "#333333"} {
		require.NoError(t, c.SetValue("k1", v))
	}
	flush(t, c)

	assert.Equal(t, []propertyWrite{
		{Name: "s1", Value: "#111111"},
		{Name: "s1", Value: "#222222"},
		{Name: "s1", Value: "#333333"},
	}, adapter.Sets())
	stored, _, _ := adapter.GetItem(context.Background(), "s1")
	assert.Equal(t, "#333333", stored)
}

func TestPersistFailureIsLoggedWithoutRollback(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(nil)
	adapter.setErr = errors.New("quota exceeded")
	buffer, logger := newBufferedLogger()
	recorder := newEventRecorder(t, ports.EventSlotPersistFailed)

	c := New(reg, target.Direct(&spyTarget{}), adapter, Options{Logger: logger, Publisher: recorder.publisher})
	startController(t, c)
	waitReady(t, c)

	require.NoError(t, c.SetValue("k1", "#fafafa"))
	flush(t, c)

	v, _ := c.Value("k1")
	assert.Equal(t, "#fafafa", v)
	assert.Equal(t, 1, buffer.Count(logging.LevelError))
	assert.Equal(t, 1, recorder.Count(ports.EventSlotPersistFailed))
}

func TestRoundTripThroughFreshController(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	store := storage.NewMemoryStore(nil)

	first := New(reg, target.Direct(&spyTarget{}), store, Options{})
	startController(t, first)
	waitReady(t, first)
	require.NoError(t, first.SetValue("k1", "#c0ffee"))
	flush(t, first)
	require.NoError(t, first.Close())

	spy := &spyTarget{}
	second := New(reg, target.Direct(spy), store, Options{})
	startController(t, second)
	waitReady(t, second)

	v, _ := second.Value("k1")
	assert.Equal(t, "#c0ffee", v)
	applied, _ := spy.Property("--k1")
	assert.Equal(t, "#c0ffee", applied)
}

func TestReinitializeSwapsValuesWithoutEmptyState(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(map[string]string{"s1": "#ff0000"})
	spy := &spyTarget{}

	c := New(reg, target.Direct(spy), adapter, Options{})
	startController(t, c)
	waitReady(t, c)

	var mu sync.Mutex
	var changes []Change
	sub := c.Subscribe(func(ch Change) {
		mu.Lock()
		changes = append(changes, ch)
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	adapter.Put("s1", "#00ff00")
	release := adapter.gate("s1")
	defer release()

	require.NoError(t, c.Reinitialize(context.Background()))
	adapter.waitEntered(t, "s1")

	assert.Equal(t, StateHydrating, c.State())
	assert.Equal(t, map[string]string{"k1": "#ff0000"}, c.Values())
	require.ErrorIs(t, c.SetValue("k1", "#999999"), ErrNotReady)

	release()
	waitReady(t, c)

	assert.Equal(t, map[string]string{"k1": "#00ff00"}, c.Values())
	applied, _ := spy.Property("--k1")
	assert.Equal(t, "#00ff00", applied)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 1)
	assert.Equal(t, SourceHydration, changes[0].Source)
	assert.Equal(t, map[string]string{"k1": "#00ff00"}, changes[0].Values)
}

func TestReinitializeRequiresReady(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	c := New(reg, target.Direct(&spyTarget{}), newSpyAdapter(nil), Options{})
	t.Cleanup(func() { _ = c.Close() })

	require.ErrorIs(t, c.Reinitialize(context.Background()), ErrNotReady)
	assert.Equal(t, StateUninitialized, c.State())
}

func TestCloseDuringHydrationDiscardsLateResults(t *testing.T) {
	reg := slots.NewRegistry(
		colorSlot("k1", "s1", "#000000"),
		colorSlot("k2", "s2", "#111111"),
	)
	adapter := newSpyAdapter(map[string]string{"s1": "#ff0000", "s2": "#00ff00"})
	adapter.ignoreCancel = true
	release1 := adapter.gate("s1")
	release2 := adapter.gate("s2")
	recorder := newEventRecorder(t, ports.EventHydrationCancelled)
	spy := &spyTarget{}

	c := New(reg, target.Direct(spy), adapter, Options{Publisher: recorder.publisher})
	require.NoError(t, c.Start(context.Background()))
	adapter.waitEntered(t, "s1")

	require.NoError(t, c.Close())
	release1()
	release2()
	recorder.waitFor(t, ports.EventHydrationCancelled)

	assert.Empty(t, spy.Writes())
	assert.Equal(t, StateClosed, c.State())
	assert.Equal(t, map[string]string{"k1": "#000000", "k2": "#111111"}, c.Values())
}

func TestReconfigureSameIdentityIsNoop(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(map[string]string{"s1": "#ff0000"})
	desc := target.Direct(&spyTarget{})

	c := New(reg, desc, adapter, Options{})
	startController(t, c)
	waitReady(t, c)
	reads := len(adapter.Gets())

	require.NoError(t, c.Reconfigure(reg, desc))

	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, map[string]string{"k1": "#ff0000"}, c.Values())
	assert.Len(t, adapter.Gets(), reads)
}

func TestReconfigureDiscardsOldRunAndRehydrates(t *testing.T) {
	oldReg := slots.NewRegistry(colorSlot("old", "s-old", "#000000"))
	newReg := slots.NewRegistry(colorSlot("fresh", "s-new", "#ffffff"))
	adapter := newSpyAdapter(map[string]string{"s-old": "#111111", "s-new": "#222222"})
	adapter.ignoreCancel = true
	releaseOld := adapter.gate("s-old")
	recorder := newEventRecorder(t, ports.EventHydrationCancelled)

	oldTarget := &spyTarget{}
	newTarget := &spyTarget{}

	c := New(oldReg, target.Direct(oldTarget), adapter, Options{Publisher: recorder.publisher})
	startController(t, c)
	adapter.waitEntered(t, "s-old")

	var changes []Change
	var mu sync.Mutex
	sub := c.Subscribe(func(ch Change) {
		mu.Lock()
		changes = append(changes, ch)
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	require.NoError(t, c.Reconfigure(newReg, target.Direct(newTarget)))
	assert.Same(t, newReg, c.Registry())
	waitReady(t, c)

	releaseOld()
	recorder.waitFor(t, ports.EventHydrationCancelled)

	assert.Empty(t, oldTarget.Writes())
	assert.Equal(t, map[string]string{"fresh": "#222222"}, c.Values())
	applied, _ := newTarget.Property("--fresh")
	assert.Equal(t, "#222222", applied)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, changes)
	assert.Equal(t, SourceReset, changes[0].Source)
	assert.Equal(t, map[string]string{"fresh": "#ffffff"}, changes[0].Values)
}

func TestHolderTargetHydratesWhenHandleAppears(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(map[string]string{"s1": "#ff0000"})
	ref := target.NewRef()

	c := New(reg, target.Holder(ref), adapter, Options{})
	startController(t, c)

	assert.Equal(t, StateUninitialized, c.State())
	assert.Empty(t, adapter.Gets())

	spy := &spyTarget{}
	ref.Set(spy)
	waitReady(t, c)

	applied, _ := spy.Property("--k1")
	assert.Equal(t, "#ff0000", applied)
}

func TestFactoryTargetRetriedOnStart(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "", "#000000"))
	var mu sync.Mutex
	var current ports.Target
	desc := target.Factory(func() ports.Target {
		mu.Lock()
		defer mu.Unlock()
		return current
	})

	c := New(reg, desc, newSpyAdapter(nil), Options{})
	startController(t, c)
	assert.Equal(t, StateUninitialized, c.State())

	spy := &spyTarget{}
	mu.Lock()
	current = spy
	mu.Unlock()

	require.NoError(t, c.Start(context.Background()))
	waitReady(t, c)
	applied, _ := spy.Property("--k1")
	assert.Equal(t, "#000000", applied)
}

func TestTargetVanishingMidRunRetries(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(map[string]string{"s1": "#ff0000"})
	release := adapter.gate("s1")
	ref := target.NewRef()
	ref.Set(&spyTarget{})

	c := New(reg, target.Holder(ref), adapter, Options{})
	startController(t, c)
	adapter.waitEntered(t, "s1")

	ref.Clear()
	release()

	require.Eventually(t, func() bool {
		return c.State() == StateUninitialized
	}, waitTimeout, 5*time.Millisecond)
	assert.Equal(t, map[string]string{"k1": "#000000"}, c.Values())

	adapter.gate("s1")()
	spy := &spyTarget{}
	ref.Set(spy)
	waitReady(t, c)
	applied, _ := spy.Property("--k1")
	assert.Equal(t, "#ff0000", applied)
}

func TestHookRunsAfterEachApply(t *testing.T) {
	reg := slots.NewRegistry(
		colorSlot("k1", "", "#000000"),
		slots.Definition{Key: "heading", TargetProperty: "--font-heading", DefaultValue: `"Fira Code", monospace`, Widget: slots.WidgetFont},
	)
	sheet := target.NewStyleSheet("")

	c := New(reg, target.Direct(sheet), nil, Options{Hook: target.NewFontHook()})
	startController(t, c)
	waitReady(t, c)

	require.NoError(t, c.SetValue("heading", "Inter, sans-serif"))

	assert.Equal(t, []string{
		"https://fonts.googleapis.com/css2?family=Fira+Code:wght@400;500;700&display=swap",
		"https://fonts.googleapis.com/css2?family=Inter:wght@400;500;700&display=swap",
	}, sheet.Stylesheets())
	value, _ := sheet.Property("--font-heading")
	assert.Equal(t, "Inter, sans-serif", value)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "", "#000000"))
	c := New(reg, target.Direct(&spyTarget{}), nil, Options{})
	startController(t, c)
	waitReady(t, c)

	var got []Change
	sub := c.Subscribe(func(ch Change) { got = append(got, ch) })
	require.NoError(t, c.SetValue("k1", "#010203"))
	sub.Unsubscribe()
	sub.Unsubscribe()
	require.NoError(t, c.SetValue("k1", "#040506"))

	require.Len(t, got, 1)
	assert.Equal(t, SourceUser, got[0].Source)
	assert.Equal(t, "k1", got[0].Key)
	assert.Equal(t, "#010203", got[0].Value)
	assert.Equal(t, map[string]string{"k1": "#010203"}, got[0].Values)
}

func TestSubscriberMayCallBackIntoController(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("a", "", "#000000"), colorSlot("b", "", "#000000"))
	c := New(reg, target.Direct(&spyTarget{}), nil, Options{})
	startController(t, c)
	waitReady(t, c)

	var order []string
	sub := c.Subscribe(func(ch Change) {
		order = append(order, ch.Key)
		if ch.Key == "a" {
			_ = c.SetValue("b", ch.Value)
		}
	})
	defer sub.Unsubscribe()

	require.NoError(t, c.SetValue("a", "#abcabc"))
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, map[string]string{"a": "#abcabc", "b": "#abcabc"}, c.Values())
}

func TestClosedControllerRejectsUse(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	c := New(reg, target.Direct(&spyTarget{}), newSpyAdapter(nil), Options{})
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Start(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.SetValue("k1", "#ffffff"), ErrClosed)
	assert.ErrorIs(t, c.Reinitialize(context.Background()), ErrClosed)
	assert.ErrorIs(t, c.Reconfigure(nil, target.Direct(nil)), ErrClosed)
	assert.ErrorIs(t, c.WaitReady(context.Background()), ErrClosed)
	flush(t, c)
}

func TestWaitReadyHonoursContext(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	c := New(reg, target.Holder(target.NewRef()), newSpyAdapter(nil), Options{})
	startController(t, c)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.WaitReady(ctx), context.DeadlineExceeded)
}

func TestConcurrentUpdatesAreSafe(t *testing.T) {
	reg := slots.NewRegistry(
		colorSlot("a", "sa", "#000000"),
		colorSlot("b", "sb", "#000000"),
	)
	store := storage.NewMemoryStore(nil)
	c := New(reg, target.Direct(target.NewStyleSheet("")), store, Options{})
	startController(t, c)
	waitReady(t, c)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = c.SetValue("a", "#111111")
				_ = c.SetValue("b", "#222222")
				_ = c.Values()
			}
		}()
	}
	wg.Wait()
	flush(t, c)

	assert.Equal(t, map[string]string{"sa": "#111111", "sb": "#222222"}, store.Snapshot())
}

func TestReinitializeWaitsForQueuedWrites(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(map[string]string{"s1": "#ff0000"})
	spy := &spyTarget{}

	c := New(reg, target.Direct(spy), adapter, Options{})
	startController(t, c)
	waitReady(t, c)
	reads := len(adapter.Gets())

	release := adapter.gateSet("s1")
	defer release()
	require.NoError(t, c.SetValue("k1", "#123456"))
	require.NoError(t, c.Reinitialize(context.Background()))
	assert.Equal(t, StateHydrating, c.State())

	assert.Never(t, func() bool {
		return len(adapter.Gets()) > reads
	}, 50*time.Millisecond, 5*time.Millisecond)

	release()
	waitReady(t, c)
	flush(t, c)

	assert.Equal(t, map[string]string{"k1": "#123456"}, c.Values())
	applied, _ := spy.Property("--k1")
	assert.Equal(t, "#123456", applied)
	assert.Equal(t, []propertyWrite{{Name: "s1", Value: "#123456"}}, adapter.Sets())
	stored, found, err := adapter.GetItem(context.Background(), "s1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "#123456", stored)
}

func TestHolderSwapAfterReadyHydratesNewHandle(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(map[string]string{"s1": "#ff0000"})
	ref := target.NewRef()
	first := &spyTarget{}
	ref.Set(first)

	c := New(reg, target.Holder(ref), adapter, Options{})
	startController(t, c)
	waitReady(t, c)

	second := &spyTarget{}
	ref.Set(second)
	waitReady(t, c)

	applied, ok := second.Property("--k1")
	require.True(t, ok)
	assert.Equal(t, "#ff0000", applied)
	assert.Len(t, first.Writes(), 1)

	ref.Clear()
	assert.Equal(t, StateReady, c.State())
	assert.Equal(t, map[string]string{"k1": "#ff0000"}, c.Values())

	ref.Set(second)
	waitReady(t, c)
	require.NoError(t, c.SetValue("k1", "#00ff00"))
	applied, _ = second.Property("--k1")
	assert.Equal(t, "#00ff00", applied)
	assert.Len(t, first.Writes(), 1)
}

func TestHolderSwapDuringHydrationRestartsRun(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(map[string]string{"s1": "#ff0000"})
	release := adapter.gate("s1")
	defer release()
	recorder := newEventRecorder(t, ports.EventHydrationCancelled)
	ref := target.NewRef()
	first := &spyTarget{}
	ref.Set(first)

	c := New(reg, target.Holder(ref), adapter, Options{Publisher: recorder.publisher})
	startController(t, c)
	adapter.waitEntered(t, "s1")

	second := &spyTarget{}
	ref.Set(second)
	assert.Equal(t, StateHydrating, c.State())
	recorder.waitFor(t, ports.EventHydrationCancelled)
	adapter.waitEntered(t, "s1")

	release()
	waitReady(t, c)

	assert.Empty(t, first.Writes())
	applied, ok := second.Property("--k1")
	require.True(t, ok)
	assert.Equal(t, "#ff0000", applied)
}

func TestHookMayReadControllerState(t *testing.T) {
	reg := slots.NewRegistry(colorSlot("k1", "s1", "#000000"))
	adapter := newSpyAdapter(map[string]string{"s1": "#ff0000"})

	var c *Controller
	var mu sync.Mutex
	var seen []State
	hook := HookFunc(func(def slots.Definition, value string, _ ports.Target) {
		_ = c.Values()
		_, _ = c.Value(def.Key)
		state := c.State()
		mu.Lock()
		seen = append(seen, state)
		mu.Unlock()
	})

	c = New(reg, target.Direct(&spyTarget{}), adapter, Options{Hook: hook})
	startController(t, c)
	waitReady(t, c)

	done := make(chan error, 1)
	go func() { done <- c.SetValue("k1", "#00ff00") }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("SetValue blocked on the hook")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateHydrating, StateReady}, seen)
}
