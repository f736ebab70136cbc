package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sharetube/embed/pkg/ytapi"
	"github.com/sharetube/embed/pkg/ytapi/ytapitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInserter struct {
	mu    sync.Mutex
	calls int
	srcs  []string
	hook  ytapi.ReadyFunc
	err   error
}

func (f *fakeInserter) InsertScript(src string, ready ytapi.ReadyFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.srcs = append(f.srcs, src)
	f.hook = ready
	return nil
}

func (f *fakeInserter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeInserter) fire(factory ytapi.Factory) {
	f.mu.Lock()
	hook := f.hook
	f.mu.Unlock()
	hook(factory)
}

type element struct {
	id string
}

func (e *element) ID() string      { return e.id }
func (e *element) SetID(id string) { e.id = id }

type recorder struct {
	mu    sync.Mutex
	calls []string
	regs  []Registration
}

func (r *recorder) fn(name string) RegisterFunc {
	return func(reg Registration) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, name)
		r.regs = append(r.regs, reg)
	}
}

func TestFlushInRegistrationOrder(t *testing.T) {
	ins := &fakeInserter{}
	b := New(ins, Options{})
	require.NoError(t, b.Install())

	rec := &recorder{}
	a, c := &element{}, &element{}
	b.Register(a, rec.fn("a"))
	b.Register(c, rec.fn("b"))
	assert.Empty(t, rec.calls, "nothing may be serviced before readiness")
	assert.Equal(t, 2, b.Pending())

	factory := ytapitest.NewFactory()
	ins.fire(factory)

	assert.Equal(t, []string{"a", "b"}, rec.calls)
	for _, reg := range rec.regs {
		assert.Same(t, factory, reg.Factory)
	}
	assert.Equal(t, "generated-1", rec.regs[0].ID)
	assert.Equal(t, "generated-2", rec.regs[1].ID)
	assert.Equal(t, 0, b.Pending())

	// a second readiness signal must not service anything again
	ins.fire(ytapitest.NewFactory())
	assert.Len(t, rec.calls, 2)
	f, ok := b.Factory()
	require.True(t, ok)
	assert.Same(t, factory, f)
}

func TestEndToEndGeneratedID(t *testing.T) {
	ins := &fakeInserter{}
	b := New(ins, Options{})
	require.NoError(t, b.Install())

	el := &element{}
	rec := &recorder{}
	b.Register(el, rec.fn("el1"))

	factory := ytapitest.NewFactory()
	ins.fire(factory)

	require.Len(t, rec.regs, 1)
	assert.Equal(t, "generated-1", el.ID())
	assert.Equal(t, Registration{Factory: factory, ID: el.ID()}, rec.regs[0])
}

func TestRegisterAfterReadyWithExistingID(t *testing.T) {
	ins := &fakeInserter{}
	b := New(ins, Options{})
	require.NoError(t, b.Install())

	factory := ytapitest.NewFactory()
	ins.fire(factory)

	el := &element{id: "my-player"}
	rec := &recorder{}
	b.Register(el, rec.fn("cb"))

	require.Len(t, rec.regs, 1, "callback must run before Register returns")
	assert.Equal(t, Registration{Factory: factory, ID: "my-player"}, rec.regs[0])
	assert.Equal(t, 0, b.Pending())
	assert.Equal(t, "my-player", el.ID())
}

func TestReregisterServicedID(t *testing.T) {
	ins := &fakeInserter{}
	b := New(ins, Options{})
	require.NoError(t, b.Install())

	el := &element{}
	rec := &recorder{}
	b.Register(el, rec.fn("first"))
	factory := ytapitest.NewFactory()
	ins.fire(factory)

	b.Register(el, rec.fn("second"))
	assert.Equal(t, []string{"first", "second"}, rec.calls)
	assert.Equal(t, rec.regs[0].ID, rec.regs[1].ID, "re-registration keeps the element id")
	assert.Equal(t, 0, b.Pending(), "no backlog entry for a serviced id")
}

func TestReregisterPendingIDSharesEntry(t *testing.T) {
	ins := &fakeInserter{}
	b := New(ins, Options{})
	require.NoError(t, b.Install())

	el := &element{id: "dup"}
	rec := &recorder{}
	b.Register(el, rec.fn("first"))
	b.Register(&element{id: "other"}, rec.fn("other"))
	b.Register(el, rec.fn("second"))
	assert.Equal(t, 2, b.Pending(), "same id must not create a second backlog entry")

	ins.fire(ytapitest.NewFactory())
	assert.Equal(t, []string{"first", "second", "other"}, rec.calls)
}

func TestEagerInstallInsertsOnce(t *testing.T) {
	ins := &fakeInserter{}
	b := New(ins, Options{})

	require.NoError(t, b.Install())
	assert.Equal(t, 1, ins.Calls())
	assert.Equal(t, []string{ytapi.ScriptURL}, ins.srcs)

	require.NoError(t, b.Install())
	for i := 0; i < 3; i++ {
		b.Register(&element{}, func(Registration) {})
	}
	require.NoError(t, b.Load())
	assert.Equal(t, 1, ins.Calls())
}

func TestDeferredManualLoad(t *testing.T) {
	ins := &fakeInserter{}
	b := New(ins, Options{DeferLoading: DeferLoading{Enabled: true}})

	require.NoError(t, b.Install())
	b.Register(&element{}, func(Registration) {})
	b.Register(&element{}, func(Registration) {})
	assert.Equal(t, 0, ins.Calls(), "deferred broker must not insert on install or register")

	require.NoError(t, b.Load())
	assert.Equal(t, 1, ins.Calls())

	ins.fire(ytapitest.NewFactory())
	require.NoError(t, b.Load())
	assert.Equal(t, 1, ins.Calls(), "load after readiness is a no-op")
}

func TestDeferredAutoLoad(t *testing.T) {
	ins := &fakeInserter{}
	b := New(ins, Options{DeferLoading: DeferLoading{Enabled: true, AutoLoad: true}})

	require.NoError(t, b.Install())
	assert.Equal(t, 0, ins.Calls())

	b.Register(&element{}, func(Registration) {})
	assert.Equal(t, 1, ins.Calls())

	b.Register(&element{}, func(Registration) {})
	assert.Equal(t, 1, ins.Calls(), "second registration before readiness must not insert again")
}

func TestConcurrentInsertion(t *testing.T) {
	ins := &fakeInserter{}
	b := New(ins, Options{DeferLoading: DeferLoading{Enabled: true, AutoLoad: true}})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Register(&element{}, func(Registration) {})
			_ = b.Load()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ins.Calls())
	assert.Equal(t, 50, b.Pending())
}

func TestFailedInsertionCanBeRetried(t *testing.T) {
	ins := &fakeInserter{err: errors.New("boom")}
	b := New(ins, Options{})

	err := b.Install()
	require.Error(t, err)
	assert.False(t, b.Inserted())

	ins.err = nil
	require.NoError(t, b.Load())
	assert.True(t, b.Inserted())
	assert.Equal(t, 2, ins.Calls())
}

func TestCancelPendingRegistration(t *testing.T) {
	ins := &fakeInserter{}
	b := New(ins, Options{})
	require.NoError(t, b.Install())

	rec := &recorder{}
	cancel := b.Register(&element{}, rec.fn("cancelled"))
	b.Register(&element{}, rec.fn("kept"))
	cancel()
	cancel()
	assert.Equal(t, 1, b.Pending())

	ins.fire(ytapitest.NewFactory())
	assert.Equal(t, []string{"kept"}, rec.calls)
}

func TestCancelOneOfSharedEntry(t *testing.T) {
	ins := &fakeInserter{}
	b := New(ins, Options{})
	require.NoError(t, b.Install())

	el := &element{id: "shared"}
	rec := &recorder{}
	cancel := b.Register(el, rec.fn("first"))
	b.Register(el, rec.fn("second"))
	cancel()
	assert.Equal(t, 1, b.Pending())

	ins.fire(ytapitest.NewFactory())
	assert.Equal(t, []string{"second"}, rec.calls)
}

func TestRegisterDuringFlush(t *testing.T) {
	ins := &fakeInserter{}
	b := New(ins, Options{})
	require.NoError(t, b.Install())

	rec := &recorder{}
	pendingEl := &element{id: "pending"}
	b.Register(&element{id: "first"}, func(reg Registration) {
		rec.fn("first")(reg)
		// new id: factory is already set, serviced immediately
		b.Register(&element{id: "late"}, rec.fn("late"))
		// id still in the backlog: serviced when its entry is flushed
		b.Register(pendingEl, rec.fn("pending-again"))
	})
	b.Register(pendingEl, rec.fn("pending"))

	ins.fire(ytapitest.NewFactory())
	assert.Equal(t, []string{"first", "late", "pending", "pending-again"}, rec.calls)
	assert.Equal(t, 0, b.Pending())
}

func TestWaitReady(t *testing.T) {
	ins := &fakeInserter{}
	b := New(ins, Options{})
	require.NoError(t, b.Install())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := b.WaitReady(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "a never-ready script is observable")

	factory := ytapitest.NewFactory()
	go ins.fire(factory)

	f, err := b.WaitReady(context.Background())
	require.NoError(t, err)
	assert.Same(t, factory, f)
}

func TestFromContext(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrNotInstalled)

	b := New(&fakeInserter{}, Options{})
	got, err := FromContext(NewContext(context.Background(), b))
	require.NoError(t, err)
	assert.Same(t, b, got)
}
