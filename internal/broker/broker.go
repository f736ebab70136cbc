// Package broker loads the external player script once per page and hands
// the resolved player factory to every registered element.
//
// Registrations that arrive before the script signals readiness wait in a
// backlog that is flushed exactly once, in registration order. Registrations
// that arrive later are serviced immediately.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/sharetube/embed/pkg/ytapi"
)

// IDPrefix prefixes element ids generated for elements that carry none.
const IDPrefix = "generated"

var (
	ErrNotInstalled = errors.New("no broker installed: create one with broker.New, call Install and pass it down with broker.NewContext")
	ErrNilInserter  = errors.New("inserter is nil")
)

// Element is the part of a DOM element the broker needs.
type Element interface {
	ID() string
	SetID(id string)
}

// Registration is handed to a RegisterFunc once the factory is known.
type Registration struct {
	Factory ytapi.Factory
	ID      string
}

type RegisterFunc func(Registration)

// Inserter inserts the external script into the page and installs ready as
// the readiness hook. Only one hook may be installed per page.
type Inserter interface {
	InsertScript(src string, ready ytapi.ReadyFunc) error
}

// Observer receives lifecycle notifications. Methods are called without the
// broker lock held.
type Observer interface {
	ObserveEnqueued(backlog int)
	ObserveCancelled()
	ObserveServiced(immediate bool)
	ObserveInserted()
	ObserveReady(flushed int)
}

type DeferLoading struct {
	// Enabled suppresses script insertion in Install.
	Enabled bool `json:"enabled"`
	// AutoLoad inserts the script on the first registration when Enabled.
	AutoLoad bool `json:"auto_load"`
}

type Options struct {
	DeferLoading DeferLoading `json:"defer_loading"`
}

type waiter struct {
	seq uint64
	fn  RegisterFunc
}

type pending struct {
	id      string
	waiters []waiter
}

type Broker struct {
	inserter Inserter
	options  Options
	observer Observer
	logger   *slog.Logger

	mu       sync.Mutex
	factory  ytapi.Factory
	backlog  []*pending
	index    map[string]*pending
	players  map[string]RegisterFunc
	counter  int
	seq      uint64
	inserted bool
	ready    chan struct{}
}

type Option func(*Broker)

func WithObserver(o Observer) Option {
	return func(b *Broker) {
		b.observer = o
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Broker) {
		b.logger = l
	}
}

func New(inserter Inserter, options Options, opts ...Option) *Broker {
	b := &Broker{
		inserter: inserter,
		options:  options,
		observer: nopObserver{},
		logger:   slog.Default(),
		index:    make(map[string]*pending),
		players:  make(map[string]RegisterFunc),
		counter:  1,
		ready:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *Broker) Options() Options {
	return b.options
}

// Install inserts the script right away unless loading is deferred.
// Calling it more than once never inserts a second script.
func (b *Broker) Install() error {
	if b.options.DeferLoading.Enabled {
		b.logger.Debug("broker.Install", "deferred", true)
		return nil
	}

	return b.insertScript()
}

// Load inserts the script on demand. It is a no-op once the factory is known.
func (b *Broker) Load() error {
	if _, ok := b.Factory(); ok {
		return nil
	}

	return b.insertScript()
}

// Register asks for a factory and an element id for target. fn is called
// exactly once, either before Register returns (factory already known) or
// when the backlog is flushed. The returned cancel func drops fn if it is
// still waiting in the backlog and does nothing otherwise.
func (b *Broker) Register(target Element, fn RegisterFunc) (cancel func()) {
	b.mu.Lock()

	targetID := target.ID()
	if targetID == "" {
		targetID = IDPrefix + "-" + strconv.Itoa(b.counter)
		b.counter++
		target.SetID(targetID)
	}

	if _, ok := b.players[targetID]; ok {
		factory := b.factory
		b.mu.Unlock()

		b.logger.Debug("broker.Register", "id", targetID, "path", "reregistered")
		b.observer.ObserveServiced(true)
		fn(Registration{Factory: factory, ID: targetID})
		return func() {}
	}

	if b.factory == nil {
		b.seq++
		w := waiter{seq: b.seq, fn: fn}

		if p, ok := b.index[targetID]; ok {
			p.waiters = append(p.waiters, w)
		} else {
			p = &pending{id: targetID, waiters: []waiter{w}}
			b.index[targetID] = p
			b.backlog = append(b.backlog, p)
		}
		backlog := len(b.backlog)
		autoLoad := b.options.DeferLoading.Enabled && b.options.DeferLoading.AutoLoad
		b.mu.Unlock()

		b.logger.Debug("broker.Register", "id", targetID, "path", "enqueued", "backlog", backlog)
		b.observer.ObserveEnqueued(backlog)

		if autoLoad {
			if err := b.insertScript(); err != nil {
				b.logger.Warn("broker.Register", "id", targetID, "error", err)
			}
		}

		return func() { b.cancel(targetID, w.seq) }
	}

	factory := b.factory
	b.players[targetID] = fn
	b.mu.Unlock()

	b.logger.Debug("broker.Register", "id", targetID, "path", "immediate")
	b.observer.ObserveServiced(true)
	fn(Registration{Factory: factory, ID: targetID})

	return func() {}
}

func (b *Broker) cancel(id string, seq uint64) {
	b.mu.Lock()

	p, ok := b.index[id]
	if !ok {
		b.mu.Unlock()
		return
	}

	found := false
	for i, w := range p.waiters {
		if w.seq == seq {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		b.mu.Unlock()
		return
	}

	if len(p.waiters) == 0 {
		delete(b.index, id)
		for i, q := range b.backlog {
			if q == p {
				b.backlog = append(b.backlog[:i], b.backlog[i+1:]...)
				break
			}
		}
	}
	backlog := len(b.backlog)
	b.mu.Unlock()

	b.logger.Debug("broker.cancel", "id", id, "backlog", backlog)
	b.observer.ObserveCancelled()
}

// insertScript runs the inserter at most once. A failed insertion does not
// count, so a later Load may try again.
func (b *Broker) insertScript() error {
	if b.inserter == nil {
		return ErrNilInserter
	}

	b.mu.Lock()
	if b.inserted {
		b.mu.Unlock()
		return nil
	}
	b.inserted = true
	b.mu.Unlock()

	if err := b.inserter.InsertScript(ytapi.ScriptURL, b.resolve); err != nil {
		b.mu.Lock()
		b.inserted = false
		b.mu.Unlock()
		return fmt.Errorf("failed to insert script: %w", err)
	}

	b.logger.Info("player script inserted", "src", ytapi.ScriptURL)
	b.observer.ObserveInserted()
	return nil
}

// resolve is the readiness hook. It stores the factory and flushes the
// backlog. Entries are popped one at a time so that callbacks may register
// again: a new id sees the factory and is serviced immediately, an id still
// in the backlog is appended to its entry and serviced when it is popped.
func (b *Broker) resolve(factory ytapi.Factory) {
	if factory == nil {
		b.logger.Warn("broker.resolve", "error", "nil factory")
		return
	}

	b.mu.Lock()
	if b.factory != nil {
		b.mu.Unlock()
		b.logger.Warn("broker.resolve", "error", "factory already resolved")
		return
	}
	b.factory = factory
	close(b.ready)
	b.mu.Unlock()

	flushed := 0
	for {
		b.mu.Lock()
		if len(b.backlog) == 0 {
			b.mu.Unlock()
			break
		}

		p := b.backlog[0]
		b.backlog[0] = nil
		b.backlog = b.backlog[1:]
		delete(b.index, p.id)
		b.players[p.id] = p.waiters[len(p.waiters)-1].fn
		b.mu.Unlock()

		for _, w := range p.waiters {
			b.observer.ObserveServiced(false)
			w.fn(Registration{Factory: factory, ID: p.id})
			flushed++
		}
	}

	b.logger.Info("player factory ready", "flushed", flushed)
	b.observer.ObserveReady(flushed)
}

// Factory returns the resolved factory.
func (b *Broker) Factory() (ytapi.Factory, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.factory, b.factory != nil
}

// Ready is closed once the factory has been resolved.
func (b *Broker) Ready() <-chan struct{} {
	return b.ready
}

// WaitReady blocks until the factory is resolved or ctx is done. The broker
// itself never times out; this is for callers that want to.
func (b *Broker) WaitReady(ctx context.Context) (ytapi.Factory, error) {
	select {
	case <-b.ready:
		f, _ := b.Factory()
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Pending returns the number of element ids waiting in the backlog.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.backlog)
}

func (b *Broker) Inserted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inserted
}

type nopObserver struct{}

func (nopObserver) ObserveEnqueued(int)  {}
func (nopObserver) ObserveCancelled()    {}
func (nopObserver) ObserveServiced(bool) {}
func (nopObserver) ObserveInserted()     {}
func (nopObserver) ObserveReady(int)     {}
