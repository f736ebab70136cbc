// Package bridge connects the server to an embedding page over a websocket.
// A Session is the player factory of one page: players it creates are
// remote proxies whose calls travel to the browser as CALL messages and whose
// events come back as EVENT messages.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sharetube/embed/pkg/wsrouter"
	"github.com/sharetube/embed/pkg/ytapi"
)

const (
	writeWait = 10 * time.Second
	queueSize = 64
)

var (
	ErrSessionClosed = errors.New("bridge session closed")
	ErrCallFailed    = errors.New("player call failed")
)

// Page is the document side of a session.
type Page interface {
	FireReady(factory ytapi.Factory) error
	OnScriptInserted(fn func(src string)) (unsubscribe func())
	ScriptInserted() (string, bool)
}

type Observer interface {
	ObserveMessage(direction, messageType string)
}

type Config struct {
	// CallTimeout bounds calls that wait for a result. Zero means only the
	// caller's context bounds them.
	CallTimeout time.Duration
}

type Session struct {
	conn     *websocket.Conn
	page     Page
	config   Config
	logger   *slog.Logger
	observer Observer
	router   *wsrouter.WSRouter

	writeMu sync.Mutex

	mu         sync.Mutex
	players    map[string]*remotePlayer
	pending    map[string]chan ResultInput
	scriptSent bool
	closed     bool

	queue     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

var _ ytapi.Factory = (*Session)(nil)

type Option func(*Session)

func WithObserver(o Observer) Option {
	return func(s *Session) {
		s.observer = o
	}
}

func NewSession(conn *websocket.Conn, page Page, cfg Config, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		conn:     conn,
		page:     page,
		config:   cfg,
		logger:   logger,
		observer: nopObserver{},
		players:  make(map[string]*remotePlayer),
		pending:  make(map[string]chan ResultInput),
		queue:    make(chan func(), queueSize),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.getWSRouter()
	return s
}

func (s *Session) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(s.loggerMw)
	mux.OnError(func(ctx context.Context, _ *websocket.Conn, err error) error {
		s.logger.WarnContext(ctx, "failed to handle message", "error", err)
		return nil
	})

	wsrouter.Handle(mux, TypeAPIReady, s.handleAPIReady)
	wsrouter.Handle(mux, TypeEvent, s.handleEvent)
	wsrouter.Handle(mux, TypeResult, s.handleResult)

	return mux
}

func (s *Session) loggerMw(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
	return func(ctx context.Context, conn *websocket.Conn, payload any) error {
		messageType := wsrouter.GetMessageTypeFromCtx(ctx)
		s.observer.ObserveMessage("in", messageType)
		s.logger.DebugContext(ctx, "websocket message received", "message_type", messageType, "payload", payload)

		return next(ctx, conn, payload)
	}
}

// Serve pushes the script insertion to the page and handles incoming
// messages until the connection closes. The session is closed on return.
func (s *Session) Serve(ctx context.Context) error {
	go s.runQueue()
	defer s.Close()

	unsubscribe := s.page.OnScriptInserted(func(src string) {
		s.sendInsertScript(ctx, src)
	})
	defer unsubscribe()

	if src, ok := s.page.ScriptInserted(); ok {
		s.sendInsertScript(ctx, src)
	}

	err := s.router.ServeConn(ctx, s.conn)
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil
	}

	return err
}

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close closes the connection and fails every call still waiting for a
// result with ErrSessionClosed. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.done)
		s.conn.Close()
	})
}

func (s *Session) sendInsertScript(ctx context.Context, src string) {
	s.mu.Lock()
	if s.scriptSent {
		s.mu.Unlock()
		return
	}
	s.scriptSent = true
	s.mu.Unlock()

	if err := s.send(TypeInsertScript, InsertScriptOutput{Src: src}); err != nil {
		s.logger.WarnContext(ctx, "failed to push script insertion", "error", err)
	}
}

// runQueue runs readiness and event work off the read loop so that handlers
// may wait for call results.
func (s *Session) runQueue() {
	for {
		select {
		case fn := <-s.queue:
			fn()
		case <-s.done:
			return
		}
	}
}

func (s *Session) enqueue(fn func()) {
	select {
	case s.queue <- fn:
	case <-s.done:
	}
}

func (s *Session) handleAPIReady(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	s.enqueue(func() {
		if err := s.page.FireReady(s); err != nil {
			s.logger.WarnContext(ctx, "failed to fire readiness hook", "error", err)
		}
	})

	return nil
}

func (s *Session) handleEvent(ctx context.Context, _ *websocket.Conn, input EventInput) error {
	s.mu.Lock()
	p, ok := s.players[input.PlayerID]
	s.mu.Unlock()

	if !ok {
		s.logger.DebugContext(ctx, "event for unknown player", "player_id", input.PlayerID, "kind", input.Kind)
		return nil
	}

	s.enqueue(func() {
		if err := p.dispatch(input.Kind, input.Data); err != nil {
			s.logger.WarnContext(ctx, "failed to dispatch event", "player_id", input.PlayerID, "kind", input.Kind, "error", err)
		}
	})

	return nil
}

func (s *Session) handleResult(ctx context.Context, _ *websocket.Conn, input ResultInput) error {
	s.mu.Lock()
	ch, ok := s.pending[input.RequestID]
	delete(s.pending, input.RequestID)
	s.mu.Unlock()

	if !ok {
		s.logger.DebugContext(ctx, "result for unknown request", "request_id", input.RequestID)
		return nil
	}

	ch <- input
	return nil
}

// NewPlayer asks the page to create a player in the element with elementID.
func (s *Session) NewPlayer(ctx context.Context, elementID string, opts *ytapi.Options) (ytapi.Player, error) {
	if opts == nil {
		opts = &ytapi.Options{}
	}

	p := &remotePlayer{id: elementID, session: s, events: opts.Events}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	s.players[elementID] = p
	s.mu.Unlock()

	if err := s.send(TypeCreatePlayer, CreatePlayerOutput{ID: elementID, Options: opts}); err != nil {
		s.forget(elementID, p)
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	s.logger.DebugContext(ctx, "remote player created", "player_id", elementID)
	return p, nil
}

func (s *Session) forget(id string, p *remotePlayer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.players[id] == p {
		delete(s.players, id)
	}
}

func (s *Session) send(messageType string, payload any) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}
	if err := s.conn.WriteJSON(&Output{Type: messageType, Payload: payload}); err != nil {
		return fmt.Errorf("failed to write %s: %w", messageType, err)
	}

	s.observer.ObserveMessage("out", messageType)
	return nil
}

func (s *Session) call(playerID, method string, args ...any) error {
	if args == nil {
		args = []any{}
	}

	return s.send(TypeCall, CallOutput{PlayerID: playerID, Method: method, Args: args})
}

// query calls method and decodes the result into dst.
func (s *Session) query(ctx context.Context, playerID, method string, dst any, args ...any) error {
	if args == nil {
		args = []any{}
	}

	requestID := uuid.NewString()
	ch := make(chan ResultInput, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.pending[requestID] = ch
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.pending, requestID)
		s.mu.Unlock()
	}()

	if err := s.send(TypeCall, CallOutput{RequestID: requestID, PlayerID: playerID, Method: method, Args: args}); err != nil {
		return err
	}

	if s.config.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.CallTimeout)
		defer cancel()
	}

	select {
	case res := <-ch:
		if res.Error != "" {
			return fmt.Errorf("%w: %s: %s", ErrCallFailed, method, res.Error)
		}
		if dst == nil || len(res.Value) == 0 {
			return nil
		}
		if err := json.Unmarshal(res.Value, dst); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
		return nil
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return fmt.Errorf("failed to wait for %s result: %w", method, ctx.Err())
	}
}

type nopObserver struct{}

func (nopObserver) ObserveMessage(string, string) {}
