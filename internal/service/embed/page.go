package embed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sharetube/embed/internal/bridge"
	"github.com/sharetube/embed/internal/broker"
	"github.com/sharetube/embed/internal/document"
	"github.com/sharetube/embed/internal/metrics"
	"github.com/sharetube/embed/internal/repository/page"
	"github.com/sharetube/embed/pkg/ctxlogger"
)

// Page is the aggregate kept in the page registry.
type Page struct {
	Id        string
	Title     string
	CreatedAt time.Time

	document *document.Page
	broker   *broker.Broker
	logger   *slog.Logger

	// serializes player additions so element id checks hold
	addMu sync.Mutex

	mu      sync.Mutex
	players map[string]*playerEntry
	order   []string
	session *bridge.Session
}

func (p *Page) entry(elementId string) (*playerEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.players[elementId]
	if !ok {
		return nil, ErrPlayerNotFound
	}

	return e, nil
}

func (p *Page) entries() []*playerEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := make([]*playerEntry, 0, len(p.order))
	for _, id := range p.order {
		entries = append(entries, p.players[id])
	}

	return entries
}

func (p *Page) info() PageInfo {
	_, ready := p.broker.Factory()

	p.mu.Lock()
	connected := p.session != nil
	p.mu.Unlock()

	entries := p.entries()
	players := make([]PlayerInfo, 0, len(entries))
	for _, e := range entries {
		players = append(players, e.info())
	}

	return PageInfo{
		Id:        p.Id,
		Title:     p.Title,
		CreatedAt: p.CreatedAt,
		Inserted:  p.broker.Inserted(),
		Ready:     ready,
		Pending:   p.broker.Pending(),
		Connected: connected,
		Players:   players,
	}
}

func (s *service) getPage(pageId string) (*Page, error) {
	p, err := s.pageRepo.Get(pageId)
	if err != nil {
		if errors.Is(err, page.ErrNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	return p, nil
}

type CreatePageParams struct {
	Title   string
	Players []PlayerParams
}

type CreatePageResponse struct {
	Page PageInfo
}

// CreatePage builds the page document, installs its broker and places the
// requested players. With deferred loading the script is inserted later by
// LoadScript or, with auto load, by the first player.
func (s *service) CreatePage(ctx context.Context, params *CreatePageParams) (CreatePageResponse, error) {
	pageId := uuid.NewString()
	ctx = ctxlogger.AppendCtx(ctx, slog.String("page_id", pageId))

	doc := document.New(pageId, params.Title)
	opts := []broker.Option{broker.WithLogger(s.logger.With("page_id", pageId))}
	if s.config.BrokerObserver != nil {
		opts = append(opts, broker.WithObserver(s.config.BrokerObserver))
	}

	p := &Page{
		Id:        pageId,
		Title:     params.Title,
		CreatedAt: time.Now(),
		document:  doc,
		broker:    broker.New(doc, s.config.Broker, opts...),
		logger:    s.logger.With("page_id", pageId),
		players:   make(map[string]*playerEntry),
	}

	if err := p.broker.Install(); err != nil {
		return CreatePageResponse{}, fmt.Errorf("failed to install broker: %w", err)
	}

	for i := range params.Players {
		if _, err := s.addPlayer(ctx, p, &params.Players[i]); err != nil {
			s.discard(ctx, p)
			return CreatePageResponse{}, fmt.Errorf("failed to add player: %w", err)
		}
	}

	if err := s.pageRepo.Add(pageId, p); err != nil {
		s.discard(ctx, p)
		return CreatePageResponse{}, fmt.Errorf("failed to add page: %w", err)
	}
	metrics.PagesActive.Inc()

	s.logger.InfoContext(ctx, "page created", "players", len(params.Players), "deferred", s.config.Broker.DeferLoading.Enabled)
	return CreatePageResponse{Page: p.info()}, nil
}

func (s *service) GetPage(_ context.Context, pageId string) (PageInfo, error) {
	p, err := s.getPage(pageId)
	if err != nil {
		return PageInfo{}, err
	}

	return p.info(), nil
}

// ListPages returns the ids of all pages in ascending order.
func (s *service) ListPages(context.Context) []string {
	return s.pageRepo.List()
}

func (s *service) RenderPage(_ context.Context, pageId string, w io.Writer) error {
	p, err := s.getPage(pageId)
	if err != nil {
		return err
	}

	if err := p.document.Render(w); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}

	return nil
}

type LoadScriptResponse struct {
	Inserted bool
	Ready    bool
}

// LoadScript inserts the player script on demand. Loading an already loaded
// page is a no-op.
func (s *service) LoadScript(ctx context.Context, pageId string) (LoadScriptResponse, error) {
	p, err := s.getPage(pageId)
	if err != nil {
		return LoadScriptResponse{}, err
	}

	if err := p.broker.Load(); err != nil {
		return LoadScriptResponse{}, fmt.Errorf("failed to load script: %w", err)
	}

	_, ready := p.broker.Factory()
	s.logger.DebugContext(ctx, "script load requested", "page_id", pageId, "ready", ready)

	return LoadScriptResponse{Inserted: p.broker.Inserted(), Ready: ready}, nil
}

type ConnectPageParams struct {
	PageId string
	Conn   *websocket.Conn
}

// ConnectPage serves the bridge session of the browser showing the page
// until the connection closes. A page has at most one session, and once
// that session has made the players it cannot be replaced.
func (s *service) ConnectPage(ctx context.Context, params *ConnectPageParams) error {
	p, err := s.getPage(params.PageId)
	if err != nil {
		return err
	}

	opts := []bridge.Option{}
	if s.config.BridgeObserver != nil {
		opts = append(opts, bridge.WithObserver(s.config.BridgeObserver))
	}

	p.mu.Lock()
	if p.session != nil {
		p.mu.Unlock()
		return ErrPageConnected
	}
	if _, ready := p.broker.Factory(); ready {
		p.mu.Unlock()
		return ErrPageExpired
	}
	session := bridge.NewSession(params.Conn, p.document, bridge.Config{CallTimeout: s.config.CallTimeout}, p.logger, opts...)
	p.session = session
	p.mu.Unlock()

	metrics.BridgeSessionsActive.Inc()
	defer metrics.BridgeSessionsActive.Dec()

	s.logger.InfoContext(ctx, "page connected", "page_id", p.Id)
	err = session.Serve(ctx)

	p.mu.Lock()
	if p.session == session {
		p.session = nil
	}
	p.mu.Unlock()

	s.logger.InfoContext(ctx, "page disconnected", "page_id", p.Id)
	if err != nil {
		return fmt.Errorf("failed to serve session: %w", err)
	}

	return nil
}

// DeletePage destroys every player of the page, closes its session and
// drops the stored statuses.
func (s *service) DeletePage(ctx context.Context, pageId string) error {
	p, err := s.pageRepo.Remove(pageId)
	if err != nil {
		if errors.Is(err, page.ErrNotFound) {
			return ErrPageNotFound
		}
		return fmt.Errorf("failed to remove page: %w", err)
	}
	metrics.PagesActive.Dec()

	s.detachAll(ctx, p)

	p.mu.Lock()
	session := p.session
	p.mu.Unlock()
	if session != nil {
		session.Close()
	}

	removed, err := s.statusRepo.RemovePage(ctx, pageId)
	if err != nil {
		return fmt.Errorf("failed to remove statuses: %w", err)
	}

	s.logger.InfoContext(ctx, "page deleted", "page_id", pageId, "statuses", removed)
	return nil
}

func (s *service) detachAll(ctx context.Context, p *Page) {
	for _, e := range p.entries() {
		if err := e.handle.Detach(ctx); err != nil && !errors.Is(err, bridge.ErrSessionClosed) {
			s.logger.WarnContext(ctx, "failed to detach player", "page_id", p.Id, "element_id", e.handle.ElementID(), "error", err)
		}
	}
}

// discard undoes a partially created page.
func (s *service) discard(ctx context.Context, p *Page) {
	s.detachAll(ctx, p)
	if _, err := s.statusRepo.RemovePage(ctx, p.Id); err != nil {
		s.logger.WarnContext(ctx, "failed to remove statuses", "page_id", p.Id, "error", err)
	}
}
