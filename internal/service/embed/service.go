// Package embed manages embedding pages. A page owns one document, one
// broker that loads the player script into it and the handles of the players
// placed on it. Players are driven through the bridge session of the browser
// showing the page.
package embed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sharetube/embed/internal/bridge"
	"github.com/sharetube/embed/internal/broker"
	"github.com/sharetube/embed/internal/repository/status"
	"github.com/sharetube/embed/pkg/ytvideodata"
)

var (
	ErrPageNotFound      = errors.New("page not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrPageConnected     = errors.New("page already has a connected session")
	ErrPageExpired       = errors.New("page session ended, create a new page")
	ErrDuplicateElement  = errors.New("element id already used on page")
	ErrReservedElementId = errors.New("element id uses the reserved generated prefix")
	ErrUnknownToggle     = errors.New("unknown toggle")
)

type iPageRepo interface {
	Add(pageId string, p *Page) error
	Get(pageId string) (*Page, error)
	Remove(pageId string) (*Page, error)
	List() []string
}

type iStatusRepo interface {
	SetVideo(context.Context, *status.SetVideoParams) error
	SetVideoData(context.Context, *status.SetVideoDataParams) (bool, error)
	SetState(context.Context, *status.SetStateParams) error
	SetCurrentTime(context.Context, *status.SetCurrentTimeParams) error
	SetError(context.Context, *status.SetErrorParams) error
	Get(ctx context.Context, pageId, elementId string) (status.Status, error)
	Remove(ctx context.Context, pageId, elementId string) error
	RemovePage(ctx context.Context, pageId string) (int, error)
}

type iVideoData interface {
	Get(ctx context.Context, videoId string) (*ytvideodata.VideoData, error)
}

type Config struct {
	Broker         broker.Options
	CallTimeout    time.Duration
	BrokerObserver broker.Observer
	BridgeObserver bridge.Observer
}

const (
	statusWriteTimeout = 5 * time.Second
	enrichTimeout      = 15 * time.Second
)

type service struct {
	pageRepo   iPageRepo
	statusRepo iStatusRepo
	videoData  iVideoData
	config     Config
	logger     *slog.Logger
	wg         sync.WaitGroup
}

type Option func(*service)

// WithVideoData enables title and author lookup for player statuses.
func WithVideoData(v iVideoData) Option {
	return func(s *service) {
		s.videoData = v
	}
}

func NewService(pageRepo iPageRepo, statusRepo iStatusRepo, cfg *Config, logger *slog.Logger, opts ...Option) *service {
	if logger == nil {
		logger = slog.Default()
	}

	s := &service{
		pageRepo:   pageRepo,
		statusRepo: statusRepo,
		config:     *cfg,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Wait blocks until background status enrichment has finished.
func (s *service) Wait() {
	s.wg.Wait()
}
