// Package player binds a reactive video id and a target element to one
// embedded player instance obtained through the broker.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sharetube/embed/internal/broker"
	"github.com/sharetube/embed/pkg/reactive"
	"github.com/sharetube/embed/pkg/ytapi"
)

var ErrAlreadyAttached = errors.New("handle already attached")

// Registrar is the broker side of a handle.
type Registrar interface {
	Register(target broker.Element, fn broker.RegisterFunc) (cancel func())
}

type Handle struct {
	registrar Registrar
	videoID   *reactive.Value[string]
	target    Target
	options   Options
	logger    *slog.Logger

	mu        sync.Mutex
	ctx       context.Context
	instance  ytapi.Player
	shown     string
	element   broker.Element
	shuffle   bool
	loop      bool
	attached  bool
	detached  bool
	cancelReg func()
	stopWatch func()

	readyCallbacks                 []ytapi.ReadyCallback
	apiChangeCallbacks             []ytapi.APIChangeCallback
	stateChangeCallbacks           []ytapi.StateChangeCallback
	playbackQualityChangeCallbacks []ytapi.PlaybackQualityChangeCallback
	playbackRateChangeCallbacks    []ytapi.PlaybackRateChangeCallback
	errorCallbacks                 []ytapi.ErrorCallback
}

// New creates a handle and starts watching videoID. The player is created
// after Attach, once the registrar services the registration.
func New(registrar Registrar, videoID *reactive.Value[string], target Target, opts Options, logger *slog.Logger) *Handle {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handle{
		registrar: registrar,
		videoID:   videoID,
		target:    target,
		options:   withDefaultOptions(opts),
		logger:    logger,
		ctx:       context.Background(),
	}
	h.stopWatch = videoID.Watch(func(newVideoID, _ string) {
		h.handleVideoIDChange(newVideoID)
	})

	return h
}

// Use creates a handle bound to the broker carried by ctx.
func Use(ctx context.Context, videoID *reactive.Value[string], target Target, opts Options) (*Handle, error) {
	b, err := broker.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	return New(b, videoID, target, opts, slog.Default()), nil
}

// MustUse is like Use but panics when no broker is installed.
func MustUse(ctx context.Context, videoID *reactive.Value[string], target Target, opts Options) *Handle {
	h, err := Use(ctx, videoID, target, opts)
	if err != nil {
		panic(err)
	}

	return h
}

func (h *Handle) Options() Options {
	return h.options
}

// Attach registers the target element with the registrar. A target that
// resolves to nothing is skipped silently.
func (h *Handle) Attach(ctx context.Context) error {
	el, ok := Resolve(h.target)
	if !ok {
		h.logger.DebugContext(ctx, "player.Attach", "skipped", "no target element")
		return nil
	}

	h.mu.Lock()
	if h.attached || h.detached {
		h.mu.Unlock()
		return ErrAlreadyAttached
	}
	h.attached = true
	h.element = el
	// the registration may be serviced long after ctx is gone
	h.ctx = context.WithoutCancel(ctx)
	h.mu.Unlock()

	cancel := h.registrar.Register(el, h.construct)

	h.mu.Lock()
	h.cancelReg = cancel
	h.mu.Unlock()

	return nil
}

func (h *Handle) construct(reg broker.Registration) {
	h.mu.Lock()
	if h.detached {
		h.mu.Unlock()
		h.logger.Debug("player.construct", "id", reg.ID, "skipped", "detached")
		return
	}
	el := h.element
	ctx := h.ctx
	h.mu.Unlock()

	el.SetID(reg.ID)
	opts := &ytapi.Options{
		Width:      h.options.Width,
		Height:     h.options.Height,
		VideoID:    h.videoID.Get(),
		PlayerVars: h.options.PlayerVars,
		Host:       h.options.host(),
		Events:     h.events(),
	}

	instance, err := reg.Factory.NewPlayer(ctx, reg.ID, opts)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to create player", "id", reg.ID, "error", err)
		return
	}

	h.mu.Lock()
	if h.detached {
		h.mu.Unlock()
		if err := instance.Destroy(ctx); err != nil {
			h.logger.WarnContext(ctx, "failed to destroy orphaned player", "id", reg.ID, "error", err)
		}
		return
	}
	h.instance = instance
	h.shown = opts.VideoID
	h.mu.Unlock()

	h.logger.DebugContext(ctx, "player created", "id", reg.ID, "video_id", opts.VideoID)

	// a change made while the factory was busy found no instance to apply to
	if latest := h.videoID.Get(); latest != opts.VideoID {
		h.handleVideoIDChange(latest)
	}
}

// Detach destroys the player, stops watching the video id and drops a
// registration that is still waiting for the factory. No events are
// delivered afterwards.
func (h *Handle) Detach(ctx context.Context) error {
	h.mu.Lock()
	if h.detached {
		h.mu.Unlock()
		return nil
	}
	h.detached = true
	instance := h.instance
	h.instance = nil
	cancelReg := h.cancelReg
	stopWatch := h.stopWatch
	h.mu.Unlock()

	if cancelReg != nil {
		cancelReg()
	}
	stopWatch()

	if instance != nil {
		if err := instance.Destroy(ctx); err != nil {
			return fmt.Errorf("failed to destroy player: %w", err)
		}
	}

	return nil
}

// Instance returns the player once it has been created.
func (h *Handle) Instance() (ytapi.Player, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.instance, h.instance != nil
}

// ElementID returns the id of the attached element, empty before Attach.
func (h *Handle) ElementID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.element == nil {
		return ""
	}
	return h.element.ID()
}

func (h *Handle) VideoID() *reactive.Value[string] {
	return h.videoID
}

func (h *Handle) handleVideoIDChange(videoID string) {
	h.mu.Lock()
	instance := h.instance
	ctx := h.ctx
	if instance == nil || h.shown == videoID {
		h.mu.Unlock()
		return
	}
	h.shown = videoID
	h.mu.Unlock()

	settings := ytapi.VideoByIDSettings{VideoID: videoID}
	var err error
	if h.options.OnVideoIDChange == OnVideoIDChangeCue {
		err = instance.CueVideoByID(ctx, settings)
	} else {
		err = instance.LoadVideoByID(ctx, settings)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "failed to change video", "video_id", videoID, "error", err)
	}
}
