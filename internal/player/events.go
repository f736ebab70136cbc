package player

import (
	"golang.org/x/exp/slices"

	"github.com/sharetube/embed/pkg/ytapi"
)

// OnReady registers callbacks run when the player is ready.
func (h *Handle) OnReady(cbs ...ytapi.ReadyCallback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readyCallbacks = append(h.readyCallbacks, cbs...)
}

func (h *Handle) OnAPIChange(cbs ...ytapi.APIChangeCallback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.apiChangeCallbacks = append(h.apiChangeCallbacks, cbs...)
}

func (h *Handle) OnStateChange(cbs ...ytapi.StateChangeCallback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stateChangeCallbacks = append(h.stateChangeCallbacks, cbs...)
}

func (h *Handle) OnPlaybackQualityChange(cbs ...ytapi.PlaybackQualityChangeCallback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playbackQualityChangeCallbacks = append(h.playbackQualityChangeCallbacks, cbs...)
}

func (h *Handle) OnPlaybackRateChange(cbs ...ytapi.PlaybackRateChangeCallback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playbackRateChangeCallbacks = append(h.playbackRateChangeCallbacks, cbs...)
}

func (h *Handle) OnError(cbs ...ytapi.ErrorCallback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errorCallbacks = append(h.errorCallbacks, cbs...)
}

func (h *Handle) events() ytapi.Events {
	return ytapi.Events{
		OnReady:                 trigger(h, &h.readyCallbacks),
		OnAPIChange:             trigger(h, &h.apiChangeCallbacks),
		OnStateChange:           trigger(h, &h.stateChangeCallbacks),
		OnPlaybackQualityChange: trigger(h, &h.playbackQualityChangeCallbacks),
		OnPlaybackRateChange:    trigger(h, &h.playbackRateChangeCallbacks),
		OnError:                 trigger(h, &h.errorCallbacks),
	}
}

// trigger fans an event out to the callbacks registered at the time it
// fires, in registration order.
func trigger[E any, C ~func(E)](h *Handle, cbs *[]C) func(E) {
	return func(event E) {
		h.mu.Lock()
		if h.detached {
			h.mu.Unlock()
			return
		}
		list := slices.Clone(*cbs)
		h.mu.Unlock()

		for _, cb := range list {
			cb(event)
		}
	}
}
