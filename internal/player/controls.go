package player

import (
	"context"
	"fmt"

	"github.com/sharetube/embed/pkg/ytapi"
)

// TogglePlay pauses a playing video and plays anything else. It does
// nothing before the player exists.
func (h *Handle) TogglePlay(ctx context.Context) error {
	instance, ok := h.Instance()
	if !ok {
		return nil
	}

	state, err := instance.GetPlayerState(ctx)
	if err != nil {
		return fmt.Errorf("failed to get player state: %w", err)
	}

	if state == ytapi.StatePlaying {
		return instance.PauseVideo(ctx)
	}

	return instance.PlayVideo(ctx)
}

func (h *Handle) ToggleMute(ctx context.Context) error {
	instance, ok := h.Instance()
	if !ok {
		return nil
	}

	muted, err := instance.IsMuted(ctx)
	if err != nil {
		return fmt.Errorf("failed to get muted: %w", err)
	}

	if muted {
		return instance.UnMute(ctx)
	}

	return instance.Mute(ctx)
}

// ToggleShuffle flips the local shuffle flag and mirrors it to the player.
func (h *Handle) ToggleShuffle(ctx context.Context) error {
	h.mu.Lock()
	h.shuffle = !h.shuffle
	shuffle := h.shuffle
	instance := h.instance
	h.mu.Unlock()

	if instance == nil {
		return nil
	}

	return instance.SetShuffle(ctx, shuffle)
}

// ToggleLoop flips the local loop flag and mirrors it to the player.
func (h *Handle) ToggleLoop(ctx context.Context) error {
	h.mu.Lock()
	h.loop = !h.loop
	loop := h.loop
	instance := h.instance
	h.mu.Unlock()

	if instance == nil {
		return nil
	}

	return instance.SetLoop(ctx, loop)
}

func (h *Handle) Shuffle() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shuffle
}

func (h *Handle) Loop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loop
}
