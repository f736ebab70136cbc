package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sharetube/embed/pkg/ytapi"
)

// remotePlayer forwards calls to the player with the same id in the page.
// Controls return once the call is written; getters wait for the result.
type remotePlayer struct {
	id      string
	session *Session
	events  ytapi.Events
}

var _ ytapi.Player = (*remotePlayer)(nil)

func get[T any](ctx context.Context, p *remotePlayer, method string, args ...any) (T, error) {
	var v T
	if err := p.session.query(ctx, p.id, method, &v, args...); err != nil {
		return v, err
	}

	return v, nil
}

func (p *remotePlayer) dispatch(kind ytapi.EventKind, data json.RawMessage) error {
	base := ytapi.Event{Target: p}

	switch kind {
	case ytapi.EventReady:
		if p.events.OnReady != nil {
			p.events.OnReady(base)
		}
	case ytapi.EventAPIChange:
		if p.events.OnAPIChange != nil {
			p.events.OnAPIChange(base)
		}
	case ytapi.EventStateChange:
		var state ytapi.PlayerState
		if err := json.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("failed to decode state: %w", err)
		}
		if p.events.OnStateChange != nil {
			p.events.OnStateChange(ytapi.StateChangeEvent{Event: base, Data: state})
		}
	case ytapi.EventPlaybackQualityChange:
		var quality ytapi.VideoQuality
		if err := json.Unmarshal(data, &quality); err != nil {
			return fmt.Errorf("failed to decode quality: %w", err)
		}
		if p.events.OnPlaybackQualityChange != nil {
			p.events.OnPlaybackQualityChange(ytapi.PlaybackQualityChangeEvent{Event: base, Data: quality})
		}
	case ytapi.EventPlaybackRateChange:
		var rate float64
		if err := json.Unmarshal(data, &rate); err != nil {
			return fmt.Errorf("failed to decode rate: %w", err)
		}
		if p.events.OnPlaybackRateChange != nil {
			p.events.OnPlaybackRateChange(ytapi.PlaybackRateChangeEvent{Event: base, Data: rate})
		}
	case ytapi.EventError:
		var code ytapi.PlayerError
		if err := json.Unmarshal(data, &code); err != nil {
			return fmt.Errorf("failed to decode error code: %w", err)
		}
		if p.events.OnError != nil {
			p.events.OnError(ytapi.ErrorEvent{Event: base, Data: code})
		}
	default:
		return fmt.Errorf("unknown event kind %q", kind)
	}

	return nil
}

func (p *remotePlayer) CueVideoByID(_ context.Context, settings ytapi.VideoByIDSettings) error {
	return p.session.call(p.id, "cueVideoById", settings)
}

func (p *remotePlayer) LoadVideoByID(_ context.Context, settings ytapi.VideoByIDSettings) error {
	return p.session.call(p.id, "loadVideoById", settings)
}

func (p *remotePlayer) CueVideoByURL(_ context.Context, settings ytapi.VideoByURLSettings) error {
	return p.session.call(p.id, "cueVideoByUrl", settings)
}

func (p *remotePlayer) LoadVideoByURL(_ context.Context, settings ytapi.VideoByURLSettings) error {
	return p.session.call(p.id, "loadVideoByUrl", settings)
}

func (p *remotePlayer) CuePlaylist(_ context.Context, settings ytapi.PlaylistSettings) error {
	return p.session.call(p.id, "cuePlaylist", settings)
}

func (p *remotePlayer) LoadPlaylist(_ context.Context, settings ytapi.PlaylistSettings) error {
	return p.session.call(p.id, "loadPlaylist", settings)
}

func (p *remotePlayer) PlayVideo(context.Context) error {
	return p.session.call(p.id, "playVideo")
}

func (p *remotePlayer) PauseVideo(context.Context) error {
	return p.session.call(p.id, "pauseVideo")
}

func (p *remotePlayer) StopVideo(context.Context) error {
	return p.session.call(p.id, "stopVideo")
}

func (p *remotePlayer) SeekTo(_ context.Context, seconds float64, allowSeekAhead bool) error {
	return p.session.call(p.id, "seekTo", seconds, allowSeekAhead)
}

func (p *remotePlayer) NextVideo(context.Context) error {
	return p.session.call(p.id, "nextVideo")
}

func (p *remotePlayer) PreviousVideo(context.Context) error {
	return p.session.call(p.id, "previousVideo")
}

func (p *remotePlayer) PlayVideoAt(_ context.Context, index int) error {
	return p.session.call(p.id, "playVideoAt", index)
}

func (p *remotePlayer) SetLoop(_ context.Context, loopPlaylists bool) error {
	return p.session.call(p.id, "setLoop", loopPlaylists)
}

func (p *remotePlayer) SetShuffle(_ context.Context, shufflePlaylist bool) error {
	return p.session.call(p.id, "setShuffle", shufflePlaylist)
}

func (p *remotePlayer) GetPlaylist(ctx context.Context) ([]string, error) {
	return get[[]string](ctx, p, "getPlaylist")
}

func (p *remotePlayer) GetPlaylistIndex(ctx context.Context) (int, error) {
	return get[int](ctx, p, "getPlaylistIndex")
}

func (p *remotePlayer) Mute(context.Context) error {
	return p.session.call(p.id, "mute")
}

func (p *remotePlayer) UnMute(context.Context) error {
	return p.session.call(p.id, "unMute")
}

func (p *remotePlayer) IsMuted(ctx context.Context) (bool, error) {
	return get[bool](ctx, p, "isMuted")
}

func (p *remotePlayer) SetVolume(_ context.Context, volume int) error {
	return p.session.call(p.id, "setVolume", volume)
}

func (p *remotePlayer) GetVolume(ctx context.Context) (int, error) {
	return get[int](ctx, p, "getVolume")
}

func (p *remotePlayer) SetSize(_ context.Context, width, height int) error {
	return p.session.call(p.id, "setSize", width, height)
}

func (p *remotePlayer) GetPlaybackRate(ctx context.Context) (float64, error) {
	return get[float64](ctx, p, "getPlaybackRate")
}

func (p *remotePlayer) SetPlaybackRate(_ context.Context, suggestedRate float64) error {
	return p.session.call(p.id, "setPlaybackRate", suggestedRate)
}

func (p *remotePlayer) GetAvailablePlaybackRates(ctx context.Context) ([]float64, error) {
	return get[[]float64](ctx, p, "getAvailablePlaybackRates")
}

func (p *remotePlayer) GetPlaybackQuality(ctx context.Context) (ytapi.VideoQuality, error) {
	return get[ytapi.VideoQuality](ctx, p, "getPlaybackQuality")
}

func (p *remotePlayer) SetPlaybackQuality(_ context.Context, suggestedQuality ytapi.VideoQuality) error {
	return p.session.call(p.id, "setPlaybackQuality", suggestedQuality)
}

func (p *remotePlayer) GetAvailableQualityLevels(ctx context.Context) ([]ytapi.VideoQuality, error) {
	return get[[]ytapi.VideoQuality](ctx, p, "getAvailableQualityLevels")
}

func (p *remotePlayer) GetVideoLoadedFraction(ctx context.Context) (float64, error) {
	return get[float64](ctx, p, "getVideoLoadedFraction")
}

func (p *remotePlayer) GetPlayerState(ctx context.Context) (ytapi.PlayerState, error) {
	return get[ytapi.PlayerState](ctx, p, "getPlayerState")
}

func (p *remotePlayer) GetCurrentTime(ctx context.Context) (float64, error) {
	return get[float64](ctx, p, "getCurrentTime")
}

func (p *remotePlayer) GetDuration(ctx context.Context) (float64, error) {
	return get[float64](ctx, p, "getDuration")
}

func (p *remotePlayer) GetVideoURL(ctx context.Context) (string, error) {
	return get[string](ctx, p, "getVideoUrl")
}

func (p *remotePlayer) GetVideoEmbedCode(ctx context.Context) (string, error) {
	return get[string](ctx, p, "getVideoEmbedCode")
}

// Destroy removes the player from the page. Events for it are dropped
// afterwards.
func (p *remotePlayer) Destroy(context.Context) error {
	p.session.forget(p.id, p)
	return p.session.call(p.id, "destroy")
}
