// Package ytapi describes the embeddable player API the rest of the module
// programs against. The real API lives in the browser and is reached through
// an adapter; nothing here talks to it directly.
package ytapi

import "context"

// Factory constructs players bound to an element id. It becomes available
// once the external script signals readiness.
type Factory interface {
	NewPlayer(ctx context.Context, elementID string, opts *Options) (Player, error)
}

// ReadyFunc is the readiness hook the external script calls exactly once.
type ReadyFunc func(Factory)

// Player is the control surface of a single embedded player.
//
// See https://developers.google.com/youtube/iframe_api_reference#Functions.
type Player interface {
	// queueing
	CueVideoByID(ctx context.Context, settings VideoByIDSettings) error
	LoadVideoByID(ctx context.Context, settings VideoByIDSettings) error
	CueVideoByURL(ctx context.Context, settings VideoByURLSettings) error
	LoadVideoByURL(ctx context.Context, settings VideoByURLSettings) error
	CuePlaylist(ctx context.Context, settings PlaylistSettings) error
	LoadPlaylist(ctx context.Context, settings PlaylistSettings) error

	// playback
	PlayVideo(ctx context.Context) error
	PauseVideo(ctx context.Context) error
	StopVideo(ctx context.Context) error
	SeekTo(ctx context.Context, seconds float64, allowSeekAhead bool) error

	// playlist
	NextVideo(ctx context.Context) error
	PreviousVideo(ctx context.Context) error
	PlayVideoAt(ctx context.Context, index int) error
	SetLoop(ctx context.Context, loopPlaylists bool) error
	SetShuffle(ctx context.Context, shufflePlaylist bool) error
	GetPlaylist(ctx context.Context) ([]string, error)
	GetPlaylistIndex(ctx context.Context) (int, error)

	// volume
	Mute(ctx context.Context) error
	UnMute(ctx context.Context) error
	IsMuted(ctx context.Context) (bool, error)
	SetVolume(ctx context.Context, volume int) error
	GetVolume(ctx context.Context) (int, error)

	// size, rate and quality
	SetSize(ctx context.Context, width, height int) error
	GetPlaybackRate(ctx context.Context) (float64, error)
	SetPlaybackRate(ctx context.Context, suggestedRate float64) error
	GetAvailablePlaybackRates(ctx context.Context) ([]float64, error)
	GetPlaybackQuality(ctx context.Context) (VideoQuality, error)
	SetPlaybackQuality(ctx context.Context, suggestedQuality VideoQuality) error
	GetAvailableQualityLevels(ctx context.Context) ([]VideoQuality, error)

	// status
	GetVideoLoadedFraction(ctx context.Context) (float64, error)
	GetPlayerState(ctx context.Context) (PlayerState, error)
	GetCurrentTime(ctx context.Context) (float64, error)
	GetDuration(ctx context.Context) (float64, error)
	GetVideoURL(ctx context.Context) (string, error)
	GetVideoEmbedCode(ctx context.Context) (string, error)

	// Destroy removes the embed from the page.
	Destroy(ctx context.Context) error
}
