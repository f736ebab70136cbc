// Package ytapitest provides recording fakes of the ytapi interfaces.
package ytapitest

import (
	"context"
	"sync"

	"github.com/sharetube/embed/pkg/ytapi"
)

type Call struct {
	Method string
	Args   []any
}

// Player records every control call and answers getters from its fields.
type Player struct {
	ID      string
	Options ytapi.Options

	mu        sync.Mutex
	calls     []Call
	state       ytapi.PlayerState
	muted       bool
	currentTime float64
	destroyed bool
}

var _ ytapi.Player = (*Player)(nil)

func NewPlayer(id string, opts ytapi.Options) *Player {
	return &Player{ID: id, Options: opts, state: ytapi.StateUnstarted}
}

func (p *Player) record(method string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Method: method, Args: args})
}

func (p *Player) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// CallCount returns how many times method was called.
func (p *Player) CallCount(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (p *Player) SetState(state ytapi.PlayerState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
}

func (p *Player) SetCurrentTime(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentTime = seconds
}

func (p *Player) SetMuted(muted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = muted
}

func (p *Player) Destroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

// EmitReady and friends invoke the handlers the player was constructed with.
func (p *Player) EmitReady() {
	if h := p.Options.Events.OnReady; h != nil {
		h(ytapi.Event{Target: p})
	}
}

func (p *Player) EmitAPIChange() {
	if h := p.Options.Events.OnAPIChange; h != nil {
		h(ytapi.Event{Target: p})
	}
}

func (p *Player) EmitStateChange(state ytapi.PlayerState) {
	p.SetState(state)
	if h := p.Options.Events.OnStateChange; h != nil {
		h(ytapi.StateChangeEvent{Event: ytapi.Event{Target: p}, Data: state})
	}
}

func (p *Player) EmitPlaybackQualityChange(q ytapi.VideoQuality) {
	if h := p.Options.Events.OnPlaybackQualityChange; h != nil {
		h(ytapi.PlaybackQualityChangeEvent{Event: ytapi.Event{Target: p}, Data: q})
	}
}

func (p *Player) EmitPlaybackRateChange(rate float64) {
	if h := p.Options.Events.OnPlaybackRateChange; h != nil {
		h(ytapi.PlaybackRateChangeEvent{Event: ytapi.Event{Target: p}, Data: rate})
	}
}

func (p *Player) EmitError(code ytapi.PlayerError) {
	if h := p.Options.Events.OnError; h != nil {
		h(ytapi.ErrorEvent{Event: ytapi.Event{Target: p}, Data: code})
	}
}

func (p *Player) CueVideoByID(_ context.Context, s ytapi.VideoByIDSettings) error {
	p.record("cueVideoById", s)
	return nil
}

func (p *Player) LoadVideoByID(_ context.Context, s ytapi.VideoByIDSettings) error {
	p.record("loadVideoById", s)
	return nil
}

func (p *Player) CueVideoByURL(_ context.Context, s ytapi.VideoByURLSettings) error {
	p.record("cueVideoByUrl", s)
	return nil
}

func (p *Player) LoadVideoByURL(_ context.Context, s ytapi.VideoByURLSettings) error {
	p.record("loadVideoByUrl", s)
	return nil
}

func (p *Player) CuePlaylist(_ context.Context, s ytapi.PlaylistSettings) error {
	p.record("cuePlaylist", s)
	return nil
}

func (p *Player) LoadPlaylist(_ context.Context, s ytapi.PlaylistSettings) error {
	p.record("loadPlaylist", s)
	return nil
}

func (p *Player) PlayVideo(context.Context) error {
	p.record("playVideo")
	return nil
}

func (p *Player) PauseVideo(context.Context) error {
	p.record("pauseVideo")
	return nil
}

func (p *Player) StopVideo(context.Context) error {
	p.record("stopVideo")
	return nil
}

func (p *Player) SeekTo(_ context.Context, seconds float64, allowSeekAhead bool) error {
	p.record("seekTo", seconds, allowSeekAhead)
	return nil
}

func (p *Player) NextVideo(context.Context) error {
	p.record("nextVideo")
	return nil
}

func (p *Player) PreviousVideo(context.Context) error {
	p.record("previousVideo")
	return nil
}

func (p *Player) PlayVideoAt(_ context.Context, index int) error {
	p.record("playVideoAt", index)
	return nil
}

func (p *Player) SetLoop(_ context.Context, loop bool) error {
	p.record("setLoop", loop)
	return nil
}

func (p *Player) SetShuffle(_ context.Context, shuffle bool) error {
	p.record("setShuffle", shuffle)
	return nil
}

func (p *Player) GetPlaylist(context.Context) ([]string, error) {
	p.record("getPlaylist")
	return nil, nil
}

func (p *Player) GetPlaylistIndex(context.Context) (int, error) {
	p.record("getPlaylistIndex")
	return 0, nil
}

func (p *Player) Mute(context.Context) error {
	p.record("mute")
	p.SetMuted(true)
	return nil
}

func (p *Player) UnMute(context.Context) error {
	p.record("unMute")
	p.SetMuted(false)
	return nil
}

func (p *Player) IsMuted(context.Context) (bool, error) {
	p.record("isMuted")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted, nil
}

func (p *Player) SetVolume(_ context.Context, volume int) error {
	p.record("setVolume", volume)
	return nil
}

func (p *Player) GetVolume(context.Context) (int, error) {
	p.record("getVolume")
	return 100, nil
}

func (p *Player) SetSize(_ context.Context, width, height int) error {
	p.record("setSize", width, height)
	return nil
}

func (p *Player) GetPlaybackRate(context.Context) (float64, error) {
	p.record("getPlaybackRate")
	return 1, nil
}

func (p *Player) SetPlaybackRate(_ context.Context, rate float64) error {
	p.record("setPlaybackRate", rate)
	return nil
}

func (p *Player) GetAvailablePlaybackRates(context.Context) ([]float64, error) {
	p.record("getAvailablePlaybackRates")
	return []float64{0.5, 1, 1.5, 2}, nil
}

func (p *Player) GetPlaybackQuality(context.Context) (ytapi.VideoQuality, error) {
	p.record("getPlaybackQuality")
	return ytapi.QualityDefault, nil
}

func (p *Player) SetPlaybackQuality(_ context.Context, q ytapi.VideoQuality) error {
	p.record("setPlaybackQuality", q)
	return nil
}

func (p *Player) GetAvailableQualityLevels(context.Context) ([]ytapi.VideoQuality, error) {
	p.record("getAvailableQualityLevels")
	return []ytapi.VideoQuality{ytapi.QualityDefault}, nil
}

func (p *Player) GetVideoLoadedFraction(context.Context) (float64, error) {
	p.record("getVideoLoadedFraction")
	return 0, nil
}

func (p *Player) GetPlayerState(context.Context) (ytapi.PlayerState, error) {
	p.record("getPlayerState")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, nil
}

func (p *Player) GetCurrentTime(context.Context) (float64, error) {
	p.record("getCurrentTime")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentTime, nil
}

func (p *Player) GetDuration(context.Context) (float64, error) {
	p.record("getDuration")
	return 0, nil
}

func (p *Player) GetVideoURL(context.Context) (string, error) {
	p.record("getVideoUrl")
	return "https://www.youtube.com/watch?v=" + p.Options.VideoID, nil
}

func (p *Player) GetVideoEmbedCode(context.Context) (string, error) {
	p.record("getVideoEmbedCode")
	return "", nil
}

func (p *Player) Destroy(context.Context) error {
	p.record("destroy")
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = true
	return nil
}

// Factory hands out fake players and remembers them by element id.
type Factory struct {
	mu      sync.Mutex
	players []*Player
	// Err, when set, is returned by NewPlayer instead of a player.
	Err error
}

var _ ytapi.Factory = (*Factory)(nil)

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) NewPlayer(_ context.Context, elementID string, opts *ytapi.Options) (ytapi.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}

	p := NewPlayer(elementID, *opts)
	f.players = append(f.players, p)
	return p, nil
}

// Players returns the created players in creation order.
func (f *Factory) Players() []*Player {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Player(nil), f.players...)
}

// Player returns the most recent player created for elementID.
func (f *Factory) Player(elementID string) (*Player, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.players) - 1; i >= 0; i-- {
		if f.players[i].ID == elementID {
			return f.players[i], true
		}
	}
	return nil, false
}
