package player

import (
	"github.com/sharetube/embed/pkg/ytapi"
)

// OnVideoIDChange selects what happens to the player when the video id changes.
type OnVideoIDChange string

const (
	// OnVideoIDChangePlay loads and plays the new video.
	OnVideoIDChangePlay OnVideoIDChange = "play"
	// OnVideoIDChangeCue loads the new video without playing it.
	OnVideoIDChangeCue OnVideoIDChange = "cue"
)

const (
	DefaultWidth  = 1280
	DefaultHeight = 720
)

type Options struct {
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	PlayerVars ytapi.PlayerVars `json:"player_vars"`
	// Cookie selects the cookie-enabled host. Nil means true.
	Cookie          *bool           `json:"cookie"`
	OnVideoIDChange OnVideoIDChange `json:"on_video_id_change"`
}

func withDefaultOptions(opts Options) Options {
	if opts.Width == 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height == 0 {
		opts.Height = DefaultHeight
	}
	if opts.PlayerVars == nil {
		opts.PlayerVars = ytapi.PlayerVars{}
	}
	if opts.Cookie == nil {
		cookie := true
		opts.Cookie = &cookie
	}
	if opts.OnVideoIDChange == "" {
		opts.OnVideoIDChange = OnVideoIDChangePlay
	}

	return opts
}

func (o Options) host() string {
	return ytapi.Host(o.Cookie == nil || *o.Cookie)
}
