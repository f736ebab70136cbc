package ytapi

const (
	// ScriptURL is the external player script inserted into the page.
	ScriptURL = "https://www.youtube.com/player_api"

	HostCookie   = "https://www.youtube.com"
	HostNoCookie = "https://www.youtube-nocookie.com"
)

// PlayerVars is forwarded verbatim to the player constructor.
//
// See https://developers.google.com/youtube/player_parameters#Parameters.
type PlayerVars map[string]any

// Options is the constructor argument of Factory.NewPlayer.
type Options struct {
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	VideoID    string     `json:"videoId"`
	PlayerVars PlayerVars `json:"playerVars"`
	Host       string     `json:"host"`
	Events     Events     `json:"-"`
}

// Host returns the embed origin for the cookie setting.
func Host(cookie bool) string {
	if cookie {
		return HostCookie
	}

	return HostNoCookie
}

type VideoByIDSettings struct {
	VideoID          string       `json:"videoId"`
	StartSeconds     float64      `json:"startSeconds,omitempty"`
	EndSeconds       float64      `json:"endSeconds,omitempty"`
	SuggestedQuality VideoQuality `json:"suggestedQuality,omitempty"`
}

type VideoByURLSettings struct {
	MediaContentURL  string       `json:"mediaContentUrl"`
	StartSeconds     float64      `json:"startSeconds,omitempty"`
	EndSeconds       float64      `json:"endSeconds,omitempty"`
	SuggestedQuality VideoQuality `json:"suggestedQuality,omitempty"`
}

type PlaylistSettings struct {
	Playlist         []string     `json:"playlist"`
	Index            int          `json:"index,omitempty"`
	StartSeconds     float64      `json:"startSeconds,omitempty"`
	SuggestedQuality VideoQuality `json:"suggestedQuality,omitempty"`
}
