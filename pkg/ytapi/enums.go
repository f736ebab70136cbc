package ytapi

import "strconv"

// PlayerState mirrors the values reported by getPlayerState and onStateChange.
type PlayerState int

const (
	StateUnstarted PlayerState = -1
	StateEnded     PlayerState = 0
	StatePlaying   PlayerState = 1
	StatePaused    PlayerState = 2
	StateBuffering PlayerState = 3
	StateVideoCued PlayerState = 5
)

func (s PlayerState) String() string {
	switch s {
	case StateUnstarted:
		return "UNSTARTED"
	case StateEnded:
		return "ENDED"
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	case StateBuffering:
		return "BUFFERING"
	case StateVideoCued:
		return "VIDEO_CUED"
	default:
		return "STATE(" + strconv.Itoa(int(s)) + ")"
	}
}

// PlayerError mirrors the codes delivered with onError.
type PlayerError int

const (
	ErrorInvalidParameter   PlayerError = 2
	ErrorHTML5              PlayerError = 5
	ErrorNotFound           PlayerError = 100
	ErrorNotAllowed         PlayerError = 101
	ErrorNotAllowedDisguise PlayerError = 150
)

func (e PlayerError) String() string {
	switch e {
	case ErrorInvalidParameter:
		return "INVALID_PARAMETER"
	case ErrorHTML5:
		return "HTML5_ERROR"
	case ErrorNotFound:
		return "NOT_FOUND"
	case ErrorNotAllowed:
		return "NOT_ALLOWED"
	case ErrorNotAllowedDisguise:
		return "NOT_ALLOWED_DISGUISE"
	default:
		return "ERROR(" + strconv.Itoa(int(e)) + ")"
	}
}

type VideoQuality string

const (
	QualityDefault VideoQuality = "default"
	QualitySmall   VideoQuality = "small"
	QualityMedium  VideoQuality = "medium"
	QualityLarge   VideoQuality = "large"
	QualityHD720   VideoQuality = "hd720"
	QualityHD1080  VideoQuality = "hd1080"
	QualityHighres VideoQuality = "highres"
)

func (q VideoQuality) String() string {
	return string(q)
}
