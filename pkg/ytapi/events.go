package ytapi

type Event struct {
	Target Player
}

type StateChangeEvent struct {
	Event
	Data PlayerState
}

type PlaybackQualityChangeEvent struct {
	Event
	Data VideoQuality
}

type PlaybackRateChangeEvent struct {
	Event
	Data float64
}

type ErrorEvent struct {
	Event
	Data PlayerError
}

type (
	ReadyCallback                 func(Event)
	APIChangeCallback             func(Event)
	StateChangeCallback           func(StateChangeEvent)
	PlaybackQualityChangeCallback func(PlaybackQualityChangeEvent)
	PlaybackRateChangeCallback    func(PlaybackRateChangeEvent)
	ErrorCallback                 func(ErrorEvent)
)

// Events holds one handler per event kind. Nil handlers are skipped.
type Events struct {
	OnReady                 ReadyCallback
	OnAPIChange             APIChangeCallback
	OnStateChange           StateChangeCallback
	OnPlaybackQualityChange PlaybackQualityChangeCallback
	OnPlaybackRateChange    PlaybackRateChangeCallback
	OnError                 ErrorCallback
}

// EventKind names an event on the wire.
type EventKind string

const (
	EventReady                 EventKind = "onReady"
	EventAPIChange             EventKind = "onApiChange"
	EventStateChange           EventKind = "onStateChange"
	EventPlaybackQualityChange EventKind = "onPlaybackQualityChange"
	EventPlaybackRateChange    EventKind = "onPlaybackRateChange"
	EventError                 EventKind = "onError"
)
