package api

import "time"

// Track is an opaque identifier naming a streamable track. It is used both as
// the catalog key and as the path segment of the stream endpoint.
type Track string

func (t Track) String() string {
	return string(t)
}

// TrackInfo holds display-only tags read from a loaded stream.
type TrackInfo struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// Display fills missing fields with the track identifier and placeholders
func (i TrackInfo) Display(track Track) TrackInfo {
	return TrackInfo{
		Title:  getOrDefault(i.Title, string(track)),
		Artist: getOrDefault(i.Artist, "Unknown Artist"),
		Album:  i.Album,
	}
}

// getOrDefault returns the value if non-empty, otherwise returns the default
func getOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

// Status is the playback state machine position
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPlaying
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Session is the playback session owned by the playback controller.
// Volume is the remembered non-zero level; the audible level is EffectiveVolume.
type Session struct {
	CurrentTrack *Track
	Status       Status
	Position     time.Duration
	Duration     time.Duration
	Volume       float64
	Muted        bool
	Loop         bool
	Interacted   bool
	Info         TrackInfo
}

// Playing reports whether audio is currently audible-or-advancing
func (s Session) Playing() bool {
	return s.Status == StatusPlaying
}

// EffectiveVolume is the level actually applied to the media handle
func (s Session) EffectiveVolume() float64 {
	if s.Muted {
		return 0
	}
	return s.Volume
}

// Copy returns a deep copy safe to hand to readers
func (s Session) Copy() Session {
	if s.CurrentTrack != nil {
		track := *s.CurrentTrack
		s.CurrentTrack = &track
	}
	return s
}

// EventType identifies media handle events
type EventType int

const (
	EventLoaded EventType = iota
	EventTimeUpdate
	EventEnded
	EventError
)

func (e EventType) String() string {
	switch e {
	case EventLoaded:
		return "loaded"
	case EventTimeUpdate:
		return "timeupdate"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// AllEventTypes lists every event a media handle can publish
func AllEventTypes() []EventType {
	return []EventType{EventLoaded, EventTimeUpdate, EventEnded, EventError}
}

// MediaEvent is published by a media handle. Generation identifies the Load
// call the event belongs to.
type MediaEvent struct {
	Type       EventType
	Generation uint64
	Position   time.Duration
	Duration   time.Duration
	Info       TrackInfo
	Err        error
}

// MediaHandle is the single audio output owned by the playback controller.
// Load is asynchronous: its outcome arrives as EventLoaded or EventError
// carrying the returned generation.
type MediaHandle interface {
	Load(source string) uint64
	Play() error
	Pause()
	Seek(position time.Duration) error
	SetVolume(level float64)
	SetLoop(loop bool)
	Position() time.Duration
	Unload()
}

// CommandType identifies a transport command
type CommandType int

const (
	CmdPlay CommandType = iota
	CmdCue
	CmdTogglePlay
	CmdNext
	CmdPrevious
	CmdSeek
	CmdSeekBy
	CmdSetVolume
	CmdAdjustVolume
	CmdToggleMute
	CmdToggleLoop
)

// Command is sent from the view to the playback controller
type Command struct {
	Type     CommandType
	Track    Track
	Position time.Duration
	Volume   float64
}
