package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jscyril/sonicstream/api"
	"github.com/jscyril/sonicstream/internal/catalog"
	playerrors "github.com/jscyril/sonicstream/pkg/errors"
	"github.com/jscyril/sonicstream/pkg/events"
	"github.com/rs/zerolog/log"
)

// TrackSource provides the catalog the controller navigates
type TrackSource interface {
	Tracks() []api.Track
}

// Options configures a Controller
type Options struct {
	Volume   float64
	Loop     bool
	Autoplay bool // treat the session as already interacted
}

// Controller owns the media handle and the playback session. All transport
// operations go through it; the view only reads sessions and sends commands.
type Controller struct {
	handle    api.MediaHandle
	bus       *events.EventBus
	tracks    TrackSource
	streamURL func(api.Track) string
	handlers  map[api.EventType]func(api.MediaEvent)

	mu         sync.Mutex
	session    api.Session
	generation uint64 // generation of the current Load
	loaded     bool   // the current Load delivered a stream
	updates    chan api.Session
	closed     bool
}

// NewController creates a controller driving handle. Media events are read
// from bus once Run is called.
func NewController(handle api.MediaHandle, bus *events.EventBus, tracks TrackSource, streamURL func(api.Track) string, opts Options) *Controller {
	c := &Controller{
		handle:    handle,
		bus:       bus,
		tracks:    tracks,
		streamURL: streamURL,
		session:   newSession(opts.Volume, opts.Loop, opts.Autoplay),
		updates:   make(chan api.Session, 1),
	}
	c.handlers = map[api.EventType]func(api.MediaEvent){
		api.EventLoaded:     c.onLoaded,
		api.EventTimeUpdate: c.onTimeUpdate,
		api.EventEnded:      c.onEnded,
		api.EventError:      c.onError,
	}

	handle.SetVolume(c.session.EffectiveVolume())
	handle.SetLoop(c.session.Loop)
	return c
}

// State returns a copy of the current session
func (c *Controller) State() api.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Copy()
}

// Updates delivers the newest session after each change. Only the latest
// session is kept if the reader falls behind.
func (c *Controller) Updates() <-chan api.Session {
	return c.updates
}

// Run handles media events until ctx is done, then deregisters from the bus
func (c *Controller) Run(ctx context.Context) error {
	ch := c.bus.SubscribeAll()
	defer c.bus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			c.HandleEvent(ev)
		}
	}
}

// HandleEvent applies one media event. Events from superseded loads are
// ignored.
func (c *Controller) HandleEvent(ev api.MediaEvent) {
	handler, ok := c.handlers[ev.Type]
	if !ok {
		return
	}
	handler(ev)
}

// Play loads track and starts it once loaded
func (c *Controller) Play(track api.Track) error {
	return c.load(track, true)
}

// Cue loads track without counting as a user gesture. It starts only if the
// session has already been interacted with.
func (c *Controller) Cue(track api.Track) error {
	return c.load(track, false)
}

func (c *Controller) load(track api.Track, interacted bool) error {
	if track == "" {
		op := "cue"
		if interacted {
			op = "play"
		}
		return playerrors.NewPlayerError(op, "", playerrors.ErrTrackNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadLocked(track, interacted)
	return nil
}

func (c *Controller) loadLocked(track api.Track, interacted bool) {
	c.session = applyLoad(c.session, track, interacted)
	c.loaded = false
	c.generation = c.handle.Load(c.streamURL(track))
	log.Debug().Str("track", track.String()).Uint64("generation", c.generation).Msg("loading track")
	c.notifyLocked()
}

// TogglePlay pauses when playing and resumes when paused. With nothing
// loaded it plays the first catalog track. Requests while loading are
// ignored.
func (c *Controller) TogglePlay() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.session.CurrentTrack == nil || c.session.Status == api.StatusIdle:
		track := c.session.CurrentTrack
		if track == nil {
			tracks := c.tracks.Tracks()
			if len(tracks) == 0 {
				return playerrors.NewPlayerError("toggle", "", playerrors.ErrEmptyCatalog)
			}
			track = &tracks[0]
		}
		c.loadLocked(*track, true)
	case c.session.Status == api.StatusLoading:
		return nil
	case c.session.Status == api.StatusPlaying:
		c.handle.Pause()
		c.session.Status = api.StatusPaused
		c.notifyLocked()
	case c.session.Status == api.StatusPaused && !c.loaded:
		// The last load failed; try the track again
		c.loadLocked(*c.session.CurrentTrack, true)
	case c.session.Status == api.StatusPaused:
		c.session.Interacted = true
		c.startLocked()
		c.notifyLocked()
	}
	return nil
}

// startLocked asks the handle to play. A rejected request is logged and
// leaves the session paused.
func (c *Controller) startLocked() {
	if err := c.handle.Play(); err != nil {
		err = playerrors.NewPlaybackRequestError("play", c.currentLocked(), err)
		log.Error().Err(err).Msg("playback request rejected")
		c.session.Status = api.StatusPaused
		return
	}
	c.session.Status = api.StatusPlaying
}

// Next plays the following catalog track, wrapping to the first
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stepLocked(1)
	return nil
}

// Previous plays the preceding catalog track, wrapping to the last
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stepLocked(-1)
	return nil
}

// stepLocked plays the track step positions away. It reports false when
// there is no current track or the catalog is empty.
func (c *Controller) stepLocked(step int) bool {
	if c.session.CurrentTrack == nil {
		return false
	}
	track, ok := catalog.Adjacent(c.tracks.Tracks(), *c.session.CurrentTrack, step)
	if !ok {
		return false
	}
	c.loadLocked(track, true)
	return true
}

// Seek moves to position, clamped to [0, duration]. Without a loaded stream
// it does nothing.
func (c *Controller) Seek(position time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seekLocked(position)
}

// SeekBy moves relative to the current position
func (c *Controller) SeekBy(delta time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seekLocked(c.session.Position + delta)
}

func (c *Controller) seekLocked(position time.Duration) error {
	if !c.loaded || !hasSource(c.session) {
		return nil
	}
	position = clampSeek(position, c.session.Duration)
	if err := c.handle.Seek(position); err != nil {
		err = playerrors.NewPlaybackRequestError("seek", c.currentLocked(), err)
		log.Error().Err(err).Dur("position", position).Msg("seek rejected")
		return err
	}
	// The handle snaps to a frame boundary
	c.session.Position = clampSeek(c.handle.Position(), c.session.Duration)
	c.notifyLocked()
	return nil
}

// SetVolume sets the level in [0, 1]. Zero mutes and keeps the remembered
// level for ToggleMute.
func (c *Controller) SetVolume(v float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := applyVolume(c.session, v)
	if err != nil {
		return err
	}
	c.session = next
	c.handle.SetVolume(c.session.EffectiveVolume())
	c.notifyLocked()
	return nil
}

// AdjustVolume moves the audible level by delta, clamped to [0, 1]
func (c *Controller) AdjustVolume(delta float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = adjustVolume(c.session, delta)
	c.handle.SetVolume(c.session.EffectiveVolume())
	c.notifyLocked()
	return nil
}

// ToggleMute swaps between silence and the remembered level
func (c *Controller) ToggleMute() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session = applyToggleMute(c.session)
	c.handle.SetVolume(c.session.EffectiveVolume())
	c.notifyLocked()
	return nil
}

// ToggleLoop flips the loop flag and mirrors it to the handle
func (c *Controller) ToggleLoop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.Loop = !c.session.Loop
	c.handle.SetLoop(c.session.Loop)
	c.notifyLocked()
	return nil
}

// Dispatch executes a command from the view
func (c *Controller) Dispatch(cmd api.Command) error {
	switch cmd.Type {
	case api.CmdPlay:
		return c.Play(cmd.Track)
	case api.CmdCue:
		return c.Cue(cmd.Track)
	case api.CmdTogglePlay:
		return c.TogglePlay()
	case api.CmdNext:
		return c.Next()
	case api.CmdPrevious:
		return c.Previous()
	case api.CmdSeek:
		return c.Seek(cmd.Position)
	case api.CmdSeekBy:
		return c.SeekBy(cmd.Position)
	case api.CmdSetVolume:
		return c.SetVolume(cmd.Volume)
	case api.CmdAdjustVolume:
		return c.AdjustVolume(cmd.Volume)
	case api.CmdToggleMute:
		return c.ToggleMute()
	case api.CmdToggleLoop:
		return c.ToggleLoop()
	default:
		return fmt.Errorf("unknown command type %d", cmd.Type)
	}
}

// Close pauses the handle and releases its source. The session keeps its
// current track but returns to Idle.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.handle.Pause()
	c.handle.Unload()
	c.generation = 0
	c.loaded = false
	c.session.Status = api.StatusIdle
	c.session.Position = 0
	c.notifyLocked()
}

func (c *Controller) onLoaded(ev api.MediaEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLoad(ev) || c.session.Status != api.StatusLoading {
		return
	}
	c.session = applyLoaded(c.session, ev)
	c.loaded = true
	if c.session.Interacted {
		c.startLocked()
	} else {
		c.session.Status = api.StatusPaused
	}
	c.notifyLocked()
}

func (c *Controller) onTimeUpdate(ev api.MediaEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLoad(ev) || !c.loaded {
		return
	}
	c.session.Position = clampSeek(ev.Position, c.session.Duration)
	c.notifyLocked()
}

func (c *Controller) onEnded(ev api.MediaEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLoad(ev) || !c.loaded {
		return
	}

	if c.session.Loop {
		if err := c.handle.Seek(0); err != nil {
			log.Error().Err(err).Str("track", c.currentLocked()).Msg("loop rewind failed")
		}
		c.session.Position = 0
		c.startLocked()
		c.notifyLocked()
		return
	}

	if !c.stepLocked(1) {
		c.session.Status = api.StatusPaused
		c.session.Position = c.session.Duration
		c.notifyLocked()
	}
}

func (c *Controller) onError(ev api.MediaEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLoad(ev) {
		return
	}
	log.Error().Err(ev.Err).Str("track", c.currentLocked()).Msg("media error")
	c.loaded = false
	c.session.Status = api.StatusPaused
	c.notifyLocked()
}

func (c *Controller) currentLoad(ev api.MediaEvent) bool {
	return c.generation != 0 && ev.Generation == c.generation
}

func (c *Controller) currentLocked() string {
	if c.session.CurrentTrack == nil {
		return ""
	}
	return c.session.CurrentTrack.String()
}

// notifyLocked replaces any unread session with the current one
func (c *Controller) notifyLocked() {
	s := c.session.Copy()
	select {
	case <-c.updates:
	default:
	}
	select {
	case c.updates <- s:
	default:
	}
}
