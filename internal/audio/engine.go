package audio

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"
	"github.com/jscyril/sonicstream/api"
	playerrors "github.com/jscyril/sonicstream/pkg/errors"
	"github.com/jscyril/sonicstream/pkg/events"
	"github.com/rs/zerolog/log"
)

// Ensure StreamHandle implements MediaHandle at compile time
var _ api.MediaHandle = (*StreamHandle)(nil)

// mixerRate is the speaker rate; streams at other rates are resampled
const mixerRate = beep.SampleRate(44100)

const positionInterval = 500 * time.Millisecond

var (
	speakerOnce    sync.Once
	speakerInitErr error
)

func initSpeaker() error {
	speakerOnce.Do(func() {
		speakerInitErr = speaker.Init(mixerRate, mixerRate.N(time.Second/10))
	})
	return speakerInitErr
}

// Options configures a StreamHandle
type Options struct {
	Client   *http.Client
	MaxBytes int64
	Volume   float64
}

// StreamHandle plays tracks fetched from the stream endpoint. Loads run in
// their own goroutine and report back on the event bus.
type StreamHandle struct {
	bus      *events.EventBus
	client   *http.Client
	maxBytes int64

	mu         sync.Mutex
	generation uint64
	cancelLoad context.CancelFunc
	source     string
	streamer   beep.StreamSeekCloser
	format     beep.Format
	ctrl       *beep.Ctrl
	volume     *effects.Volume
	level      float64
	loop       bool
	queued     bool // streamer chain is in the speaker mixer
	playing    bool
}

// NewStreamHandle creates a handle publishing to bus
func NewStreamHandle(bus *events.EventBus, opts Options) *StreamHandle {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 64 << 20
	}
	return &StreamHandle{
		bus:      bus,
		client:   client,
		maxBytes: maxBytes,
		level:    opts.Volume,
	}
}

// Run publishes position updates while playing until ctx is done, then
// releases the loaded source.
func (h *StreamHandle) Run(ctx context.Context) error {
	ticker := time.NewTicker(positionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.Unload()
			return nil
		case <-ticker.C:
			h.mu.Lock()
			if h.playing && h.streamer != nil {
				event := api.MediaEvent{
					Type:       api.EventTimeUpdate,
					Generation: h.generation,
					Position:   h.positionLocked(),
				}
				h.mu.Unlock()
				h.bus.Publish(event)
				continue
			}
			h.mu.Unlock()
		}
	}
}

// Load replaces the current source. The previous source is released and any
// load still in flight is cancelled.
func (h *StreamHandle) Load(source string) uint64 {
	h.mu.Lock()
	h.generation++
	gen := h.generation
	h.unloadLocked()

	ctx, cancel := context.WithCancel(context.Background())
	h.cancelLoad = cancel
	h.source = source
	h.mu.Unlock()

	go h.load(ctx, gen, source)
	return gen
}

func (h *StreamHandle) load(ctx context.Context, gen uint64, source string) {
	streamer, format, info, err := h.fetch(ctx, source)
	if err != nil {
		if ctx.Err() != nil {
			// Superseded by a newer load or unloaded
			return
		}
		h.bus.Publish(api.MediaEvent{
			Type:       api.EventError,
			Generation: gen,
			Err:        playerrors.NewPlaybackRequestError("load", source, err),
		})
		return
	}

	h.mu.Lock()
	if gen != h.generation {
		h.mu.Unlock()
		streamer.Close()
		return
	}
	h.streamer = streamer
	h.format = format
	h.ctrl = &beep.Ctrl{Streamer: streamer, Paused: true}
	h.volume = &effects.Volume{Streamer: h.ctrl, Base: 2}
	h.applyLevelLocked()
	duration := format.SampleRate.D(streamer.Len())
	h.mu.Unlock()

	log.Debug().Str("source", source).Dur("duration", duration).Int("rate", int(format.SampleRate)).Msg("stream loaded")
	h.bus.Publish(api.MediaEvent{
		Type:       api.EventLoaded,
		Generation: gen,
		Duration:   duration,
		Info:       info,
	})
}

// fetch downloads and decodes the stream at source
func (h *StreamHandle) fetch(ctx context.Context, source string) (beep.StreamSeekCloser, beep.Format, api.TrackInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, beep.Format{}, api.TrackInfo{}, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, beep.Format{}, api.TrackInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, beep.Format{}, api.TrackInfo{}, fmt.Errorf("stream responded %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, beep.Format{}, api.TrackInfo{}, err
	}
	if int64(len(data)) > h.maxBytes {
		return nil, beep.Format{}, api.TrackInfo{}, playerrors.ErrStreamTooLarge
	}

	format := DetectFormat(resp.Header.Get("Content-Type"), path.Base(req.URL.Path), data)
	streamer, f, err := DecodeAudio(data, format)
	if err != nil {
		return nil, beep.Format{}, api.TrackInfo{}, err
	}
	return streamer, f, ReadInfo(data), nil
}

// Play starts or resumes the loaded source
func (h *StreamHandle) Play() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.streamer == nil {
		return playerrors.ErrNoSource
	}
	if err := initSpeaker(); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	if !h.queued {
		var s beep.Streamer = h.volume
		if h.format.SampleRate != mixerRate {
			s = beep.Resample(4, h.format.SampleRate, mixerRate, s)
		}
		gen := h.generation
		// The callback runs under the speaker lock, so hand off
		speaker.Play(beep.Seq(s, beep.Callback(func() {
			go h.finished(gen)
		})))
		h.queued = true
	}

	speaker.Lock()
	h.ctrl.Paused = false
	speaker.Unlock()
	h.playing = true
	return nil
}

// finished handles end of media for generation gen
func (h *StreamHandle) finished(gen uint64) {
	h.mu.Lock()
	if gen != h.generation {
		h.mu.Unlock()
		return
	}
	h.queued = false
	h.playing = false
	position := h.positionLocked()
	h.mu.Unlock()

	h.bus.Publish(api.MediaEvent{Type: api.EventEnded, Generation: gen, Position: position})
}

// Pause pauses playback, keeping the position
func (h *StreamHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.ctrl != nil {
		speaker.Lock()
		h.ctrl.Paused = true
		speaker.Unlock()
	}
	h.playing = false
}

// Seek moves to position, clamped to the stream bounds
func (h *StreamHandle) Seek(position time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.streamer == nil {
		return playerrors.ErrNoSource
	}

	n := h.format.SampleRate.N(position)
	if n < 0 {
		n = 0
	}

	speaker.Lock()
	defer speaker.Unlock()
	if n > h.streamer.Len() {
		n = h.streamer.Len()
	}
	return h.streamer.Seek(n)
}

// Position returns the playback position of the loaded source
func (h *StreamHandle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.positionLocked()
}

func (h *StreamHandle) positionLocked() time.Duration {
	if h.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := h.streamer.Position()
	speaker.Unlock()
	return h.format.SampleRate.D(pos)
}

// SetVolume sets the output level in [0, 1]; 0 silences output
func (h *StreamHandle) SetVolume(level float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.level = math.Max(0, math.Min(1, level))
	h.applyLevelLocked()
}

// applyLevelLocked maps the linear level onto the base-2 volume effect
func (h *StreamHandle) applyLevelLocked() {
	if h.volume == nil {
		return
	}
	speaker.Lock()
	defer speaker.Unlock()

	if h.level <= 0 {
		h.volume.Silent = true
		h.volume.Volume = 0
		return
	}
	h.volume.Silent = false
	h.volume.Volume = math.Log2(h.level)
}

// SetLoop records the loop flag. End of media is always reported; the
// controller decides whether to replay.
func (h *StreamHandle) SetLoop(loop bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loop = loop
}

// Loop reports the recorded loop flag
func (h *StreamHandle) Loop() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loop
}

// Source reports the stream URL currently loaded or loading
func (h *StreamHandle) Source() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.source
}

// Volume reports the applied output level
func (h *StreamHandle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level
}

// Unload stops playback and releases the source
func (h *StreamHandle) Unload() {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Invalidate pending loads and end-of-media callbacks
	h.generation++
	h.unloadLocked()
}

func (h *StreamHandle) unloadLocked() {
	if h.cancelLoad != nil {
		h.cancelLoad()
		h.cancelLoad = nil
	}
	if h.queued {
		speaker.Clear()
		h.queued = false
	}
	if h.streamer != nil {
		h.streamer.Close()
		h.streamer = nil
	}
	h.ctrl = nil
	h.volume = nil
	h.source = ""
	h.playing = false
}
