package playback

import (
	"math"
	"time"

	"github.com/jscyril/sonicstream/api"
	playerrors "github.com/jscyril/sonicstream/pkg/errors"
)

// The functions in this file are pure session transitions. The controller
// applies them under its lock and mirrors the result onto the media handle.

// newSession builds the initial session. A zero starting volume starts muted
// at full level so unmuting has a level to restore.
func newSession(volume float64, loop, interacted bool) api.Session {
	s := api.Session{
		Status:     api.StatusIdle,
		Volume:     clampUnit(volume),
		Loop:       loop,
		Interacted: interacted,
	}
	if s.Volume == 0 {
		s.Volume = 1
		s.Muted = true
	}
	return s
}

// applyLoad moves the session to Loading for track
func applyLoad(s api.Session, track api.Track, interacted bool) api.Session {
	t := track
	s.CurrentTrack = &t
	s.Status = api.StatusLoading
	s.Position = 0
	s.Duration = 0
	s.Info = api.TrackInfo{}
	if interacted {
		s.Interacted = true
	}
	return s
}

// applyLoaded records stream details once loading completes. The status is
// left to the caller, which decides whether playback may start.
func applyLoaded(s api.Session, ev api.MediaEvent) api.Session {
	s.Duration = ev.Duration
	s.Info = ev.Info
	s.Position = 0
	return s
}

// applyVolume sets the level. Zero mutes and keeps the remembered level; any
// other level is remembered and unmutes.
func applyVolume(s api.Session, v float64) (api.Session, error) {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return s, playerrors.ErrInvalidVolume
	}
	if v == 0 {
		s.Muted = true
		return s, nil
	}
	s.Volume = v
	s.Muted = false
	return s, nil
}

// adjustVolume moves the effective level by delta, rounding to hundredths
func adjustVolume(s api.Session, delta float64) api.Session {
	v := clampUnit(s.EffectiveVolume() + delta)
	v = math.Round(v*100) / 100
	s, _ = applyVolume(s, v)
	return s
}

func applyToggleMute(s api.Session) api.Session {
	s.Muted = !s.Muted
	if !s.Muted && s.Volume == 0 {
		s.Volume = 1
	}
	return s
}

// clampSeek bounds a seek target to the loaded duration
func clampSeek(position, duration time.Duration) time.Duration {
	if position < 0 {
		return 0
	}
	if position > duration {
		return duration
	}
	return position
}

// hasSource reports whether a stream is loaded and seekable
func hasSource(s api.Session) bool {
	return s.CurrentTrack != nil && (s.Status == api.StatusPlaying || s.Status == api.StatusPaused)
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
