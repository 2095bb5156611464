package reader

import (
	"fmt"
	"sync"
	"time"
)

// playbackPollInterval is how often the monitor checks whether the output
// buffer has drained.
const playbackPollInterval = 25 * time.Millisecond

// PlaybackController owns the single active audio output session. Play
// implicitly tears down any prior session before acquiring a new one, and
// the completion callback for a session fires exactly once at natural end,
// never after Stop has returned for that session.
type PlaybackController struct {
	device Device

	mu      sync.Mutex
	current *playback
}

type playback struct {
	session DeviceSession
	onDone  func()
	stopCh  chan struct{}
	stopped bool
	done    bool
}

// NewPlaybackController creates a controller over the given output device.
func NewPlaybackController(device Device) *PlaybackController {
	return &PlaybackController{device: device}
}

// Play starts playback of PCM data at the given volume. onDone is invoked
// once when playback reaches its natural end. Device acquisition failure is
// reported as ErrPlaybackUnavailable.
func (c *PlaybackController) Play(pcm []byte, volume float64, onDone func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	session, err := c.device.NewSession(pcm)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackUnavailable, err)
	}
	session.SetVolume(clampVolume(volume))
	session.Play()

	p := &playback{
		session: session,
		onDone:  onDone,
		stopCh:  make(chan struct{}),
	}
	c.current = p
	go c.monitor(p)
	return nil
}

// Stop tears down the active session, if any. Idempotent; once it returns,
// the stopped session's completion callback will not fire.
func (c *PlaybackController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// stopLocked releases the current session. Caller holds c.mu.
func (c *PlaybackController) stopLocked() {
	p := c.current
	if p == nil {
		return
	}
	p.stopped = true
	close(p.stopCh)
	_ = p.session.Close()
	c.current = nil
}

// SetVolume applies a clamped volume to the active session, if any.
func (c *PlaybackController) SetVolume(volume float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.session.SetVolume(clampVolume(volume))
	}
}

// Playing reports whether a session is currently active.
func (c *PlaybackController) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// monitor watches the session until the output buffer drains, then fires
// the completion callback. The stopped flag is checked under the controller
// lock so a completion can never race past Stop.
func (c *PlaybackController) monitor(p *playback) {
	ticker := time.NewTicker(playbackPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			if p.session.IsPlaying() {
				continue
			}

			c.mu.Lock()
			if p.stopped || p.done {
				c.mu.Unlock()
				return
			}
			p.done = true
			_ = p.session.Close()
			if c.current == p {
				c.current = nil
			}
			onDone := p.onDone
			c.mu.Unlock()

			if onDone != nil {
				onDone()
			}
			return
		}
	}
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
