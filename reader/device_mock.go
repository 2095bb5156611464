package reader

import (
	"sync"
	"time"
)

// MockDevice simulates audio output by elapsed wall time. Sessions report
// IsPlaying until their PCM duration (scaled by Speedup) has passed.
type MockDevice struct {
	mu sync.Mutex

	// Speedup divides simulated playback time. Zero means 1.
	Speedup int

	// FailNext makes the next NewSession call fail.
	FailNext error

	sessions []*MockSession
}

// NewMockDevice creates a mock audio device.
func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

// NewSession creates a simulated output session.
func (d *MockDevice) NewSession(pcm []byte) (DeviceSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailNext != nil {
		err := d.FailNext
		d.FailNext = nil
		return nil, err
	}

	speedup := d.Speedup
	if speedup <= 0 {
		speedup = 1
	}
	s := &MockSession{duration: PCMDuration(len(pcm)) / time.Duration(speedup)}
	d.sessions = append(d.sessions, s)
	return s, nil
}

// Sessions returns all sessions created so far.
func (d *MockDevice) Sessions() []*MockSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*MockSession, len(d.sessions))
	copy(out, d.sessions)
	return out
}

// Live returns how many sessions are currently playing and not closed.
func (d *MockDevice) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, s := range d.sessions {
		if s.IsPlaying() && !s.Closed() {
			n++
		}
	}
	return n
}

// MockSession is a simulated output session.
type MockSession struct {
	mu       sync.Mutex
	duration time.Duration
	started  time.Time
	playing  bool
	closed   bool
	volume   float64
}

// Play starts the simulated clock.
func (s *MockSession) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.playing {
		return
	}
	s.playing = true
	s.started = time.Now()
}

// SetVolume records the volume.
func (s *MockSession) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = volume
}

// Volume returns the last volume set.
func (s *MockSession) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// IsPlaying reports whether simulated playback is still running.
func (s *MockSession) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing || s.closed {
		return false
	}
	return time.Since(s.started) < s.duration
}

// Close marks the session closed.
func (s *MockSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.playing = false
	return nil
}

// Closed reports whether Close has been called.
func (s *MockSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
