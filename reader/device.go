package reader

// Device abstracts the audio output backend so the playback controller can
// be exercised without hardware.
type Device interface {
	// NewSession prepares an output session for the given PCM data in the
	// package output format. The session does not start playing until Play
	// is called.
	NewSession(pcm []byte) (DeviceSession, error)
}

// DeviceSession is a single output stream on the device. At most one session
// is live at a time; the playback controller enforces this.
type DeviceSession interface {
	// Play starts or resumes output.
	Play()

	// SetVolume sets the output volume in [0, 1].
	SetVolume(volume float64)

	// IsPlaying reports whether the session is still producing output. It
	// turns false once the buffer has drained.
	IsPlaying() bool

	// Close releases the output resource. Safe to call more than once.
	Close() error
}
