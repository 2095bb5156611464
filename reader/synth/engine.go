// Package synth provides speech synthesis engines for voxpage.
package synth

import (
	"context"
	"errors"
)

// Common errors returned by synthesis engines.
var (
	// ErrAuth indicates a missing or rejected API credential.
	ErrAuth = errors.New("synthesis credential missing or rejected")
	// ErrQuota indicates the synthesis quota has been exhausted.
	ErrQuota = errors.New("synthesis quota exhausted")
	// ErrNetwork indicates the synthesis service could not be reached.
	ErrNetwork = errors.New("synthesis service unreachable")
	// ErrEmptyAudio indicates the service returned no audio data.
	ErrEmptyAudio = errors.New("synthesis returned no audio")
)

// Engine converts text into an encoded audio payload.
type Engine interface {
	// Synthesize converts text to a base64-encoded WAV payload using the
	// given voice profile.
	Synthesize(ctx context.Context, text, voiceID string) (string, error)

	// Available reports whether the engine is ready for use.
	Available() bool

	// Name returns the engine name for logging.
	Name() string
}
