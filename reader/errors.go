package reader

import "errors"

// Common errors for the reader core.
var (
	// Synthesis errors
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// Decoder errors
	ErrDecodeFailed   = errors.New("audio payload could not be decoded")
	ErrSilentPayload  = errors.New("silent payload must not be decoded")
	ErrFormatMismatch = errors.New("audio format does not match output format")

	// Playback errors
	ErrPlaybackUnavailable = errors.New("audio output device unavailable")

	// Session errors
	ErrNoPages        = errors.New("document has no pages")
	ErrPageOutOfRange = errors.New("page index out of range")
)
