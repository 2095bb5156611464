package extract

import "errors"

var (
	// ErrExtractionFailed indicates the file could not be parsed as a PDF.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEngineUnavailable indicates the extraction engine did not become
	// ready within the bounded wait.
	ErrEngineUnavailable = errors.New("extraction engine unavailable")
)
