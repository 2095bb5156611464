package synth

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"strings"
	"sync"
	"time"
)

// Mock audio format parameters, matching the reader's output format.
const (
	mockSampleRate = 22050
	mockChannels   = 1
	mockBitDepth   = 16
)

// MockEngine implements Engine for testing. It produces silent WAV payloads
// whose duration scales with the word count of the input text.
type MockEngine struct {
	mu sync.Mutex

	// Configuration
	delay       time.Duration // Simulated processing delay
	wordMillis  int           // Synthesized milliseconds per word
	available   bool
	failWith    error

	// Recording
	calls []string
}

// NewMockEngine creates a mock synthesis engine.
func NewMockEngine() *MockEngine {
	return &MockEngine{
		wordMillis: 400, // ~150 words per minute
		available:  true,
	}
}

// Synthesize returns a silent base64-encoded WAV payload.
func (e *MockEngine) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, text)
	delay := e.delay
	failWith := e.failWith
	wordMillis := e.wordMillis
	e.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}

	if failWith != nil {
		return "", failWith
	}

	words := len(strings.Fields(text))
	if words < 1 {
		words = 1
	}
	samples := mockSampleRate * words * wordMillis / 1000
	return base64.StdEncoding.EncodeToString(silentWAV(samples)), nil
}

// Available reports the configured availability.
func (e *MockEngine) Available() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.available
}

// Name returns the engine name.
func (e *MockEngine) Name() string {
	return "mock"
}

// SetDelay sets the simulated processing delay.
func (e *MockEngine) SetDelay(delay time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.delay = delay
}

// SetWordMillis sets the synthesized duration per word.
func (e *MockEngine) SetWordMillis(ms int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.wordMillis = ms
}

// SetFailure configures the engine to fail with the given error.
func (e *MockEngine) SetFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failWith = err
}

// SetAvailable sets the reported availability.
func (e *MockEngine) SetAvailable(ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.available = ok
}

// Calls returns the texts synthesized so far.
func (e *MockEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.calls))
	copy(out, e.calls)
	return out
}

// CallCount returns how many times text was synthesized.
func (e *MockEngine) CallCount(text string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.calls {
		if c == text {
			n++
		}
	}
	return n
}

// silentWAV builds a minimal PCM16 mono WAV file of the given sample count.
func silentWAV(samples int) []byte {
	dataLen := samples * mockBitDepth / 8
	var buf bytes.Buffer
	buf.Grow(44 + dataLen)

	write := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	buf.WriteString("RIFF")
	write(uint32(36 + dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	write(uint32(16))
	write(uint16(1)) // PCM
	write(uint16(mockChannels))
	write(uint32(mockSampleRate))
	write(uint32(mockSampleRate * mockChannels * mockBitDepth / 8))
	write(uint16(mockChannels * mockBitDepth / 8))
	write(uint16(mockBitDepth))

	buf.WriteString("data")
	write(uint32(dataLen))
	buf.Write(make([]byte, dataLen))

	return buf.Bytes()
}
