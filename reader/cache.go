package reader

import "sync"

// Payload is an encoded audio payload as returned by the synthesis engine.
// The zero value is invalid; use NewPayload or SilentPayload.
type Payload struct {
	b64    string
	silent bool
}

// NewPayload wraps a base64-encoded audio payload.
func NewPayload(b64 string) Payload {
	return Payload{b64: b64}
}

// SilentPayload marks a page with no speakable text. It bypasses decoding
// and playback entirely.
var SilentPayload = Payload{silent: true}

// Silent reports whether the payload is the sentinel for an empty page.
func (p Payload) Silent() bool {
	return p.silent
}

// Encoded returns the base64 audio data.
func (p Payload) Encoded() string {
	return p.b64
}

// SpeechCache maps page indices to synthesized audio payloads. It is scoped
// to a single (document, voice) pair: callers must Clear it whenever either
// changes, before any lookup for the new context. Entries are never evicted
// individually; the cache lives only as long as one reading session.
type SpeechCache struct {
	mu      sync.RWMutex
	entries map[int]Payload
}

// NewSpeechCache creates an empty speech cache.
func NewSpeechCache() *SpeechCache {
	return &SpeechCache{entries: make(map[int]Payload)}
}

// Lookup returns the cached payload for a page, if present.
func (c *SpeechCache) Lookup(page int) (Payload, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.entries[page]
	return p, ok
}

// Insert stores a payload for a page, replacing any previous entry.
func (c *SpeechCache) Insert(page int, payload Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[page] = payload
}

// Clear removes all entries.
func (c *SpeechCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]Payload)
}

// Len returns the number of cached pages.
func (c *SpeechCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
