package reader

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/voxpage/voxpage/reader/synth"
)

// Fetcher wraps the synthesis engine with per-page single-flight semantics:
// concurrent requests for the same page index share one engine call, so a
// foreground play that lands on a page whose pre-fetch is still outstanding
// never issues a second synthesis.
type Fetcher struct {
	engine synth.Engine
	cache  *SpeechCache
	group  singleflight.Group

	mu       sync.Mutex
	inflight map[int]struct{}
}

// NewFetcher creates a fetcher backed by the given engine and cache.
func NewFetcher(engine synth.Engine, cache *SpeechCache) *Fetcher {
	return &Fetcher{
		engine:   engine,
		cache:    cache,
		inflight: make(map[int]struct{}),
	}
}

// FetchOrReuse returns the audio payload for a page, serving from cache when
// possible. Empty or whitespace-only text resolves to SilentPayload without
// an engine call. Failures are never cached.
func (f *Fetcher) FetchOrReuse(ctx context.Context, page int, text string, voice Voice) (Payload, error) {
	if cached, ok := f.cache.Lookup(page); ok {
		log.Debug("speech cache hit", "page", page)
		return cached, nil
	}

	if strings.TrimSpace(text) == "" {
		return SilentPayload, nil
	}

	key := strconv.Itoa(page)
	v, err, shared := f.group.Do(key, func() (any, error) {
		// A request may have completed and populated the cache while this
		// one waited for the singleflight slot.
		if cached, ok := f.cache.Lookup(page); ok {
			return cached, nil
		}

		f.setInflight(page, true)
		defer f.setInflight(page, false)

		b64, err := f.engine.Synthesize(ctx, text, voice.String())
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
		}
		payload := NewPayload(b64)
		f.cache.Insert(page, payload)
		return payload, nil
	})
	if err != nil {
		return Payload{}, err
	}
	if shared {
		log.Debug("synthesis de-duplicated", "page", page)
	}
	return v.(Payload), nil
}

// InFlight reports whether a synthesis call for the page is outstanding.
func (f *Fetcher) InFlight(page int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.inflight[page]
	return ok
}

func (f *Fetcher) setInflight(page int, on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if on {
		f.inflight[page] = struct{}{}
	} else {
		delete(f.inflight, page)
	}
}
