// Package reader implements the playback, caching, and word-highlight core
// of voxpage. A Session narrates one document page at a time: audio is
// synthesized on demand, cached per page for the active voice, played
// through a single output session, and paired with a fixed-tick word
// highlight derived from the audio duration.
package reader

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/voxpage/voxpage/reader/synth"
)

// Callbacks deliver session events to the presentation layer. They are
// invoked from internal goroutines, sometimes with session locks held, and
// must return quickly without calling back into the session.
type Callbacks struct {
	OnState func(State)      // State transitions
	OnWord  func(index int)  // Highlighted word index, -1 for none
	OnPage  func(page int)   // Current page changes
	OnError func(err error)  // Foreground failures
}

// Config configures a reader session.
type Config struct {
	PageTexts []string // Ordered page texts of the document
	StartPage int      // Initial page index
	Voice     Voice
	AutoPlay  bool
	Volume    float64 // Output volume in [0, 1]

	Engine synth.Engine
	Device Device

	Callbacks Callbacks
}

// Session orchestrates fetch, cache, playback, and word timing for one open
// document. At most one playback is active at any instant; every navigation,
// voice change, or play toggle synchronously tears down the previous cycle
// before a new one may begin.
//
// Asynchronous continuations (fetch returns, completion callbacks, timer
// ticks) are tagged with the epoch current when they were started and
// re-validate it under the session lock before acting, so work belonging to
// a torn-down cycle is discarded.
type Session struct {
	mu        sync.Mutex
	pages     []Page
	current   int
	voice     Voice
	autoPlay  bool
	volume    float64
	state     State
	highlight int // Highlighted word index, -1 = none
	epoch     uint64
	closed    bool

	engine  synth.Engine
	cache   *SpeechCache
	fetcher *Fetcher
	player  *PlaybackController
	timer   *WordTimer

	callbacks Callbacks

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSession opens a session over the document's pages. It does not start
// playback; it only pre-fetches the page after the start page so the first
// explicit play feels instant.
func NewSession(cfg Config) (*Session, error) {
	if len(cfg.PageTexts) == 0 {
		return nil, ErrNoPages
	}
	if cfg.StartPage < 0 || cfg.StartPage >= len(cfg.PageTexts) {
		return nil, ErrPageOutOfRange
	}

	pages := make([]Page, len(cfg.PageTexts))
	for i, text := range cfg.PageTexts {
		pages[i] = NewPage(text)
	}

	cache := NewSpeechCache()
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		pages:     pages,
		current:   cfg.StartPage,
		voice:     cfg.Voice,
		autoPlay:  cfg.AutoPlay,
		volume:    clampVolume(cfg.Volume),
		state:     StateIdle,
		highlight: -1,
		engine:    cfg.Engine,
		cache:     cache,
		fetcher:   NewFetcher(cfg.Engine, cache),
		player:    NewPlaybackController(cfg.Device),
		timer:     &WordTimer{},
		callbacks: cfg.Callbacks,
		ctx:       ctx,
		cancel:    cancel,
	}

	go s.prefetch(cfg.StartPage + 1)
	return s, nil
}

// TogglePlay starts playback of the current page, or stops it if a fetch or
// playback cycle is already active.
func (s *Session) TogglePlay() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.state.Active() {
		s.haltLocked(StateStopped)
		s.mu.Unlock()
		s.teardown()
		return
	}

	e, page, text, voice := s.beginCycleLocked()
	s.mu.Unlock()

	s.teardown()
	go s.fetchAndPlay(e, page, text, voice)
}

// Navigate moves by delta pages, clamped to the document bounds. Playback
// always stops first; with auto-play enabled the new page starts playing
// immediately, otherwise the session lands in Stopped and the page after
// the new one is pre-fetched in the background.
func (s *Session) Navigate(delta int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.haltLocked(StateStopped)

	target := s.current + delta
	if target < 0 {
		target = 0
	}
	if target > len(s.pages)-1 {
		target = len(s.pages) - 1
	}
	if target != s.current {
		s.current = target
		emit(s.callbacks.OnPage, target)
	}

	if !s.autoPlay {
		next := s.current + 1
		s.mu.Unlock()
		s.teardown()
		go s.prefetch(next)
		return
	}

	e, page, text, voice := s.beginCycleLocked()
	s.mu.Unlock()

	s.teardown()
	go s.fetchAndPlay(e, page, text, voice)
}

// SetVoice switches the synthesis voice. Changing voice stops playback and
// invalidates all cached audio; it never auto-replays the current page.
func (s *Session) SetVoice(v Voice) {
	s.mu.Lock()
	if s.closed || v == s.voice {
		s.mu.Unlock()
		return
	}
	s.voice = v
	s.haltLocked(StateStopped)

	// Clear, then replace: an old-voice synthesis still in flight completes
	// into the abandoned cache instead of poisoning the new voice's.
	s.cache.Clear()
	s.cache = NewSpeechCache()
	s.fetcher = NewFetcher(s.engine, s.cache)
	s.mu.Unlock()

	s.teardown()
	log.Debug("voice changed", "voice", v)
}

// ToggleAutoPlay flips auto-play and returns the new value.
func (s *Session) ToggleAutoPlay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoPlay = !s.autoPlay
	return s.autoPlay
}

// SetVolume sets the output volume, clamped to [0, 1], applying it to the
// active playback if any.
func (s *Session) SetVolume(v float64) {
	s.mu.Lock()
	s.volume = clampVolume(v)
	s.mu.Unlock()
	s.player.SetVolume(v)
}

// Volume returns the current output volume.
func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentPage returns the current page index.
func (s *Session) CurrentPage() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// PageCount returns the number of pages in the document.
func (s *Session) PageCount() int {
	return len(s.pages)
}

// Page returns the page at the given index.
func (s *Session) Page(i int) Page {
	return s.pages[i]
}

// Highlight returns the highlighted word index on the current page, or -1.
func (s *Session) Highlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlight
}

// AutoPlay reports whether auto-play is enabled.
func (s *Session) AutoPlay() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoPlay
}

// CurrentVoice returns the active voice.
func (s *Session) CurrentVoice() Voice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

// Close tears the session down. Pending background fetches are abandoned;
// the session must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.haltLocked(StateIdle)
	s.mu.Unlock()

	s.teardown()
	s.cancel()
}

// beginCycleLocked invalidates prior async work and enters Fetching for the
// current page. Caller holds s.mu.
func (s *Session) beginCycleLocked() (epoch uint64, page int, text string, voice Voice) {
	s.epoch++
	s.setStateLocked(StateFetching)
	return s.epoch, s.current, s.pages[s.current].Text, s.voice
}

// haltLocked invalidates prior async work, clears the highlight, and enters
// the given state. The player and timer themselves are released by a
// teardown() call after the lock is dropped. Caller holds s.mu.
func (s *Session) haltLocked(to State) {
	s.epoch++
	if s.highlight != -1 {
		s.highlight = -1
		emit(s.callbacks.OnWord, -1)
	}
	s.setStateLocked(to)
}

// teardown stops the output session and word timer. Never called with s.mu
// held: the playback controller delivers completion callbacks under its own
// lock, and those callbacks take s.mu.
func (s *Session) teardown() {
	s.player.Stop()
	s.timer.Stop()
}

// fetchAndPlay obtains audio for a page and starts playback plus word
// timing. Every step past an await point re-validates the epoch so a cycle
// torn down mid-fetch leaves no trace.
func (s *Session) fetchAndPlay(e uint64, page int, text string, voice Voice) {
	s.mu.Lock()
	fetcher := s.fetcher
	s.mu.Unlock()

	payload, err := fetcher.FetchOrReuse(s.ctx, page, text, voice)

	s.mu.Lock()
	if e != s.epoch || s.closed {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.failLocked(err)
		s.mu.Unlock()
		return
	}

	if payload.Silent() {
		// Nothing to speak. With auto-play on, an empty page must not
		// stall the reading flow: advance as if playback completed.
		advance := s.autoPlay && page < len(s.pages)-1
		s.setStateLocked(StateStopped)
		s.mu.Unlock()
		if advance {
			s.Navigate(1)
		}
		return
	}
	s.mu.Unlock()

	pcm, err := Decode(payload)

	s.mu.Lock()
	if e != s.epoch || s.closed {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.failLocked(err)
		s.mu.Unlock()
		return
	}
	words := s.pages[page].WordCount()
	volume := s.volume
	s.highlight = 0
	emit(s.callbacks.OnWord, 0)
	s.setStateLocked(StatePlaying)
	s.mu.Unlock()

	if err := s.player.Play(pcm, volume, func() { s.completed(e) }); err != nil {
		s.mu.Lock()
		if e == s.epoch && !s.closed {
			s.failLocked(err)
		}
		s.mu.Unlock()
		return
	}
	s.timer.Start(PCMDuration(len(pcm)), words, func(i int) { s.advanced(e, i) })

	// The cycle may have been torn down between Play and here; the stale
	// player/timer callbacks are already inert, release their resources.
	s.mu.Lock()
	stale := e != s.epoch || s.closed
	s.mu.Unlock()
	if stale {
		s.teardown()
		return
	}

	go s.prefetch(page + 1)
}

// completed handles natural end of playback. Invoked by the playback
// controller under its own lock, so it must not call back into the player.
func (s *Session) completed(e uint64) {
	s.mu.Lock()
	if e != s.epoch || s.closed {
		s.mu.Unlock()
		return
	}
	s.epoch++ // No further ticks from this cycle's timer.
	if s.highlight != -1 {
		s.highlight = -1
		emit(s.callbacks.OnWord, -1)
	}
	s.setStateLocked(StateStopped)
	advance := s.autoPlay && s.current < len(s.pages)-1
	s.mu.Unlock()

	if advance {
		// Asynchronously: Navigate restarts playback, which re-enters the
		// playback controller.
		go s.Navigate(1)
	}
}

// advanced handles a word-timer tick.
func (s *Session) advanced(e uint64, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e != s.epoch || s.closed || s.state != StatePlaying {
		return
	}
	s.highlight = index
	emit(s.callbacks.OnWord, index)
}

// prefetch synthesizes a page's audio in the background. Failures are
// logged and swallowed; they never interrupt playback or surface an alert.
func (s *Session) prefetch(page int) {
	s.mu.Lock()
	if s.closed || page < 0 || page >= len(s.pages) {
		s.mu.Unlock()
		return
	}
	fetcher := s.fetcher
	text := s.pages[page].Text
	voice := s.voice
	if _, ok := s.cache.Lookup(page); ok || fetcher.InFlight(page) {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if _, err := fetcher.FetchOrReuse(s.ctx, page, text, voice); err != nil {
		log.Debug("pre-fetch failed", "page", page, "error", err)
	}
}

// failLocked surfaces a foreground failure and lands in Stopped. Caller
// holds s.mu.
func (s *Session) failLocked(err error) {
	log.Error("playback cycle failed", "page", s.current, "error", err)
	s.setStateLocked(StateStopped)
	if s.callbacks.OnError != nil {
		s.callbacks.OnError(err)
	}
}

// setStateLocked transitions state and notifies. Caller holds s.mu.
func (s *Session) setStateLocked(to State) {
	if s.state == to {
		return
	}
	s.state = to
	emit(s.callbacks.OnState, to)
}

// emit invokes an optional callback.
func emit[T any](fn func(T), v T) {
	if fn != nil {
		fn(v)
	}
}
