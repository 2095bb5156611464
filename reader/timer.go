package reader

import (
	"sync"
	"time"
)

// WordTimer approximates per-word timing from a single aggregate audio
// duration: the interval between highlight advances is total/wordCount.
// Uniform word duration is a known, accepted inaccuracy; the synthesis
// source provides no word-level timestamps.
type WordTimer struct {
	mu  sync.Mutex
	gen uint64
}

// Start begins firing onAdvance with word indices 1 through wordCount-1 at
// a fixed interval of total/wordCount, then stops. A wordCount of zero does
// nothing. Any previous timer is cancelled first.
func (t *WordTimer) Start(total time.Duration, wordCount int, onAdvance func(index int)) {
	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.mu.Unlock()

	if wordCount <= 0 || onAdvance == nil {
		return
	}
	tick := total / time.Duration(wordCount)
	if tick <= 0 {
		tick = time.Millisecond
	}

	go t.run(gen, tick, wordCount, onAdvance)
}

// Stop cancels pending ticks. Once Stop returns, onAdvance is not invoked
// again for the cancelled timer.
func (t *WordTimer) Stop() {
	t.mu.Lock()
	t.gen++
	t.mu.Unlock()
}

func (t *WordTimer) run(gen uint64, tick time.Duration, wordCount int, onAdvance func(int)) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for index := 1; index < wordCount; index++ {
		<-ticker.C

		// Deliver under the lock so a concurrent Stop either cancels this
		// tick or observes it complete, never half-fires it later.
		t.mu.Lock()
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		onAdvance(index)
		t.mu.Unlock()
	}
}
