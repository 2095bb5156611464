package reader

import (
	"sync"
	"testing"
	"time"
)

// tickRecorder collects advance indices.
type tickRecorder struct {
	mu      sync.Mutex
	indices []int
}

func (r *tickRecorder) record(i int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indices = append(r.indices, i)
}

func (r *tickRecorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.indices))
	copy(out, r.indices)
	return out
}

func TestWordTimerAdvances(t *testing.T) {
	const words = 5
	total := 250 * time.Millisecond

	var timer WordTimer
	rec := &tickRecorder{}
	timer.Start(total, words, rec.record)

	// Wait past the expected end, then confirm no further ticks arrive.
	time.Sleep(total + 150*time.Millisecond)
	got := rec.snapshot()
	time.Sleep(150 * time.Millisecond)
	after := rec.snapshot()

	want := []int{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got %d ticks %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tick %d = %d, want %d", i, got[i], want[i])
		}
	}
	if len(after) != len(got) {
		t.Errorf("ticks fired after final index: %v", after[len(got):])
	}
}

func TestWordTimerZeroWords(t *testing.T) {
	var timer WordTimer
	rec := &tickRecorder{}
	timer.Start(time.Second, 0, rec.record)

	time.Sleep(50 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("zero word count fired ticks: %v", got)
	}
}

func TestWordTimerSingleWord(t *testing.T) {
	var timer WordTimer
	rec := &tickRecorder{}
	timer.Start(100*time.Millisecond, 1, rec.record)

	time.Sleep(250 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("single word page fired ticks: %v", got)
	}
}

func TestWordTimerStop(t *testing.T) {
	var timer WordTimer
	rec := &tickRecorder{}
	timer.Start(time.Second, 100, rec.record)

	time.Sleep(45 * time.Millisecond) // a few 10ms ticks
	timer.Stop()
	got := rec.snapshot()

	time.Sleep(100 * time.Millisecond)
	after := rec.snapshot()
	if len(after) != len(got) {
		t.Errorf("ticks fired after Stop: %v", after[len(got):])
	}
}

func TestWordTimerRestartCancelsPrevious(t *testing.T) {
	var timer WordTimer
	first := &tickRecorder{}
	second := &tickRecorder{}

	timer.Start(time.Second, 100, first.record)
	timer.Start(200*time.Millisecond, 4, second.record)

	time.Sleep(350 * time.Millisecond)
	if got := second.snapshot(); len(got) != 3 {
		t.Errorf("second timer ticks = %v, want [1 2 3]", got)
	}
	// The first timer may have fired at most one tick before the restart.
	if got := first.snapshot(); len(got) > 1 {
		t.Errorf("first timer kept ticking after restart: %v", got)
	}
}
