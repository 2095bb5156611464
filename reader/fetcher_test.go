package reader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voxpage/voxpage/reader/synth"
)

func TestFetcherCacheHit(t *testing.T) {
	engine := synth.NewMockEngine()
	cache := NewSpeechCache()
	f := NewFetcher(engine, cache)
	ctx := context.Background()

	first, err := f.FetchOrReuse(ctx, 0, "Hello world", VoiceAmber)
	if err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}
	second, err := f.FetchOrReuse(ctx, 0, "Hello world", VoiceAmber)
	if err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}

	if n := engine.CallCount("Hello world"); n != 1 {
		t.Errorf("engine called %d times, want 1", n)
	}
	if first.Encoded() != second.Encoded() {
		t.Error("cache returned a different payload")
	}
}

func TestFetcherEmptyText(t *testing.T) {
	engine := synth.NewMockEngine()
	f := NewFetcher(engine, NewSpeechCache())

	for _, text := range []string{"", "   ", "\n\t \n"} {
		p, err := f.FetchOrReuse(context.Background(), 3, text, VoiceAmber)
		if err != nil {
			t.Fatalf("fetch of %q failed: %v", text, err)
		}
		if !p.Silent() {
			t.Errorf("fetch of %q did not return the silent sentinel", text)
		}
	}
	if calls := engine.Calls(); len(calls) != 0 {
		t.Errorf("engine was called for empty text: %v", calls)
	}
}

func TestFetcherSingleFlight(t *testing.T) {
	engine := synth.NewMockEngine()
	engine.SetDelay(80 * time.Millisecond)
	f := NewFetcher(engine, NewSpeechCache())

	const concurrency = 4
	var wg sync.WaitGroup
	payloads := make([]Payload, concurrency)
	errs := make([]error, concurrency)
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payloads[i], errs[i] = f.FetchOrReuse(context.Background(), 7, "shared page text", VoiceAmber)
		}(i)
	}
	wg.Wait()

	for i := 0; i < concurrency; i++ {
		if errs[i] != nil {
			t.Fatalf("fetch %d failed: %v", i, errs[i])
		}
		if payloads[i].Encoded() != payloads[0].Encoded() {
			t.Errorf("fetch %d got a different payload", i)
		}
	}
	if n := engine.CallCount("shared page text"); n != 1 {
		t.Errorf("engine called %d times for concurrent fetches, want 1", n)
	}
}

func TestFetcherDistinctPagesFetchConcurrently(t *testing.T) {
	engine := synth.NewMockEngine()
	engine.SetDelay(50 * time.Millisecond)
	f := NewFetcher(engine, NewSpeechCache())

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			_, _ = f.FetchOrReuse(context.Background(), page, "page text", VoiceAmber)
		}(i)
	}
	wg.Wait()

	// Two distinct pages must not serialize behind one another.
	if elapsed := time.Since(start); elapsed > 90*time.Millisecond {
		t.Errorf("distinct pages serialized: took %v", elapsed)
	}
}

func TestFetcherFailureNotCached(t *testing.T) {
	engine := synth.NewMockEngine()
	engine.SetFailure(synth.ErrNetwork)
	cache := NewSpeechCache()
	f := NewFetcher(engine, cache)

	_, err := f.FetchOrReuse(context.Background(), 0, "some text", VoiceAmber)
	if !errors.Is(err, ErrSynthesisFailed) {
		t.Fatalf("error = %v, want ErrSynthesisFailed", err)
	}
	if cache.Len() != 0 {
		t.Error("failure was cached")
	}

	// A later attempt retries the engine.
	engine.SetFailure(nil)
	if _, err := f.FetchOrReuse(context.Background(), 0, "some text", VoiceAmber); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if n := engine.CallCount("some text"); n != 2 {
		t.Errorf("engine called %d times, want 2", n)
	}
}

func TestFetcherInFlight(t *testing.T) {
	engine := synth.NewMockEngine()
	engine.SetDelay(60 * time.Millisecond)
	f := NewFetcher(engine, NewSpeechCache())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.FetchOrReuse(context.Background(), 5, "in flight page", VoiceAmber)
	}()

	deadline := time.After(time.Second)
	for !f.InFlight(5) {
		select {
		case <-deadline:
			t.Fatal("fetch never reported in flight")
		case <-time.After(time.Millisecond):
		}
	}
	<-done
	if f.InFlight(5) {
		t.Error("fetch still in flight after completion")
	}
}
