package reader

import "testing"

func TestSpeechCacheLookupInsert(t *testing.T) {
	c := NewSpeechCache()

	if _, ok := c.Lookup(0); ok {
		t.Fatal("empty cache should miss")
	}

	c.Insert(0, NewPayload("YWJj"))
	p, ok := c.Lookup(0)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if p.Encoded() != "YWJj" {
		t.Errorf("payload = %q, want %q", p.Encoded(), "YWJj")
	}
	if p.Silent() {
		t.Error("stored payload should not be silent")
	}

	// Replacement keeps keys unique.
	c.Insert(0, NewPayload("ZGVm"))
	p, _ = c.Lookup(0)
	if p.Encoded() != "ZGVm" {
		t.Errorf("payload after replace = %q, want %q", p.Encoded(), "ZGVm")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestSpeechCacheClear(t *testing.T) {
	c := NewSpeechCache()
	for i := 0; i < 5; i++ {
		c.Insert(i, NewPayload("eA=="))
	}
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	for i := 0; i < 5; i++ {
		if _, ok := c.Lookup(i); ok {
			t.Errorf("page %d should miss after Clear", i)
		}
	}
}

func TestSilentPayload(t *testing.T) {
	if !SilentPayload.Silent() {
		t.Error("SilentPayload.Silent() = false")
	}
	if NewPayload("").Silent() {
		t.Error("empty non-sentinel payload must not be silent")
	}
}
