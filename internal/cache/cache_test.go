package cache

import (
	"testing"
	"time"
)

func TestGetMissingKey(t *testing.T) {
	c := NewTTLCache[int](4, time.Minute)
	if _, ok := c.Get("absent"); ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestSetAndGet(t *testing.T) {
	c := NewTTLCache[string](4, time.Minute)
	c.Set("a", "alpha")
	got, ok := c.Get("a")
	if !ok || got != "alpha" {
		t.Fatalf("got %q ok=%v, want alpha", got, ok)
	}
}

func TestExpiredEntryIsMiss(t *testing.T) {
	c := NewTTLCache[int](4, time.Nanosecond)
	c.Set("a", 1)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be dropped, len=%d", c.Len())
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewTTLCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now most recent
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to survive")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("expected c to survive")
	}
}

func TestInvalidate(t *testing.T) {
	c := NewTTLCache[int](4, time.Minute)
	c.Set("a", 1)
	c.Invalidate("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected invalidated key to miss")
	}
	c.Invalidate("absent") // no-op
}

func TestSweep(t *testing.T) {
	c := NewTTLCache[int](8, time.Nanosecond)
	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(5 * time.Millisecond)
	if n := c.Sweep(); n != 2 {
		t.Fatalf("swept %d, want 2", n)
	}
	if c.Len() != 0 {
		t.Fatalf("len=%d after sweep, want 0", c.Len())
	}
}
