package cache

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUCacheGetSetExpire(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("get a = %q,%v", v, ok)
	}
	clk.advance(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected entry to expire")
	}
	if c.Size() != 0 {
		t.Fatalf("expired entry should be removed on read, size=%d", c.Size())
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")
	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a was recently used and should survive")
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	c, _ := newTestCache(10, time.Hour)
	c.Set("u1|thirds|2026-02", "x")
	c.Set("u1|pace|2026-02", "x")
	c.Set("u10|pace|2026-02", "x")
	c.Set("u2|pace|2026-02", "x")
	if n := c.DeletePrefix("u1|"); n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	if _, ok := c.Get("u10|pace|2026-02"); !ok {
		t.Fatal("u10 must not match the u1 prefix")
	}
	c.Delete("u2|pace|2026-02")
	if c.Size() != 1 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCacheCleanExpiredAndManager(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	clk.advance(30 * time.Second)
	c.Set("c", "3")
	clk.advance(45 * time.Second)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanNow(); n != 2 {
		t.Fatalf("cleaned %d, want 2", n)
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("c should still be fresh")
	}

	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
	m.Wait()
}
