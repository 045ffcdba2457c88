package pagecache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetOrRender_RendersOnce(t *testing.T) {
	fixed := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	c := New(func() time.Time { return fixed })

	var calls int
	render := func() ([]byte, error) {
		calls++
		return []byte("<html></html>"), nil
	}

	first, err := c.GetOrRender("landing:2026", render)
	if err != nil {
		t.Fatalf("GetOrRender() error = %v", err)
	}
	second, err := c.GetOrRender("landing:2026", render)
	if err != nil {
		t.Fatalf("GetOrRender() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("render called %d times, want 1", calls)
	}
	if string(first.Body) != "<html></html>" {
		t.Errorf("Body = %q", first.Body)
	}
	if first.ETag != second.ETag {
		t.Errorf("ETag changed between calls: %s vs %s", first.ETag, second.ETag)
	}
	if !first.RenderedAt.Equal(fixed) {
		t.Errorf("RenderedAt = %v, want %v", first.RenderedAt, fixed)
	}
}

func TestGetOrRender_KeysAreIndependent(t *testing.T) {
	c := New(nil)

	a, _ := c.GetOrRender("landing:2026", func() ([]byte, error) { return []byte("2026"), nil })
	b, _ := c.GetOrRender("landing:2027", func() ([]byte, error) { return []byte("2027"), nil })

	if a.ETag == b.ETag {
		t.Error("different bodies produced the same ETag")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestGetOrRender_ErrorNotCached(t *testing.T) {
	c := New(nil)
	boom := errors.New("boom")

	_, err := c.GetOrRender("k", func() ([]byte, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("GetOrRender() error = %v, want %v", err, boom)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after failed render, want 0", c.Len())
	}

	p, err := c.GetOrRender("k", func() ([]byte, error) { return []byte("ok"), nil })
	if err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if string(p.Body) != "ok" {
		t.Errorf("Body = %q, want ok", p.Body)
	}
}

func TestGetOrRender_ConcurrentCallersShareRender(t *testing.T) {
	c := New(nil)

	var calls atomic.Int32
	release := make(chan struct{})
	render := func() ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("page"), nil
	}

	const callers = 20
	var wg sync.WaitGroup
	results := make(chan Page, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.GetOrRender("k", render)
			if err != nil {
				t.Errorf("GetOrRender() error = %v", err)
				return
			}
			results <- p
		}()
	}

	// let every goroutine reach the cache before the render finishes
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	if got := calls.Load(); got != 1 {
		t.Errorf("render called %d times, want 1", got)
	}
	n := 0
	for p := range results {
		n++
		if string(p.Body) != "page" {
			t.Errorf("Body = %q, want page", p.Body)
		}
	}
	if n != callers {
		t.Errorf("got %d results, want %d", n, callers)
	}
}

func TestPurge(t *testing.T) {
	c := New(nil)
	var calls int
	render := func() ([]byte, error) {
		calls++
		return []byte("x"), nil
	}

	_, _ = c.GetOrRender("k", render)
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Purge, want 0", c.Len())
	}
	_, _ = c.GetOrRender("k", render)
	if calls != 2 {
		t.Errorf("render called %d times, want 2 after Purge", calls)
	}
}

func TestETag(t *testing.T) {
	tag := ETag([]byte("hello"))
	if len(tag) != 18 || tag[0] != '"' || tag[len(tag)-1] != '"' {
		t.Errorf("ETag = %s, want quoted 16 hex chars", tag)
	}
	if tag != ETag([]byte("hello")) {
		t.Error("ETag is not deterministic")
	}
}

func TestGetOrRender_PanicDoesNotBlockLaterCallers(t *testing.T) {
	c := New(nil)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("GetOrRender() did not propagate the render panic")
			}
		}()
		_, _ = c.GetOrRender("k", func() ([]byte, error) { panic("render failed") })
	}()

	done := make(chan Page, 1)
	go func() {
		p, _ := c.GetOrRender("k", func() ([]byte, error) { return []byte("ok"), nil })
		done <- p
	}()

	select {
	case p := <-done:
		if string(p.Body) != "ok" {
			t.Errorf("Body = %q, want ok", p.Body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("GetOrRender() blocked after an earlier render panicked")
	}
}

func TestPurge_DuringRenderDoesNotStoreStalePage(t *testing.T) {
	c := New(nil)

	started := make(chan struct{})
	release := make(chan struct{})
	result := make(chan Page, 1)
	go func() {
		p, _ := c.GetOrRender("k", func() ([]byte, error) {
			close(started)
			<-release
			return []byte("stale"), nil
		})
		result <- p
	}()

	<-started
	c.Purge()
	close(release)

	if p := <-result; string(p.Body) != "stale" {
		t.Errorf("in-flight caller got %q, want stale", p.Body)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0: page rendered before Purge was stored", c.Len())
	}

	p, err := c.GetOrRender("k", func() ([]byte, error) { return []byte("fresh"), nil })
	if err != nil {
		t.Fatalf("GetOrRender() error = %v", err)
	}
	if string(p.Body) != "fresh" {
		t.Errorf("Body = %q, want fresh", p.Body)
	}
}
