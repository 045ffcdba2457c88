package pagecache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Page is a rendered document ready to be written to a response.
type Page struct {
	Body       []byte
	ETag       string
	RenderedAt time.Time
}

// RenderFunc produces the bytes of a page.
type RenderFunc func() ([]byte, error)

// Cache is an in-memory store of rendered pages keyed by name.
//
// Concurrent callers asking for the same missing key share a single render.
// Failed renders are not kept, so the next caller retries.
type Cache struct {
	mu    sync.RWMutex
	pages map[string]Page
	// gen is bumped by Purge so renders started before it are not stored.
	gen   uint64
	group singleflight.Group
	now   func() time.Time
}

// New creates an empty Cache. now stamps RenderedAt; nil means time.Now.
func New(now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		pages: make(map[string]Page),
		now:   now,
	}
}

// GetOrRender returns the page stored under key, rendering it first if
// needed.
func (c *Cache) GetOrRender(key string, render RenderFunc) (Page, error) {
	if page, ok := c.get(key); ok {
		return page, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		page, ok := c.pages[key]
		gen := c.gen
		c.mu.RUnlock()
		if ok {
			return page, nil
		}

		body, err := render()
		if err != nil {
			return Page{}, err
		}
		page = Page{Body: body, ETag: ETag(body), RenderedAt: c.now()}

		c.mu.Lock()
		if c.gen == gen {
			c.pages[key] = page
		}
		c.mu.Unlock()
		return page, nil
	})
	if err != nil {
		return Page{}, err
	}
	return v.(Page), nil
}

func (c *Cache) get(key string) (Page, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	page, ok := c.pages[key]
	return page, ok
}

// Len returns the number of stored pages.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}

// Purge drops every page. Renders already in flight still answer their
// callers but are not stored.
func (c *Cache) Purge() {
	c.mu.Lock()
	c.pages = make(map[string]Page)
	c.gen++
	c.mu.Unlock()
}

// ETag returns a strong entity tag for body.
func ETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}
