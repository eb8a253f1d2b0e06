package cache

import (
	"context"
	"sync"
	"time"

	"github.com/weiawesome/wes-blog/internal/clock"
	"github.com/weiawesome/wes-blog/internal/domain"
)

type memoryEntry struct {
	page      domain.PostPage
	expiresAt time.Time
}

// MemoryFeedCache is an in-process FeedCache. Expired entries count as
// misses and are dropped when next read.
type MemoryFeedCache struct {
	mu      sync.Mutex
	entries map[Key]memoryEntry
	clock   clock.Clock
}

// NewMemoryFeedCache creates an empty cache reading time from clk.
func NewMemoryFeedCache(clk clock.Clock) *MemoryFeedCache {
	if clk == nil {
		clk = clock.Real{}
	}
	return &MemoryFeedCache{
		entries: make(map[Key]memoryEntry),
		clock:   clk,
	}
}

func (c *MemoryFeedCache) Get(_ context.Context, key Key) (*domain.PostPage, error) {
	now := c.clock.Now()

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && !now.Before(entry.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	return clonePage(&entry.page), nil
}

func (c *MemoryFeedCache) Set(_ context.Context, key Key, page *domain.PostPage, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	entry := memoryEntry{page: *clonePage(page), expiresAt: c.clock.Now().Add(ttl)}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

// Len reports how many entries are held, expired or not.
func (c *MemoryFeedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryFeedCache) Close() error {
	c.mu.Lock()
	c.entries = make(map[Key]memoryEntry)
	c.mu.Unlock()
	return nil
}

// clonePage copies the post slice so callers cannot mutate cached data.
func clonePage(p *domain.PostPage) *domain.PostPage {
	out := *p
	out.Posts = append([]domain.PostResponse(nil), p.Posts...)
	if out.Posts == nil {
		out.Posts = []domain.PostResponse{}
	}
	return &out
}

var _ FeedCache = (*MemoryFeedCache)(nil)
