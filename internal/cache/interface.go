package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weiawesome/wes-blog/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// FeedGlobal names the all-posts feed.
const FeedGlobal = "global"

// Key identifies one cached feed page.
type Key struct {
	Feed string
	Page int
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Feed, k.Page)
}

// FeedCache stores rendered feed pages for a bounded time. Entries are
// never invalidated; they simply expire.
type FeedCache interface {
	Get(ctx context.Context, key Key) (*domain.PostPage, error)
	Set(ctx context.Context, key Key, page *domain.PostPage, ttl time.Duration) error
	Close() error
}
