package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/wes-blog/internal/domain"
)

// RedisFeedCache stores feed pages as JSON under "<prefix>:<feed>:<page>"
// with a millisecond expiry.
type RedisFeedCache struct {
	client     *redis.Client
	prefix     string
	ownsClient bool
}

// RedisConfig holds the connection settings for a dedicated client.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// NewRedisFeedCache dials Redis and verifies the connection.
func NewRedisFeedCache(cfg RedisConfig, prefix string) (*RedisFeedCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c := NewRedisFeedCacheFromClient(client, prefix)
	c.ownsClient = true
	return c, nil
}

// NewRedisFeedCacheFromClient shares an existing client; Close leaves it open.
func NewRedisFeedCacheFromClient(client *redis.Client, prefix string) *RedisFeedCache {
	return &RedisFeedCache{client: client, prefix: prefix}
}

// Client exposes the underlying client for other Redis-backed components.
func (c *RedisFeedCache) Client() *redis.Client {
	return c.client
}

func (c *RedisFeedCache) BuildKey(key Key) string {
	return fmt.Sprintf("%s:%s", c.prefix, key.String())
}

func (c *RedisFeedCache) Get(ctx context.Context, key Key) (*domain.PostPage, error) {
	data, err := c.client.Get(ctx, c.BuildKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var page domain.PostPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	if page.Posts == nil {
		page.Posts = []domain.PostResponse{}
	}
	return &page, nil
}

func (c *RedisFeedCache) Set(ctx context.Context, key Key, page *domain.PostPage, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	ms := ttl.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	if err := c.client.Do(ctx, "SET", c.BuildKey(key), data, "PX", ms).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *RedisFeedCache) Close() error {
	if !c.ownsClient {
		return nil
	}
	return c.client.Close()
}

var _ FeedCache = (*RedisFeedCache)(nil)
