package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.FeedCache.Driver)
	assert.Equal(t, 20*time.Second, cfg.FeedCache.TTL)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, int64(5<<20), cfg.Media.MaxSize)
	assert.Equal(t, 960, cfg.Media.ThumbWidth)
	assert.Equal(t, "none", cfg.Events.Driver)
	assert.Equal(t, "/login", cfg.Auth.LoginURL)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessDuration)
}

func TestLoadFrom_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9000
feed_cache:
  driver: redis
  ttl: 45s
storage:
  type: s3
  s3:
    bucket: blog-media
events:
  driver: kafka
auth:
  jwt_secret: from-file
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.FeedCache.Driver)
	assert.Equal(t, 45*time.Second, cfg.FeedCache.TTL)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "blog-media", cfg.Storage.S3.Bucket)
	assert.Equal(t, "kafka", cfg.Events.Driver)
	assert.Equal(t, "kafka-1:9092,kafka-2:9092", cfg.Events.Kafka.Brokers)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoadFrom_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("FEED_CACHE_TTL", "soon")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.FeedCache.TTL)
}
