package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("FEED_CACHE_TTL", "5s")

	v, err := Load(t.TempDir(), "does-not-exist")
	require.NoError(t, err)
	assert.Equal(t, "5s", v.GetString("feed_cache.ttl"))
}

func TestLoad_ReadsYAML(t *testing.T) {
	dir := t.TempDir()
	body := []byte("server:\n  port: 9090\nfeed_cache:\n  driver: memory\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blog.yaml"), body, 0o644))

	v, err := Load(dir, "blog")
	require.NoError(t, err)
	assert.Equal(t, 9090, v.GetInt("server.port"))
	assert.Equal(t, "memory", v.GetString("feed_cache.driver"))
}

func TestGetEnv(t *testing.T) {
	t.Setenv("BLOG_TEST_VALUE", "x")
	assert.Equal(t, "x", GetEnv("BLOG_TEST_VALUE", "d"))
	assert.Equal(t, "d", GetEnv("BLOG_TEST_UNSET_VALUE", "d"))
}
