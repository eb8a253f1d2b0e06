package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_WriteReadDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "posts/a.png", strings.NewReader("png-bytes"), 9, "image/png"))

	ok, err := s.Exists(ctx, "posts/a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Read(ctx, "posts/a.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.Delete(ctx, "posts/a.png"))
	require.NoError(t, s.Delete(ctx, "posts/a.png"))

	_, err = s.Read(ctx, "posts/a.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_TraversalStaysInBase(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "../../escape.txt", strings.NewReader("x"), 1, ""))

	ok, err := s.Exists(ctx, "escape.txt")
	require.NoError(t, err)
	assert.True(t, ok, "key is clamped under the base path")

	_, err = s.Read(ctx, "..")
	assert.Error(t, err)
}
