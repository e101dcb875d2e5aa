package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCache(t *testing.T) {
	dir := t.TempDir()
	c, err := New[doc](dir, TranscriptCache)
	require.NoError(t, err)

	t.Run("put and get", func(t *testing.T) {
		require.NoError(t, c.Put("abcdef", doc{Name: "a", Count: 2}))
		got, err := c.Get("abcdef")
		require.NoError(t, err)
		require.Equal(t, doc{Name: "a", Count: 2}, got)
		require.FileExists(t, filepath.Join(dir, "transcripts", "ab", "abcdef.json"))
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, c.Put("abcdef", doc{Name: "b"}))
		got, err := c.Get("abcdef")
		require.NoError(t, err)
		require.Equal(t, "b", got.Name)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := c.Get("ffffff")
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, c.Delete("abcdef"))
		_, err := c.Get("abcdef")
		require.ErrorIs(t, err, os.ErrNotExist)
		require.ErrorIs(t, c.Delete("abcdef"), os.ErrNotExist)
	})

	t.Run("short id", func(t *testing.T) {
		require.NoError(t, c.Put("a", doc{Name: "short"}))
		got, err := c.Get("a")
		require.NoError(t, err)
		require.Equal(t, "short", got.Name)
	})

	t.Run("invalid ids", func(t *testing.T) {
		for _, id := range []string{"", "..", "a/b", "../etc"} {
			require.ErrorIs(t, c.Put(id, doc{}), ErrInvalidID, id)
			_, err := c.Get(id)
			require.ErrorIs(t, err, ErrInvalidID, id)
		}
	})
}
