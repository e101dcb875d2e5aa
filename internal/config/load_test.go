package config

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadText(t *testing.T) {
	const content = "You are a software architect."
	ctx := context.Background()

	t.Run("raw text", func(t *testing.T) {
		msg, err := LoadText(ctx, content)
		require.NoError(t, err)
		require.Equal(t, content, msg)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "architect.txt")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		msg, err := LoadText(ctx, "file://"+path)
		require.NoError(t, err)
		require.Equal(t, content, msg)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadText(ctx, "file://"+filepath.Join(t.TempDir(), "nope.txt"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("markdown file strips yaml frontmatter", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "coder.md")
		md := "---\nname: coder\n---\nYou write Python.\n"
		require.NoError(t, os.WriteFile(path, []byte(md), 0o644))

		msg, err := LoadText(ctx, "file://"+path)
		require.NoError(t, err)
		require.Equal(t, "You write Python.\n", msg)
	})

	t.Run("markdown file with invalid frontmatter errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "coder.md")
		require.NoError(t, os.WriteFile(path, []byte("---\nname: [broken\n---\ncontent"), 0o644))

		_, err := LoadText(ctx, "file://"+path)
		require.ErrorContains(t, err, "invalid markdown frontmatter")
	})

	t.Run("url", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/missing" {
				http.Error(w, "gone", http.StatusNotFound)
				return
			}
			_, _ = fmt.Fprint(w, content)
		}))
		t.Cleanup(srv.Close)

		msg, err := LoadText(ctx, srv.URL+"/system")
		require.NoError(t, err)
		require.Equal(t, content, msg)

		_, err = LoadText(ctx, srv.URL+"/missing")
		require.ErrorContains(t, err, "HTTP 404")
	})
}

func TestStripYAMLFrontmatter(t *testing.T) {
	out, err := StripYAMLFrontmatter("no frontmatter")
	require.NoError(t, err)
	require.Equal(t, "no frontmatter", out)

	_, err = StripYAMLFrontmatter("---\nopen: true\n")
	require.ErrorContains(t, err, "missing closing delimiter")
}
