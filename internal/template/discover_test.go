package template

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.tpl.md", "")
	writeFile(t, dir, "docs/guide.tpl.md", "")
	writeFile(t, dir, "docs/deep/store.tpl.de.md", "")
	writeFile(t, dir, "docs/plain.md", "")
	writeFile(t, dir, "notes.tpl.txt", "")

	t.Run("recursive glob finds only templates", func(t *testing.T) {
		found, err := Discover([]string{filepath.Join(dir, "**", "*.tpl.*")})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "README.tpl.md"),
			filepath.Join(dir, "docs", "deep", "store.tpl.de.md"),
			filepath.Join(dir, "docs", "guide.tpl.md"),
		}, found)
	})

	t.Run("literal path accepted", func(t *testing.T) {
		found, err := Discover([]string{filepath.Join(dir, "README.tpl.md")})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "README.tpl.md")}, found)
	})

	t.Run("literal non-template filtered out", func(t *testing.T) {
		found, err := Discover([]string{filepath.Join(dir, "docs", "plain.md")})
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("overlapping patterns deduplicate", func(t *testing.T) {
		found, err := Discover([]string{
			filepath.Join(dir, "**", "*.tpl.*"),
			filepath.Join(dir, "docs", "*.tpl.md"),
			filepath.Join(dir, "docs", "guide.tpl.md"),
		})
		require.NoError(t, err)
		assert.Len(t, found, 3)
	})

	t.Run("no matches is not an error", func(t *testing.T) {
		found, err := Discover([]string{filepath.Join(dir, "nothing", "*.tpl.md")})
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestDiscover_SortedStableOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "z.tpl.md", "")
	writeFile(t, dir, "a.tpl.md", "")
	writeFile(t, dir, "m.tpl.md", "")

	found, err := Discover([]string{filepath.Join(dir, "*.tpl.md")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.tpl.md"),
		filepath.Join(dir, "m.tpl.md"),
		filepath.Join(dir, "z.tpl.md"),
	}, found)
}
