package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	apperrors "github.com/leeforge/compact/errors"
	"github.com/leeforge/compact/media/quality"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func names(items []WorkItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestDiscoverFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.jpg"))
	touch(t, filepath.Join(dir, "b.txt"))
	touch(t, filepath.Join(dir, "c.png"))

	items, err := Discover(Options{SourceDir: dir, OutputDir: "compacted"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "c.png"}, names(items))
}

func TestDiscoverSkipsDirectoriesAndCase(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "upper.JPG"))
	touch(t, filepath.Join(dir, "keep.jpeg"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.png"), 0o755))

	items, err := Discover(Options{SourceDir: dir, OutputDir: "out"})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.jpeg"}, names(items))

	items, err = Discover(Options{SourceDir: dir, OutputDir: "out", Extensions: []string{"JPG"}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, quality.FormatJPEG, items[0].Format)
}

func TestDiscoverSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevated privileges on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(t.TempDir(), "real.jpg")
	touch(t, target)
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "link.jpg")))
	require.NoError(t, os.Symlink(t.TempDir(), filepath.Join(dir, "dirlink.png")))

	items, err := Discover(Options{SourceDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"link.jpg"}, names(items))
}

func TestDiscoverAssignsIndexAndOutput(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"b.png", "a.jpg", "c.jpeg"} {
		touch(t, filepath.Join(dir, n))
	}

	items, err := Discover(Options{SourceDir: dir, OutputDir: "compacted"})
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, it := range items {
		assert.Equal(t, i, it.Index)
		assert.Equal(t, filepath.Join("compacted", it.Name), it.Output)
	}
	assert.Equal(t, []string{"a.jpg", "b.png", "c.jpeg"}, names(items))
}

func TestDiscoverSingleFileNotChecked(t *testing.T) {
	items, err := Discover(Options{File: "missing/photo.gif", OutputDir: "compacted"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "photo.gif", items[0].Name)
	assert.Equal(t, filepath.Join("compacted", "photo.gif"), items[0].Output)
	assert.Equal(t, quality.FormatUnknown, items[0].Format)
}

func TestDiscoverMissingDirectory(t *testing.T) {
	_, err := Discover(Options{SourceDir: filepath.Join(t.TempDir(), "nope")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrDiscovery))
}
