package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestNew(t *testing.T) {
	t.Run("creates missing directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "data")

		s, err := New(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, s.Dir())

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("empty directory", func(t *testing.T) {
		_, err := New("")
		assert.ErrorIs(t, err, ErrEmptyDataDir)
	})
}

func TestStore_SaveLoad(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save("project-list", doc{Name: "a", Count: 1}))

	var got doc
	require.NoError(t, s.Load("project-list", &got))
	assert.Equal(t, doc{Name: "a", Count: 1}, got)

	// Overwrite replaces the whole document
	require.NoError(t, s.Save("project-list", doc{Name: "b"}))
	got = doc{}
	require.NoError(t, s.Load("project-list", &got))
	assert.Equal(t, doc{Name: "b"}, got)

	path, err := s.Path("project-list")
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save("project-current", doc{Count: i}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}
	assert.Len(t, entries, 1)
}

func TestStore_LoadMissing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	var got doc
	err = s.Load("project-current", &got)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	exists, err := s.Exists("project-current")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "project-list"), []byte("{not json"), 0600))

	var got doc
	err = s.Load("project-list", &got)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestStore_InvalidNames(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"dot", "."},
		{"dotdot", ".."},
		{"traversal", "../evil"},
		{"separator", "a/b"},
		{"hidden", ".lock"},
		{"space", "project list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Path(tt.input)
			assert.ErrorIs(t, err, ErrInvalidName)
			assert.ErrorIs(t, s.Save(tt.input, doc{}), ErrInvalidName)
		})
	}
}

func TestAcquireLock(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireLock(dir)
	require.NoError(t, err)

	// flock locks are per open file description, so a second open in the
	// same process conflicts just like a second process would.
	_, err = AcquireLock(dir)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Release())
	require.NoError(t, first.Release())

	second, err := AcquireLock(dir)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}
