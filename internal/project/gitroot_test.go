package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitRoot(t *testing.T) {
	root := t.TempDir()
	_, err := git.PlainInit(root, false)
	require.NoError(t, err)

	nested := filepath.Join(root, "cmd", "tool")
	require.NoError(t, os.MkdirAll(nested, 0755))

	got, err := GitRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(root), got)

	got, err = GitRoot(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean(root), got)
}

func TestGitRoot_NotRepository(t *testing.T) {
	_, err := GitRoot(t.TempDir())
	assert.ErrorIs(t, err, ErrNotGitRepository)
}

func TestGitRoot_Relative(t *testing.T) {
	_, err := GitRoot("some/dir")
	assert.ErrorIs(t, err, ErrRelativePath)
}
