package project

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// ErrNotGitRepository is returned when no git worktree encloses a directory.
var ErrNotGitRepository = errors.New("not inside a git worktree")

// GitRoot returns the root of the git worktree enclosing dir.
// Parent directories are searched the same way git itself does.
func GitRoot(dir string) (string, error) {
	clean, err := CleanDir(dir)
	if err != nil {
		return "", err
	}

	repo, err := git.PlainOpenWithOptions(clean, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", fmt.Errorf("%w: %s", ErrNotGitRepository, clean)
		}
		return "", fmt.Errorf("failed to open git repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return "", fmt.Errorf("%w: %s is a bare repository", ErrNotGitRepository, clean)
		}
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}

	return filepath.Clean(wt.Filesystem.Root()), nil
}
