package project

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Common errors.
var (
	ErrNotRegistered     = errors.New("directory is not inside a registered project")
	ErrAmbiguousRegistry = errors.New("directory is inside more than one registered project")
	ErrNestedProject     = errors.New("directory contains an already registered project")
	ErrInvalidProjectID  = errors.New("invalid project ID")
	ErrEmptyProjectID    = errors.New("project ID cannot be empty")
	ErrEmptyDirectory    = errors.New("project directory cannot be empty")
	ErrRelativePath      = errors.New("project directory must be absolute")
)

// Project is a registered directory tree with its own event log.
type Project struct {
	// UUID is the unique project identifier.
	UUID string `json:"project_uuid"`

	// Directory is the absolute, cleaned directory captured at registration.
	Directory string `json:"project_directory"`
}

// NewProject creates a project for dir with a generated UUID.
func NewProject(dir string) (*Project, error) {
	clean, err := CleanDir(dir)
	if err != nil {
		return nil, err
	}
	return &Project{
		UUID:      uuid.New().String(),
		Directory: clean,
	}, nil
}

// Validate checks if the project has valid fields.
func (p *Project) Validate() error {
	if p.UUID == "" {
		return ErrEmptyProjectID
	}
	if _, err := uuid.Parse(p.UUID); err != nil {
		return ErrInvalidProjectID
	}
	if p.Directory == "" {
		return ErrEmptyDirectory
	}
	if !filepath.IsAbs(p.Directory) {
		return ErrRelativePath
	}
	return nil
}

// Contains reports whether dir is the project directory or lies beneath it.
// The test is purely lexical; symlinks are not resolved.
func (p *Project) Contains(dir string) bool {
	return Contains(p.Directory, dir)
}

// Contains reports whether dir equals root or is a lexical descendant of it.
func Contains(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	first := strings.SplitN(rel, string(filepath.Separator), 2)[0]
	return first != ".."
}

// CleanDir validates that dir is absolute and returns it cleaned.
func CleanDir(dir string) (string, error) {
	if dir == "" {
		return "", ErrEmptyDirectory
	}
	if !filepath.IsAbs(dir) {
		return "", ErrRelativePath
	}
	return filepath.Clean(dir), nil
}
