// Package store persists czar's JSON documents under a single data root.
//
// Every document is rewritten in full on each save. Saves go through a
// temporary file in the same directory followed by a rename, so readers see
// either the previous or the new document, never a truncated one. A missing
// document is reported as ErrNotFound and callers treat it as an empty value.
//
// Directory layout:
//
//	~/.project-czar/
//	├── .lock               ← advisory lock held for one invocation
//	├── project-current     ← active project pointer
//	├── project-list        ← project registry
//	└── project-{uuid}      ← event log, one per project
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Errors for store operations.
var (
	ErrNotFound     = errors.New("document not found")
	ErrCorrupt      = errors.New("document corrupted")
	ErrInvalidName  = errors.New("invalid document name")
	ErrEmptyDataDir = errors.New("data directory cannot be empty")
)

// namePattern restricts document names to a single safe path element.
var namePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Store reads and writes JSON documents in a data directory.
type Store struct {
	dir string
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, ErrEmptyDataDir
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the filesystem path of the named document.
func (s *Store) Path(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// Exists reports whether the named document is present.
func (s *Store) Exists(name string) (bool, error) {
	path, err := s.Path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", name, err)
}

// Load decodes the named document into v.
// Returns ErrNotFound if the document does not exist.
func (s *Store) Load(name string, v any) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	return nil
}

// Save encodes v and atomically replaces the named document.
func (s *Store) Save(name string, v any) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod %s: %w", name, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", name, err)
	}
	return nil
}

func validateName(name string) error {
	if name == "" || len(name) > 255 {
		return ErrInvalidName
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if filepath.Clean(name) != name || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
