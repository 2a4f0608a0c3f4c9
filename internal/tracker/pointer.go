package tracker

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/czar/internal/project"
	"github.com/fyrsmithlabs/czar/internal/store"
)

// PointerDocument holds the running project: {} when idle, otherwise a
// snapshot of the project record.
const PointerDocument = "project-current"

type pointer struct {
	UUID      string `json:"project_uuid,omitempty"`
	Directory string `json:"project_directory,omitempty"`
}

// loadPointer returns the running project, or nil when idle or when the
// document does not exist.
func loadPointer(s *store.Store) (*project.Project, error) {
	var ptr pointer
	if err := s.Load(PointerDocument, &ptr); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load running project: %w", err)
	}

	if ptr.UUID == "" && ptr.Directory == "" {
		return nil, nil
	}

	p := &project.Project{UUID: ptr.UUID, Directory: ptr.Directory}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", store.ErrCorrupt, PointerDocument, err)
	}
	return p, nil
}

// savePointer persists p as the running project; nil records idle.
func savePointer(s *store.Store, p *project.Project) error {
	var ptr pointer
	if p != nil {
		ptr = pointer{UUID: p.UUID, Directory: p.Directory}
	}
	if err := s.Save(PointerDocument, ptr); err != nil {
		return fmt.Errorf("failed to save running project: %w", err)
	}
	return nil
}
