package project

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/czar/internal/store"
)

// ListDocument is the store document holding the registry.
const ListDocument = "project-list"

// LogCreator creates the empty event log for a newly registered project.
type LogCreator interface {
	Create(ctx context.Context, projectID string) error
}

// Registry maps directories to projects.
//
// The registry is loaded once when it is opened and written back only when
// a registration succeeds. A missing project-list document is an empty
// registry.
type Registry struct {
	store    *store.Store
	logs     LogCreator
	projects []Project
}

// NewRegistry loads the registry from s. logs may be nil, in which case no
// event log is created on registration.
func NewRegistry(s *store.Store, logs LogCreator) (*Registry, error) {
	r := &Registry{
		store: s,
		logs:  logs,
	}

	var projects []Project
	if err := s.Load(ListDocument, &projects); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}

	for i := range projects {
		if err := projects[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: registry entry %d: %v", store.ErrCorrupt, i, err)
		}
	}
	r.projects = projects

	return r, nil
}

// List returns all registered projects in registration order.
func (r *Registry) List() []Project {
	out := make([]Project, len(r.projects))
	copy(out, r.projects)
	return out
}

// Get returns the project with the given UUID.
func (r *Registry) Get(id string) (*Project, bool) {
	for i := range r.projects {
		if r.projects[i].UUID == id {
			p := r.projects[i]
			return &p, true
		}
	}
	return nil, false
}

// Resolve returns the project whose directory equals or contains dir.
//
// Returns ErrNotRegistered when no project contains dir. If several projects
// contain dir the registry is inconsistent and ErrAmbiguousRegistry is
// returned; callers must treat it as fatal rather than pick one.
func (r *Registry) Resolve(dir string) (*Project, error) {
	clean, err := CleanDir(dir)
	if err != nil {
		return nil, err
	}

	var matches []Project
	for _, p := range r.projects {
		if p.Contains(clean) {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, clean)
	case 1:
		p := matches[0]
		return &p, nil
	default:
		dirs := make([]string, len(matches))
		for i, m := range matches {
			dirs[i] = m.Directory
		}
		return nil, fmt.Errorf("%w: %s is inside %s", ErrAmbiguousRegistry, clean, strings.Join(dirs, ", "))
	}
}

// Register returns the project owning dir, creating one if none does.
//
// If an existing project's directory equals or contains dir, that project is
// returned unchanged with created=false. Otherwise a new project is added,
// the registry is persisted, and an empty event log is created.
func (r *Registry) Register(ctx context.Context, dir string) (*Project, bool, error) {
	existing, err := r.Resolve(dir)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotRegistered) {
		return nil, false, err
	}

	p, err := NewProject(dir)
	if err != nil {
		return nil, false, err
	}

	// Registering a parent of existing projects would make lookups below
	// them ambiguous.
	for _, other := range r.projects {
		if p.Contains(other.Directory) {
			return nil, false, fmt.Errorf("%w: %s contains registered project %s",
				ErrNestedProject, p.Directory, other.Directory)
		}
	}

	updated := make([]Project, 0, len(r.projects)+1)
	updated = append(updated, r.projects...)
	updated = append(updated, *p)

	if err := r.store.Save(ListDocument, updated); err != nil {
		return nil, false, fmt.Errorf("failed to save registry: %w", err)
	}
	r.projects = updated

	if r.logs != nil {
		if err := r.logs.Create(ctx, p.UUID); err != nil {
			return nil, false, fmt.Errorf("failed to create event log: %w", err)
		}
	}

	return p, true, nil
}
