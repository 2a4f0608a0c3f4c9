package tracker

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/czar/internal/project"
)

// Registration is the result of Add.
type Registration struct {
	Project project.Project
	Created bool
}

// Add registers dir as a project. If dir is already inside a project that
// project is returned with Created false.
func (t *Tracker) Add(ctx context.Context, dir string) (res *Registration, err error) {
	ctx, span, err := t.begin(ctx, "add", attribute.String("directory", dir))
	defer func() { finish(span, err) }()
	if err != nil {
		return nil, err
	}

	p, created, err := t.registry.Register(ctx, dir)
	if err != nil {
		return nil, err
	}
	ctx = withProject(ctx, span, Target{Project: *p})
	span.SetAttributes(attribute.Bool("project.created", created))

	if created {
		t.logger.Info(ctx, "project registered", zap.String("directory", p.Directory))
	}

	return &Registration{Project: *p, Created: created}, nil
}

// Status is the result of Info.
type Status struct {
	Directory string

	// Project contains Directory; nil if none does.
	Project *project.Project

	// Running is the active project; nil when idle.
	Running *project.Project
}

// Info reports the project containing dir and the running project.
// Not being in a project and being idle are both normal outcomes.
func (t *Tracker) Info(ctx context.Context, dir string) (res *Status, err error) {
	ctx, span, err := t.begin(ctx, "info", attribute.String("directory", dir))
	defer func() { finish(span, err) }()
	if err != nil {
		return nil, err
	}

	clean, err := project.CleanDir(dir)
	if err != nil {
		return nil, err
	}

	st := &Status{Directory: clean, Running: t.Active()}

	p, err := t.registry.Resolve(clean)
	switch {
	case err == nil:
		st.Project = p
	case errors.Is(err, project.ErrNotRegistered):
		err = nil
	default:
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("in_project", st.Project != nil),
		attribute.Bool("running", st.Running != nil),
	)
	return st, nil
}

// ProjectStatus pairs a registered project with whether it is running.
type ProjectStatus struct {
	Project project.Project
	Running bool
}

// Projects lists every registered project in registration order.
func (t *Tracker) Projects(ctx context.Context) (res []ProjectStatus, err error) {
	_, span, err := t.begin(ctx, "projects")
	defer func() { finish(span, err) }()
	if err != nil {
		return nil, err
	}

	list := t.registry.List()
	out := make([]ProjectStatus, len(list))
	for i, p := range list {
		out[i] = ProjectStatus{
			Project: p,
			Running: t.active != nil && t.active.UUID == p.UUID,
		}
	}
	span.SetAttributes(attribute.Int("projects", len(out)))
	return out, nil
}
