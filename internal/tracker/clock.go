package tracker

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/czar/internal/eventlog"
	"github.com/fyrsmithlabs/czar/internal/project"
)

// Transition is the result of Start or Stop.
type Transition struct {
	Project project.Project
	Event   eventlog.Event
}

// Start makes the project containing dir the running project and appends a
// start event to its log.
//
// Returns ErrAlreadyRunning if that project is already running and
// ErrStopFirst if a different one is. Neither changes anything.
func (t *Tracker) Start(ctx context.Context, dir string, notes []string) (res *Transition, err error) {
	ctx, span, err := t.begin(ctx, "start", attribute.String("directory", dir))
	defer func() { finish(span, err) }()
	if err != nil {
		return nil, err
	}

	p, err := t.registry.Resolve(dir)
	if err != nil {
		return nil, err
	}
	ctx = withProject(ctx, span, Target{Project: *p})

	if t.active != nil {
		if t.active.UUID == p.UUID {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, p.Directory)
		}
		return nil, fmt.Errorf("%w: %s is running", ErrStopFirst, t.active.Directory)
	}

	// The pointer is written first; the start event is the record of a
	// transition that already happened.
	if err := savePointer(t.store, p); err != nil {
		return nil, err
	}

	ev, err := t.appendEvent(ctx, *p, eventlog.New(eventlog.KindStart, notes))
	if err != nil {
		if rbErr := savePointer(t.store, nil); rbErr != nil {
			t.logger.Error(ctx, "failed to roll back running project", zap.Error(rbErr))
		}
		return nil, err
	}

	t.active = p
	t.logger.Info(ctx, "project started", zap.String("directory", p.Directory))

	return &Transition{Project: *p, Event: ev}, nil
}

// Stop clears the running project and appends a stop event to its log.
//
// Returns ErrNotRunning when idle.
func (t *Tracker) Stop(ctx context.Context, notes []string) (res *Transition, err error) {
	ctx, span, err := t.begin(ctx, "stop")
	defer func() { finish(span, err) }()
	if err != nil {
		return nil, err
	}

	if t.active == nil {
		return nil, ErrNotRunning
	}
	p := *t.active
	ctx = withProject(ctx, span, Target{Project: p})

	if err := savePointer(t.store, nil); err != nil {
		return nil, err
	}

	ev, err := t.appendEvent(ctx, p, eventlog.New(eventlog.KindStop, notes))
	if err != nil {
		if rbErr := savePointer(t.store, &p); rbErr != nil {
			t.logger.Error(ctx, "failed to roll back running project", zap.Error(rbErr))
		}
		return nil, err
	}

	t.active = nil
	t.logger.Info(ctx, "project stopped", zap.String("directory", p.Directory))

	return &Transition{Project: p, Event: ev}, nil
}
