package tracker

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fyrsmithlabs/czar/internal/eventlog"
	"github.com/fyrsmithlabs/czar/internal/tasks"
)

// TaskChange is the result of AddTask, AddNote and MarkDone.
type TaskChange struct {
	Target

	// Index is the task's number in the open list the change was made
	// against. For AddTask it is the number the new task now has.
	Index int
	Task  eventlog.Event
	Event eventlog.Event
}

// TaskList is the result of List and Pending.
type TaskList struct {
	Target
	State *tasks.State
}

// AddTask records a new task in the current project.
func (t *Tracker) AddTask(ctx context.Context, dir string, notes []string) (res *TaskChange, err error) {
	ctx, span, err := t.begin(ctx, "task", attribute.String("directory", dir))
	defer func() { finish(span, err) }()
	if err != nil {
		return nil, err
	}

	if blank(notes) {
		return nil, ErrEmptyText
	}

	target, err := t.current(ctx, dir)
	if err != nil {
		return nil, err
	}
	ctx = withProject(ctx, span, target)

	state, err := t.state(ctx, target)
	if err != nil {
		return nil, err
	}

	ev, err := t.appendEvent(ctx, target.Project, eventlog.New(eventlog.KindTask, notes))
	if err != nil {
		return nil, err
	}

	// The new task has the highest seq, so it lands at the end of the list.
	return &TaskChange{Target: target, Index: state.Len() + 1, Task: ev, Event: ev}, nil
}

// AddNote attaches a note to open task number index of the current project.
func (t *Tracker) AddNote(ctx context.Context, dir string, index int, notes []string) (*TaskChange, error) {
	if blank(notes) {
		_, span, err := t.begin(ctx, "note", attribute.String("directory", dir))
		if err == nil {
			err = ErrEmptyText
		}
		finish(span, err)
		return nil, err
	}
	return t.refer(ctx, "note", eventlog.KindNote, dir, index, notes)
}

// MarkDone closes open task number index of the current project. The task
// and its notes disappear from every later listing.
func (t *Tracker) MarkDone(ctx context.Context, dir string, index int, notes []string) (*TaskChange, error) {
	return t.refer(ctx, "done", eventlog.KindDone, dir, index, notes)
}

// refer appends a kind event pointing at the task numbered index.
func (t *Tracker) refer(ctx context.Context, op string, kind eventlog.Kind, dir string, index int, notes []string) (res *TaskChange, err error) {
	ctx, span, err := t.begin(ctx, op,
		attribute.String("directory", dir),
		attribute.Int("task.index", index))
	defer func() { finish(span, err) }()
	if err != nil {
		return nil, err
	}

	target, err := t.current(ctx, dir)
	if err != nil {
		return nil, err
	}
	ctx = withProject(ctx, span, target)

	state, err := t.state(ctx, target)
	if err != nil {
		return nil, err
	}

	task, err := state.Task(index)
	if err != nil {
		return nil, err
	}

	ev, err := t.appendEvent(ctx, target.Project, eventlog.NewTaskRef(kind, task.UUID(), notes))
	if err != nil {
		return nil, err
	}

	return &TaskChange{Target: target, Index: index, Task: task.Event, Event: ev}, nil
}

// List returns the open tasks of the current project.
func (t *Tracker) List(ctx context.Context, dir string) (res *TaskList, err error) {
	ctx, span, err := t.begin(ctx, "list", attribute.String("directory", dir))
	defer func() { finish(span, err) }()
	if err != nil {
		return nil, err
	}

	target, err := t.current(ctx, dir)
	if err != nil {
		return nil, err
	}
	ctx = withProject(ctx, span, target)

	state, err := t.state(ctx, target)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("tasks.open", state.Len()))

	return &TaskList{Target: target, State: state}, nil
}

// Pending returns the open tasks of the running project, wherever it is
// called from. Returns ErrNotRunning when idle.
func (t *Tracker) Pending(ctx context.Context) (res *TaskList, err error) {
	ctx, span, err := t.begin(ctx, "pending")
	defer func() { finish(span, err) }()
	if err != nil {
		return nil, err
	}

	if t.active == nil {
		return nil, ErrNotRunning
	}
	target := Target{Project: *t.active}
	ctx = withProject(ctx, span, target)

	state, err := t.state(ctx, target)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("tasks.open", state.Len()))

	return &TaskList{Target: target, State: state}, nil
}

// state reads target's log and folds it into open tasks.
func (t *Tracker) state(ctx context.Context, target Target) (*tasks.State, error) {
	events, err := t.logs.Read(ctx, target.Project.UUID)
	if err != nil {
		return nil, err
	}
	return tasks.Reconstruct(events), nil
}

func blank(notes []string) bool {
	for _, n := range notes {
		if strings.TrimSpace(n) != "" {
			return false
		}
	}
	return true
}
