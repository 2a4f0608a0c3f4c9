// Package tasks derives open tasks and their notes from a project's event log.
//
// Nothing here is stored: task state is a fold over the log. A task is open
// until any done event names it, wherever that done event sits in the log.
// Done-ness is collected in a first pass so that the fold does not depend on
// the relative order of task, note and done events.
//
// Ordering at the display boundary uses each event's Seq, never its storage
// position or timestamp: open tasks are listed oldest first and numbered
// from 1, and notes under a task are listed newest first.
package tasks

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fyrsmithlabs/czar/internal/eventlog"
)

// ErrBadIndex is returned when a task number is outside the open task list.
var ErrBadIndex = errors.New("no open task with that number")

// Task is an open task with its notes.
type Task struct {
	// Index is the 1-based display number.
	Index int

	// Event is the originating task event.
	Event eventlog.Event

	// Notes are the task's note events, newest first.
	Notes []eventlog.Event
}

// UUID returns the task's identity.
func (t *Task) UUID() string {
	return t.Event.UUID
}

// State is the reconstructed open task list.
type State struct {
	// Open holds open tasks oldest first; Open[i].Index == i+1.
	Open []Task
}

// Len returns the number of open tasks.
func (s *State) Len() int {
	return len(s.Open)
}

// Task returns the open task with the given 1-based index.
func (s *State) Task(index int) (*Task, error) {
	if index < 1 || index > len(s.Open) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrBadIndex, index, len(s.Open))
	}
	return &s.Open[index-1], nil
}

// OpenTasks scans a newest-first event sequence and returns the open task
// events in scan order (newest first) together with the notes of each open
// task keyed by task UUID, also in scan order.
func OpenTasks(events []eventlog.Event) ([]eventlog.Event, map[string][]eventlog.Event) {
	done := doneSet(events)

	open := make([]eventlog.Event, 0)
	notes := make(map[string][]eventlog.Event)

	for _, e := range events {
		switch e.Kind {
		case eventlog.KindTask:
			if !done[e.UUID] {
				open = append(open, e)
			}
		case eventlog.KindNote:
			if !done[e.TaskUUID] && !done[e.UUID] {
				notes[e.TaskUUID] = append(notes[e.TaskUUID], e)
			}
		}
	}

	return open, notes
}

// Reconstruct folds events (in any storage order) into the display state.
func Reconstruct(events []eventlog.Event) *State {
	open, notes := OpenTasks(events)

	sort.SliceStable(open, func(i, j int) bool {
		return open[i].Seq < open[j].Seq
	})

	state := &State{Open: make([]Task, 0, len(open))}
	for i, e := range open {
		taskNotes := notes[e.UUID]
		sorted := make([]eventlog.Event, len(taskNotes))
		copy(sorted, taskNotes)
		sort.SliceStable(sorted, func(a, b int) bool {
			return sorted[a].Seq > sorted[b].Seq
		})

		state.Open = append(state.Open, Task{
			Index: i + 1,
			Event: e,
			Notes: sorted,
		})
	}
	return state
}

func doneSet(events []eventlog.Event) map[string]bool {
	done := make(map[string]bool)
	for _, e := range events {
		if e.Kind == eventlog.KindDone {
			done[e.TaskUUID] = true
		}
	}
	return done
}
