package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Errors for event validation.
var (
	ErrInvalidEvent = errors.New("invalid event")
	ErrUnknownKind  = errors.New("unknown event kind")
)

// Kind is the type of an event.
type Kind string

const (
	// KindStart records clocking in to a project.
	KindStart Kind = "start"
	// KindStop records clocking out of a project.
	KindStop Kind = "stop"
	// KindTask creates a new task; the event's UUID is the task's identity.
	KindTask Kind = "task"
	// KindNote attaches a note to the task named by TaskUUID.
	KindNote Kind = "note"
	// KindDone closes the task named by TaskUUID.
	KindDone Kind = "done"
)

// Kinds lists every valid event kind.
var Kinds = []Kind{KindStart, KindStop, KindTask, KindNote, KindDone}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindStart, KindStop, KindTask, KindNote, KindDone:
		return true
	}
	return false
}

// RefersToTask reports whether events of this kind carry a TaskUUID.
func (k Kind) RefersToTask() bool {
	return k == KindNote || k == KindDone
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	kind := Kind(text)
	if !kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, string(text))
	}
	*k = kind
	return nil
}

// Event is one immutable entry in a project's log.
type Event struct {
	// UUID identifies the event. For task events it is also the task ID.
	UUID string `json:"uuid"`

	// Kind is stored under the "event" key.
	Kind Kind `json:"event"`

	// Seq is the insertion sequence number within the log, starting at 1.
	Seq uint64 `json:"seq"`

	// Time is the UTC append time.
	Time time.Time `json:"time"`

	// Notes is the free text given on the command line, one entry per word
	// group as typed.
	Notes []string `json:"notes"`

	// TaskUUID names the task a note or done event refers to.
	TaskUUID string `json:"task_uuid,omitempty"`
}

// timeLayouts are the timestamp forms accepted on load. Older logs wrote
// ISO-8601 without a zone; those times are UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTime parses an event timestamp in any of the accepted layouts.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized time %q", ErrInvalidEvent, s)
}

// UnmarshalJSON implements json.Unmarshaler. It differs from the default
// decoding only in accepting zone-less timestamps.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	aux := struct {
		*plain
		Time string `json:"time"`
	}{plain: (*plain)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Time == "" {
		e.Time = time.Time{}
		return nil
	}

	t, err := ParseTime(aux.Time)
	if err != nil {
		return err
	}
	e.Time = t
	return nil
}

// New builds an unappended event of the given kind.
// UUID, Seq and Time are assigned by Log.Append.
func New(kind Kind, notes []string) Event {
	return Event{Kind: kind, Notes: copyNotes(notes)}
}

// NewTaskRef builds a note or done event referring to taskUUID.
func NewTaskRef(kind Kind, taskUUID string, notes []string) Event {
	return Event{Kind: kind, TaskUUID: taskUUID, Notes: copyNotes(notes)}
}

// Validate checks that the fields present match the event's kind.
func (e *Event) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidEvent, ErrUnknownKind, e.Kind)
	}
	if e.UUID == "" {
		return fmt.Errorf("%w: %s event has no uuid", ErrInvalidEvent, e.Kind)
	}
	if _, err := uuid.Parse(e.UUID); err != nil {
		return fmt.Errorf("%w: %s event uuid %q: %v", ErrInvalidEvent, e.Kind, e.UUID, err)
	}

	if e.Kind.RefersToTask() {
		if e.TaskUUID == "" {
			return fmt.Errorf("%w: %s event %s has no task_uuid", ErrInvalidEvent, e.Kind, e.UUID)
		}
		if _, err := uuid.Parse(e.TaskUUID); err != nil {
			return fmt.Errorf("%w: %s event %s task_uuid %q: %v", ErrInvalidEvent, e.Kind, e.UUID, e.TaskUUID, err)
		}
	} else if e.TaskUUID != "" {
		return fmt.Errorf("%w: %s event %s must not carry task_uuid", ErrInvalidEvent, e.Kind, e.UUID)
	}

	return nil
}

// Text joins the event's notes with single spaces.
func (e *Event) Text() string {
	return strings.Join(e.Notes, " ")
}

func copyNotes(notes []string) []string {
	out := make([]string, len(notes))
	copy(out, notes)
	return out
}
