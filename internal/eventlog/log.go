// Package eventlog stores the per-project append-only event log.
//
// Each project has one document, project-{uuid}, holding its events
// newest-first. Append prepends a new event and rewrites the document in
// full; nothing is ever edited or removed. Every event carries a Seq number
// assigned at append time so consumers can order events without relying on
// storage position or wall-clock time.
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/czar/internal/store"
)

// ErrEmptyProjectID is returned when a log operation has no project.
var ErrEmptyProjectID = errors.New("project ID cannot be empty")

// DocumentName returns the store document name for a project's log.
func DocumentName(projectID string) string {
	return "project-" + projectID
}

// Log reads and appends project event logs.
type Log struct {
	store *store.Store
	now   func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the time source used to stamp appended events.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// NewLog creates a Log backed by s.
func NewLog(s *store.Store, opts ...Option) *Log {
	l := &Log{store: s, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Create writes an empty log for projectID unless one already exists.
func (l *Log) Create(ctx context.Context, projectID string) error {
	if projectID == "" {
		return ErrEmptyProjectID
	}
	exists, err := l.store.Exists(DocumentName(projectID))
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return l.store.Save(DocumentName(projectID), []Event{})
}

// Read returns the project's events newest-first.
// A missing log is an empty sequence. Every event is validated; documents
// written before sequence numbers existed get them derived from position.
func (l *Log) Read(ctx context.Context, projectID string) ([]Event, error) {
	if projectID == "" {
		return nil, ErrEmptyProjectID
	}

	var events []Event
	if err := l.store.Load(DocumentName(projectID), &events); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return []Event{}, nil
		}
		return nil, err
	}
	if events == nil {
		events = []Event{}
	}

	assignLegacySeq(events)

	for i := range events {
		if err := events[i].Validate(); err != nil {
			return nil, fmt.Errorf("project %s event %d: %w", projectID, i, err)
		}
		if i > 0 && events[i].Seq >= events[i-1].Seq {
			return nil, fmt.Errorf("%w: project %s: seq %d follows %d in newest-first order",
				ErrInvalidEvent, projectID, events[i].Seq, events[i-1].Seq)
		}
	}

	return events, nil
}

// Append stamps e with a UUID (if unset), the next sequence number and the
// current UTC time, prepends it to the project's log and rewrites the log.
// The stamped event is returned.
func (l *Log) Append(ctx context.Context, projectID string, e Event) (Event, error) {
	events, err := l.Read(ctx, projectID)
	if err != nil {
		return Event{}, err
	}

	if e.UUID == "" {
		e.UUID = uuid.New().String()
	}
	e.Seq = 1
	if len(events) > 0 {
		e.Seq = events[0].Seq + 1
	}
	e.Time = l.now().UTC()
	if e.Notes == nil {
		e.Notes = []string{}
	}

	if err := e.Validate(); err != nil {
		return Event{}, err
	}

	updated := make([]Event, 0, len(events)+1)
	updated = append(updated, e)
	updated = append(updated, events...)

	if err := l.store.Save(DocumentName(projectID), updated); err != nil {
		return Event{}, fmt.Errorf("failed to append %s event: %w", e.Kind, err)
	}
	return e, nil
}

// assignLegacySeq fills in sequence numbers for logs that predate them.
// Storage is newest-first, so position i of n maps to seq n-i.
func assignLegacySeq(events []Event) {
	for _, e := range events {
		if e.Seq != 0 {
			return
		}
	}
	n := uint64(len(events))
	for i := range events {
		events[i].Seq = n - uint64(i)
	}
}
