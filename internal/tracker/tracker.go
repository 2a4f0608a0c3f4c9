// Package tracker implements czar's commands on top of the registry, the
// event logs and the active project pointer.
//
// A Tracker is opened once per invocation. Open takes the data directory
// lock and loads the registry and the pointer; every operation checks its
// preconditions before writing anything; Close releases the lock.
//
// At most one project is active at a time. Start moves Idle to Active(P),
// Stop moves Active(P) back to Idle, and nothing else touches the pointer.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/czar/internal/eventlog"
	"github.com/fyrsmithlabs/czar/internal/logging"
	"github.com/fyrsmithlabs/czar/internal/project"
	"github.com/fyrsmithlabs/czar/internal/store"
)

const instrumentationName = "github.com/fyrsmithlabs/czar/internal/tracker"

// User and state errors. None of them leaves a write behind.
var (
	ErrAlreadyRunning  = errors.New("project is already running")
	ErrStopFirst       = errors.New("another project is running, stop it first")
	ErrNotRunning      = errors.New("no project is running")
	ErrProjectMismatch = errors.New("directory project differs from the running project")
	ErrNoProject       = errors.New("not in a project and no project is running")
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrClosed          = errors.New("tracker is closed")
)

// Tracker runs czar operations against one data directory.
type Tracker struct {
	store    *store.Store
	lock     *store.Lock
	logs     *eventlog.Log
	registry *project.Registry
	active   *project.Project

	logger   *logging.Logger
	tracer   trace.Tracer
	meter    metric.Meter
	appended metric.Int64Counter
	now      func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(tr trace.Tracer) Option {
	return func(t *Tracker) {
		if tr != nil {
			t.tracer = tr
		}
	}
}

// WithMeter sets the meter used for the appended-events counter.
func WithMeter(m metric.Meter) Option {
	return func(t *Tracker) {
		if m != nil {
			t.meter = m
		}
	}
}

// WithClock overrides the time source for appended events.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// Open locks dataDir and loads the registry and the active project pointer.
// Without WithLogger the logger stored in ctx is used.
//
// Returns store.ErrLocked if another invocation holds the data directory.
func Open(ctx context.Context, dataDir string, opts ...Option) (tr *Tracker, err error) {
	t := &Tracker{
		logger: logging.FromContext(ctx),
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	ctx, span := t.tracer.Start(ctx, "tracker.open", trace.WithAttributes(
		attribute.String("data_dir", dataDir),
	))
	defer func() { finish(span, err) }()

	lock, err := store.AcquireLock(dataDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = lock.Release()
		}
	}()

	s, err := store.New(dataDir)
	if err != nil {
		return nil, err
	}

	logs := eventlog.NewLog(s, eventlog.WithClock(t.now))
	registry, err := project.NewRegistry(s, logs)
	if err != nil {
		return nil, err
	}

	active, err := loadPointer(s)
	if err != nil {
		return nil, err
	}

	t.store = s
	t.lock = lock
	t.logs = logs
	t.registry = registry
	t.active = active

	t.appended, err = t.meter.Int64Counter(
		"czar.events.appended",
		metric.WithDescription("Events appended to project logs"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		t.logger.Warn(ctx, "failed to create appended counter", zap.Error(err))
		err = nil
	}

	if active != nil {
		if _, ok := registry.Get(active.UUID); !ok {
			t.logger.Warn(ctx, "running project is not in the registry",
				zap.String("project.id", active.UUID),
				zap.String("directory", active.Directory))
		}
	}

	t.logger.Debug(ctx, "tracker opened",
		zap.String("data_dir", dataDir),
		zap.Int("projects", len(registry.List())),
		zap.Bool("running", active != nil))

	return t, nil
}

// Close releases the data directory lock. Safe to call more than once.
func (t *Tracker) Close() error {
	if t == nil || t.lock == nil {
		return nil
	}
	lock := t.lock
	t.lock = nil
	return lock.Release()
}

// Active returns the running project, or nil when idle.
func (t *Tracker) Active() *project.Project {
	if t.active == nil {
		return nil
	}
	p := *t.active
	return &p
}

// Target is the project an operation acts on.
type Target struct {
	Project project.Project

	// ViaActive is set when the directory is outside every project and the
	// running project was used instead.
	ViaActive bool
}

// current applies the current-project rule to dir: the directory's project
// wins, the running project is the fallback, and the two disagreeing is an
// error.
func (t *Tracker) current(ctx context.Context, dir string) (Target, error) {
	dirProject, err := t.registry.Resolve(dir)
	if err != nil && !errors.Is(err, project.ErrNotRegistered) {
		return Target{}, err
	}

	switch {
	case dirProject != nil && t.active != nil && dirProject.UUID != t.active.UUID:
		return Target{}, fmt.Errorf("%w: %s belongs to %s but %s is running",
			ErrProjectMismatch, dir, dirProject.Directory, t.active.Directory)
	case dirProject != nil:
		return Target{Project: *dirProject}, nil
	case t.active != nil:
		t.logger.Info(ctx, "directory is outside every project, using running project",
			zap.String("directory", dir),
			zap.String("project.directory", t.active.Directory))
		return Target{Project: *t.active, ViaActive: true}, nil
	default:
		return Target{}, fmt.Errorf("%w: %s", ErrNoProject, dir)
	}
}

// appendEvent appends e to p's log and counts it.
func (t *Tracker) appendEvent(ctx context.Context, p project.Project, e eventlog.Event) (eventlog.Event, error) {
	stored, err := t.logs.Append(ctx, p.UUID, e)
	if err != nil {
		return eventlog.Event{}, err
	}

	if t.appended != nil {
		t.appended.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(stored.Kind))))
	}
	t.logger.Debug(ctx, "event appended",
		zap.String("kind", string(stored.Kind)),
		zap.Uint64("seq", stored.Seq),
		zap.String("event.uuid", stored.UUID))

	return stored, nil
}

// begin starts the span for operation op.
func (t *Tracker) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span, error) {
	ctx, span := t.tracer.Start(ctx, "tracker."+op, trace.WithAttributes(attrs...))
	if t.lock == nil {
		return ctx, span, ErrClosed
	}
	return ctx, span, nil
}

// withProject tags ctx and span with the chosen project.
func withProject(ctx context.Context, span trace.Span, target Target) context.Context {
	span.SetAttributes(
		attribute.String("project.id", target.Project.UUID),
		attribute.Bool("project.via_active", target.ViaActive),
	)
	return logging.WithProjectID(ctx, target.Project.UUID)
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
