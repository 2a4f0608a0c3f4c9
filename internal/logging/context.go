// internal/logging/context.go
package logging

import (
	"context"
	"fmt"
	"regexp"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 5)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	if cmd := CommandFromContext(ctx); cmd != "" {
		fields = append(fields, zap.String("command", cmd))
	}

	if id := ProjectIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("project.id", id))
	}

	return fields
}

type commandCtxKey struct{}
type projectCtxKey struct{}

const maxIDLen = 128

// idPattern allows alphanumeric, hyphen, underscore
var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func validateID(id, name string) error {
	if id == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if !utf8.ValidString(id) {
		return fmt.Errorf("%s contains invalid UTF-8", name)
	}
	if len(id) > maxIDLen {
		return fmt.Errorf("%s exceeds max length %d", name, maxIDLen)
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (must be alphanumeric, hyphen, underscore)", name)
	}
	return nil
}

// CommandFromContext returns the CLI command name stored in ctx.
func CommandFromContext(ctx context.Context) string {
	if c, ok := ctx.Value(commandCtxKey{}).(string); ok {
		return c
	}
	return ""
}

// WithCommand adds the CLI command name to context.
// Panics if name is empty or contains invalid characters.
func WithCommand(ctx context.Context, name string) context.Context {
	if err := validateID(name, "command"); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, commandCtxKey{}, name)
}

// ProjectIDFromContext returns the project UUID stored in ctx.
func ProjectIDFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(projectCtxKey{}).(string); ok {
		return p
	}
	return ""
}

// WithProjectID adds a project UUID to context.
// Panics if id is empty or contains invalid characters.
func WithProjectID(ctx context.Context, id string) context.Context {
	if err := validateID(id, "projectID"); err != nil {
		panic(fmt.Sprintf("logging: %v", err))
	}
	return context.WithValue(ctx, projectCtxKey{}, id)
}

type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
