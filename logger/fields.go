package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Components
	FieldComponent = "component"
	FieldOperation = "operation"

	// Schema generation
	FieldDatabase   = "database"    // configured database title (e.g. "Tasks")
	FieldDatabaseID = "database_id" // Notion database id
	FieldProperty   = "property"
	FieldKind       = "kind"
	FieldEnum       = "enum"

	// Library rewrite
	FieldDeclaration = "declaration"
	FieldTargetField = "target_field"
	FieldMarked      = "marked"
	FieldPropagated  = "propagated"
	FieldWarnings    = "warnings"

	// HTTP
	FieldStatus  = "status"
	FieldAttempt = "attempt"
	FieldURL     = "url"

	// Timing and counts
	FieldDurationMS = "duration_ms"
	FieldCount      = "count"

	// Files and paths
	FieldFile  = "file"
	FieldPath  = "path"
	FieldError = "error"
)

type contextKey string

const (
	componentKey contextKey = "logger_component"
	databaseKey  contextKey = "logger_database"
)

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// WithDatabase adds a database title to the context for logging
func WithDatabase(ctx context.Context, title string) context.Context {
	return context.WithValue(ctx, databaseKey, title)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}
	if database, ok := ctx.Value(databaseKey).(string); ok && database != "" {
		fields = append(fields, FieldDatabase, database)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	rw := generic.NewRewriter(opts, logger.ComponentLogger("rewrite"))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
