package core

import (
	"context"
	"log/slog"
	"os"
)

// Logger provides enhanced logging capabilities for Tenderwatch
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new logger instance
func NewLogger() *Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})

	return &Logger{Logger: slog.New(handler)}
}

// ForFeature returns a logger carrying the feature name. Children are
// plain derivations with no shared state, so they are safe to hand
// across goroutines.
func (l *Logger) ForFeature(featureName string) *Logger {
	return &Logger{Logger: l.Logger.With("feature", featureName)}
}

// WithContext returns a logger with request context
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	// Extract request ID from context if available
	if requestID, ok := ctx.Value("request_id").(string); ok {
		return &Logger{Logger: l.Logger.With("request_id", requestID)}
	}

	return l
}

// WithSource returns a logger carrying a source identifier
func (l *Logger) WithSource(sourceID string) *Logger {
	return &Logger{Logger: l.Logger.With("source", sourceID)}
}

// LogFeatureEvent logs a feature-specific event
func (l *Logger) LogFeatureEvent(featureName, event string, attrs ...any) {
	featureLogger := l.ForFeature(featureName)
	featureLogger.Info("Feature event", append([]any{"event", event}, attrs...)...)
}

// LogFeatureError logs a feature-specific error
func (l *Logger) LogFeatureError(featureName, message string, err error, attrs ...any) {
	featureLogger := l.ForFeature(featureName)
	allAttrs := append([]any{"error", err}, attrs...)
	featureLogger.Error(message, allAttrs...)
}
