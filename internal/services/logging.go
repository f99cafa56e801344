package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
}

func NewServiceLogger(logger *slog.Logger, component string) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", "forms-service", "component", component),
	}
}

// LogOperation records the outcome of one service call. Expected failures
// (validation, permission, missing resources) log below error level so
// alerting only fires on genuine faults.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation, ownerID string, resourceID uint, duration time.Duration, err error) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("owner_id", ownerID),
		slog.Uint64("resource_id", uint64(resourceID)),
		slog.Duration("duration", duration),
	}

	if err == nil {
		attrs = append(attrs, slog.String("status", "success"))
		l.logger.LogAttrs(ctx, slog.LevelInfo, operation+" succeeded", attrs...)
		return
	}

	attrs = append(attrs, slog.String("error", err.Error()))

	level := slog.LevelError
	status := "error"
	switch {
	case IsValidation(err):
		level, status = slog.LevelWarn, "validation_error"
	case IsUnauthorized(err):
		level, status = slog.LevelWarn, "unauthorized"
	case IsConflict(err):
		level, status = slog.LevelWarn, "conflict"
	case IsWindowClosed(err):
		level, status = slog.LevelInfo, "window_closed"
	case IsNotFound(err):
		level, status = slog.LevelInfo, "not_found"
	}

	attrs = append(attrs, slog.String("status", status))
	l.logger.LogAttrs(ctx, level, operation+" failed", attrs...)
}

// LogValidationError records the individual field violations, capped to
// keep log volume bounded on hostile payloads.
func (l *ServiceLogger) LogValidationError(ctx context.Context, operation string, errs ValidationErrors) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.Int("error_count", len(errs)),
	}

	for i, err := range errs {
		if i >= 5 {
			break
		}
		attrs = append(attrs, slog.Group(fmt.Sprintf("error_%d", i+1),
			slog.String("field", err.Field),
			slog.String("message", err.Message),
			slog.String("rule", err.Rule),
		))
	}

	l.logger.LogAttrs(ctx, slog.LevelWarn, "Validation failed", attrs...)
}

func (l *ServiceLogger) LogPermissionDenied(ctx context.Context, operation string, permError *PermissionError) {
	l.logger.LogAttrs(ctx, slog.LevelWarn, "Permission denied",
		slog.String("operation", operation),
		slog.String("user_id", permError.UserID),
		slog.Uint64("resource_id", uint64(permError.ResourceID)),
		slog.String("resource_type", permError.Resource),
		slog.String("action", permError.Action),
		slog.String("reason", permError.Reason),
	)
}

// FormatError renders a service error as a response body fragment.
func FormatError(err error) map[string]interface{} {
	if err == nil {
		return nil
	}

	result := map[string]interface{}{
		"message": err.Error(),
		"type":    "internal",
	}

	switch e := err.(type) {
	case ValidationErrors:
		result["type"] = "validation"
		result["errors"] = e.Messages()

	case *PermissionError:
		result["type"] = "permission"
		result["resource"] = e.Resource
		result["action"] = e.Action

	default:
		switch {
		case IsNotFound(err):
			result["type"] = "not_found"
		case IsUnauthorized(err):
			result["type"] = "unauthorized"
		case IsConflict(err):
			result["type"] = "conflict"
		case IsWindowClosed(err):
			result["type"] = "window_closed"
		}
	}

	return result
}
