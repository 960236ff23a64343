package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventSSOLogin       ActivityEventType = "sso_login"
	ActivityEventTokenRefresh   ActivityEventType = "token_refresh"
	ActivityEventUserRegistered ActivityEventType = "user_registered"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// AuditLogger records audit events on a best effort basis. Sink failures
// are logged and never reach the caller.
type AuditLogger struct {
	sink   ActivitySink
	logger Logger
	now    func() time.Time
}

// AuditLoggerOption configures an AuditLogger
type AuditLoggerOption func(*AuditLogger)

// WithAuditLogger sets the logger used to report sink failures.
func WithAuditLogger(logger Logger) AuditLoggerOption {
	return func(a *AuditLogger) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAuditClock overrides the timestamp source.
func WithAuditClock(now func() time.Time) AuditLoggerOption {
	return func(a *AuditLogger) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAuditLogger wraps sink. A nil sink discards events.
func NewAuditLogger(sink ActivitySink, opts ...AuditLoggerOption) *AuditLogger {
	a := &AuditLogger{
		sink:   normalizeActivitySink(sink),
		logger: defLogger{},
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Record appends one audit event. It never returns an error.
func (a *AuditLogger) Record(ctx context.Context, userID string, action ActivityEventType, metadata map[string]any) {
	if a == nil {
		return
	}

	event := ActivityEvent{
		EventType:  action,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: a.now().UTC(),
	}

	if err := a.sink.Record(ctx, event); err != nil {
		a.logger.Error("audit record failed", "action", action, "user_id", userID, "error", err)
	}
}
