package activitymap

import (
	"strings"
	"time"

	auth "github.com/hirewell/go-auth"
)

const (
	// MetadataKeySource records which component produced the event.
	MetadataKeySource = "source"
)

const defaultUserID = "system"

// Record is the persisted audit shape: {user_id, action, timestamp, metadata}.
type Record struct {
	UserID    string         `json:"user_id"`
	Action    string         `json:"action"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	source       string
	userFallback string
	now          func() time.Time
}

// Normalize converts an auth.ActivityEvent into the record shape stored by
// audit sinks. Timestamps are always UTC.
func Normalize(event auth.ActivityEvent, opts ...Option) Record {
	options := normalizeOptions{
		userFallback: defaultUserID,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	userID := strings.TrimSpace(event.UserID)
	if userID == "" {
		userID = options.userFallback
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = options.now()
	}

	metadata := cloneMap(event.Metadata)
	if options.source != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[MetadataKeySource]; !exists {
			metadata[MetadataKeySource] = options.source
		}
	}

	return Record{
		UserID:    userID,
		Action:    strings.TrimSpace(string(event.EventType)),
		Timestamp: occurredAt.UTC(),
		Metadata:  metadata,
	}
}

// WithSource tags every record with the producing component.
func WithSource(source string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.source = strings.TrimSpace(source)
	}
}

// WithUserFallback sets the user id used when the event carries none.
func WithUserFallback(userID string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		if userID = strings.TrimSpace(userID); userID != "" {
			opts.userFallback = userID
		}
	}
}

// WithClock overrides the time used for events without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(opts *normalizeOptions) {
		if opts == nil || now == nil {
			return
		}
		opts.now = now
	}
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
