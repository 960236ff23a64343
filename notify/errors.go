package notify

import "github.com/goliatone/go-errors"

const (
	TextCodeSenderNotConfigured = "notify_sender_not_configured"
	TextCodeDeliveryRejected    = "notify_delivery_rejected"
	TextCodeQueueFull           = "notify_queue_full"
	TextCodeDispatcherStopped   = "notify_dispatcher_stopped"
)

// ErrSenderNotConfigured is logged when a job reaches a worker without
// provider credentials or a sender address.
var ErrSenderNotConfigured = errors.New("email sender is not configured", errors.CategoryInternal).
	WithTextCode(TextCodeSenderNotConfigured).
	WithCode(errors.CodeInternal)

// ErrDeliveryRejected is returned by senders when the provider answers
// with a status outside the accepted set.
var ErrDeliveryRejected = errors.New("email provider rejected the message", errors.CategoryOperation).
	WithTextCode(TextCodeDeliveryRejected).
	WithCode(errors.CodeInternal)

// ErrQueueFull is logged when a job is dropped because every worker is busy
// and the queue is at capacity.
var ErrQueueFull = errors.New("notification queue is full", errors.CategoryRateLimit).
	WithTextCode(TextCodeQueueFull)

// ErrDispatcherStopped is logged when a job arrives after Stop.
var ErrDispatcherStopped = errors.New("notification dispatcher is stopped", errors.CategoryOperation).
	WithTextCode(TextCodeDispatcherStopped)

// ErrRendererUnavailable is used when no template renderer is configured.
var ErrRendererUnavailable = errors.New("email template renderer unavailable", errors.CategoryInternal).
	WithTextCode("notify_renderer_unavailable")
