package notify

import (
	"context"
	"strings"
	"sync"

	auth "github.com/hirewell/go-auth"
)

// Dispatcher delivers messages off the caller's goroutine through a fixed
// pool of workers reading from a bounded queue. Dispatch never blocks: when
// the queue is full the message is dropped and logged. Delivery is attempted
// once per recipient and never retried.
type Dispatcher struct {
	cfg    Config
	sender Sender
	logger auth.Logger

	mu      sync.RWMutex
	queue   chan Message
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger auth.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher. Call Start before dispatching.
func NewDispatcher(cfg Config, sender Sender, opts ...DispatcherOption) *Dispatcher {
	cfg = cfg.withDefaults()

	d := &Dispatcher{
		cfg:    cfg,
		sender: sender,
		logger: auth.DefaultLogger(),
		queue:  make(chan Message, cfg.QueueSize),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d
}

// Start launches the workers. Jobs already in flight keep running after ctx
// is cancelled; use Stop to drain.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.stopped {
		return
	}
	d.started = true

	workerCtx := context.WithoutCancel(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.work(workerCtx)
	}

	d.logger.Info("notification dispatcher started", "workers", d.cfg.Workers, "queue", d.cfg.QueueSize, "sender", d.senderName())
}

// Dispatch queues msg and returns immediately. It reports whether the
// message was accepted.
func (d *Dispatcher) Dispatch(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		d.logger.Warn("notification dropped", "subject", msg.Subject, "error", ErrDispatcherStopped)
		return false
	}

	select {
	case d.queue <- msg:
		return true
	default:
		d.logger.Error("notification dropped", "subject", msg.Subject, "recipients", len(msg.Recipients), "error", ErrQueueFull)
		return false
	}
}

// Stop refuses new messages and waits for queued ones to be delivered, or
// for ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("notification dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn("notification dispatcher stop timed out", "pending", len(d.queue))
		return ctx.Err()
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(ctx, msg)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg Message) {
	if d.sender == nil {
		d.logger.Error("notification failed", "subject", msg.Subject, "error", ErrSenderNotConfigured)
		return
	}

	if err := d.cfg.ValidateSender(); err != nil {
		d.logger.Error("notification failed", "subject", msg.Subject, "error", err)
		return
	}

	for _, to := range msg.Recipients {
		to = strings.TrimSpace(to)
		if to == "" {
			continue
		}

		err := d.send(ctx, Envelope{
			From:    d.cfg.DefaultSender,
			To:      to,
			Subject: msg.Subject,
			HTML:    msg.HTML,
			Text:    msg.Text,
		})
		if err != nil {
			d.logger.Error("email delivery failed", "to", to, "subject", msg.Subject, "sender", d.sender.Name(), "error", err)
			continue
		}
		d.logger.Info("email sent", "to", to, "subject", msg.Subject, "sender", d.sender.Name())
	}
}

// send isolates a panicking sender to the one recipient.
func (d *Dispatcher) send(ctx context.Context, env Envelope) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("email sender panicked", "to", env.To, "panic", r)
			err = ErrDeliveryRejected
		}
	}()
	return d.sender.Send(ctx, env)
}

func (d *Dispatcher) senderName() string {
	if d.sender == nil {
		return "none"
	}
	return d.sender.Name()
}
