package notify

import (
	"context"

	auth "github.com/hirewell/go-auth"
)

// LogSender writes envelopes to the logger instead of sending them. Used in
// development.
type LogSender struct {
	logger auth.Logger
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(logger auth.Logger) *LogSender {
	if logger == nil {
		logger = auth.DefaultLogger()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Name() string {
	return ProviderLog
}

func (s *LogSender) Send(ctx context.Context, env Envelope) error {
	s.logger.Info("email (log sender)",
		"from", env.From,
		"to", env.To,
		"subject", env.Subject,
		"text", env.Text,
	)
	return nil
}

// NewSender picks the Sender for cfg.Provider.
func NewSender(ctx context.Context, cfg Config, logger auth.Logger) (Sender, error) {
	switch cfg.Provider {
	case ProviderSES:
		return NewSESSender(ctx, cfg)
	case ProviderLog:
		return NewLogSender(logger), nil
	default:
		return NewSendGridSender(cfg.APIKey, ""), nil
	}
}
