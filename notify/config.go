package notify

import (
	"strings"

	auth "github.com/hirewell/go-auth"
)

const (
	ProviderSendGrid = "sendgrid"
	ProviderSES      = "ses"
	ProviderLog      = "log"

	DefaultWorkers   = 4
	DefaultQueueSize = 256
)

// Config is the immutable snapshot the dispatcher works from. Workers never
// read process configuration directly.
type Config struct {
	Provider           string
	APIKey             string
	DefaultSender      string
	SESRegion          string
	SESAccessKeyID     string
	SESSecretAccessKey string
	FrontendURL        string
	TemplatesDir       string
	Workers            int
	QueueSize          int
}

// ConfigFromSettings copies the notification settings into a Config and
// fills in defaults.
func ConfigFromSettings(s auth.NotifySettings) Config {
	cfg := Config{
		Provider:           s.Provider,
		APIKey:             s.APIKey,
		DefaultSender:      s.DefaultSender,
		SESRegion:          s.SESRegion,
		SESAccessKeyID:     s.SESAccessKeyID,
		SESSecretAccessKey: s.SESSecretAccessKey,
		FrontendURL:        s.FrontendURL,
		TemplatesDir:       s.TemplatesDir,
		Workers:            s.Workers,
		QueueSize:          s.QueueSize,
	}
	return cfg.withDefaults()
}

func (c Config) withDefaults() Config {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.DefaultSender = strings.TrimSpace(c.DefaultSender)
	if c.Provider == "" {
		c.Provider = ProviderSendGrid
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if strings.TrimSpace(c.FrontendURL) == "" {
		c.FrontendURL = "http://localhost:3000"
	}
	c.FrontendURL = strings.TrimRight(c.FrontendURL, "/")
	return c
}

// ValidateSender reports whether the provider credentials and the sender
// address are configured.
func (c Config) ValidateSender() error {
	missing := []string{}
	if c.DefaultSender == "" {
		missing = append(missing, "default_sender")
	}
	if c.Provider == ProviderSendGrid && strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "api_key")
	}
	if c.Provider == ProviderSES && strings.TrimSpace(c.SESRegion) == "" {
		missing = append(missing, "ses_region")
	}

	if len(missing) > 0 {
		return ErrSenderNotConfigured.Clone().WithMetadata(map[string]any{
			"provider": c.Provider,
			"missing":  missing,
		})
	}
	return nil
}
