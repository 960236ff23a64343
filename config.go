package auth

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
)

// Settings is the process configuration, parsed once from the environment.
// Treat it as read-only after LoadSettings returns.
type Settings struct {
	SigningKey      string        `env:"JWT_SECRET_KEY"`
	Issuer          string        `env:"JWT_ISSUER" envDefault:"hirewell"`
	Audience        []string      `env:"JWT_AUDIENCE" envSeparator:","`
	AccessTokenTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"1h"`
	RefreshTokenTTL time.Duration `env:"JWT_REFRESH_TTL" envDefault:"720h"`

	SSOClientID     string   `env:"SSO_CLIENT_ID"`
	SSOClientSecret string   `env:"SSO_CLIENT_SECRET"`
	SSOIssuerURL    string   `env:"SSO_ISSUER_URL"`
	SSORedirectURL  string   `env:"SSO_REDIRECT_URL"`
	SSOScopes       []string `env:"SSO_SCOPES" envSeparator:"," envDefault:"openid,email,profile"`
	SSOStateKey     string   `env:"SSO_STATE_KEY"`
	SSOStateHMACKey string   `env:"SSO_STATE_HMAC_KEY"`

	MailProvider      string `env:"MAIL_PROVIDER" envDefault:"sendgrid"`
	SendGridAPIKey    string `env:"SENDGRID_API_KEY"`
	MailDefaultSender string `env:"MAIL_DEFAULT_SENDER"`
	SESRegion         string `env:"SES_REGION" envDefault:"us-east-1"`
	SESAccessKeyID    string `env:"SES_ACCESS_KEY_ID"`
	SESSecretKey      string `env:"SES_SECRET_ACCESS_KEY"`
	FrontendURL       string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	TemplatesDir      string `env:"EMAIL_TEMPLATES_DIR" envDefault:"./templates/email"`
	NotifyWorkers     int    `env:"NOTIFY_WORKERS" envDefault:"4"`
	NotifyQueueSize   int    `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`

	DatabaseURL string `env:"DATABASE_URL" envDefault:"file::memory:?cache=shared"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8978"`
}

var _ Config = (*Settings)(nil)

// SSOSettings is the identity provider registration.
type SSOSettings struct {
	ClientID     string
	ClientSecret string
	IssuerURL    string
	RedirectURL  string
	Scopes       []string
	StateKey     string
	StateHMACKey string
}

// NotifySettings is the snapshot handed to the notification dispatcher.
type NotifySettings struct {
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

// LoadSettings parses the environment into a Settings snapshot.
func LoadSettings() (*Settings, error) {
	s := &Settings{}
	if err := env.Parse(s); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "parse env")
	}
	return s, nil
}

func (s *Settings) GetSigningKey() string {
	return s.SigningKey
}

func (s *Settings) GetIssuer() string {
	return s.Issuer
}

func (s *Settings) GetAudience() []string {
	out := make([]string, len(s.Audience))
	copy(out, s.Audience)
	return out
}

func (s *Settings) GetAccessTokenTTL() time.Duration {
	return s.AccessTokenTTL
}

func (s *Settings) GetRefreshTokenTTL() time.Duration {
	return s.RefreshTokenTTL
}

// SSOConfig returns the identity provider registration.
func (s *Settings) SSOConfig() SSOSettings {
	scopes := make([]string, len(s.SSOScopes))
	copy(scopes, s.SSOScopes)
	return SSOSettings{
		ClientID:     s.SSOClientID,
		ClientSecret: s.SSOClientSecret,
		IssuerURL:    s.SSOIssuerURL,
		RedirectURL:  s.SSORedirectURL,
		Scopes:       scopes,
		StateKey:     s.SSOStateKey,
		StateHMACKey: s.SSOStateHMACKey,
	}
}

// NotifyConfig returns the mail delivery snapshot.
func (s *Settings) NotifyConfig() NotifySettings {
	return NotifySettings{
		Provider:           s.MailProvider,
		APIKey:             s.SendGridAPIKey,
		DefaultSender:      s.MailDefaultSender,
		SESRegion:          s.SESRegion,
		SESAccessKeyID:     s.SESAccessKeyID,
		SESSecretAccessKey: s.SESSecretKey,
		FrontendURL:        s.FrontendURL,
		TemplatesDir:       s.TemplatesDir,
		Workers:            s.NotifyWorkers,
		QueueSize:          s.NotifyQueueSize,
	}
}
