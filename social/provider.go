package social

import (
	"context"
	"strings"
)

// Provider is a federated identity provider able to run the authorization
// code flow and hand back an Assertion.
type Provider interface {
	// Name returns the provider identifier used in links and state.
	Name() string

	// AuthCodeURL returns the URL to redirect users for authorization.
	AuthCodeURL(state string, opts ...AuthCodeOption) string

	// Exchange trades an authorization code for a verified assertion.
	Exchange(ctx context.Context, code string, opts ...ExchangeOption) (*Assertion, error)
}

// Assertion is the identity data the provider vouches for after a
// successful exchange.
type Assertion struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Raw           map[string]any
}

// NormalizedEmail returns the trimmed, lowercased email.
func (a *Assertion) NormalizedEmail() string {
	if a == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(a.Email))
}

// AuthCodeOption configures the authorization URL.
type AuthCodeOption func(*AuthCodeConfig)

// WithPKCE sets the S256 code challenge derived from verifier.
func WithPKCE(verifier string) AuthCodeOption {
	return func(c *AuthCodeConfig) {
		c.CodeVerifier = verifier
	}
}

// WithPrompt sets the prompt parameter (e.g., "consent", "select_account").
func WithPrompt(prompt string) AuthCodeOption {
	return func(c *AuthCodeConfig) {
		c.Prompt = prompt
	}
}

// WithNonce sets the OIDC nonce echoed back in the id_token.
func WithNonce(nonce string) AuthCodeOption {
	return func(c *AuthCodeConfig) {
		c.Nonce = nonce
	}
}

// ExchangeOption configures the token exchange.
type ExchangeOption func(*ExchangeConfig)

// WithCodeVerifier sets the PKCE code verifier for token exchange.
func WithCodeVerifier(verifier string) ExchangeOption {
	return func(c *ExchangeConfig) {
		c.CodeVerifier = verifier
	}
}

// WithExpectedNonce makes the exchange reject id_tokens with another nonce.
func WithExpectedNonce(nonce string) ExchangeOption {
	return func(c *ExchangeConfig) {
		c.Nonce = nonce
	}
}

// AuthCodeConfig represents applied auth code options in a provider-friendly form.
type AuthCodeConfig struct {
	CodeVerifier string
	Prompt       string
	Nonce        string
}

// ExchangeConfig represents applied exchange options in a provider-friendly form.
type ExchangeConfig struct {
	CodeVerifier string
	Nonce        string
}

// ApplyAuthCodeOptions applies AuthCodeOption values and returns a normalized config.
func ApplyAuthCodeOptions(opts ...AuthCodeOption) AuthCodeConfig {
	cfg := AuthCodeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// ApplyExchangeOptions applies ExchangeOption values and returns a normalized config.
func ApplyExchangeOptions(opts ...ExchangeOption) ExchangeConfig {
	cfg := ExchangeConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
