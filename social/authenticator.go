package social

import (
	"context"

	"github.com/goliatone/go-errors"
	auth "github.com/hirewell/go-auth"
	"golang.org/x/oauth2"
)

// SSOAuthenticator orchestrates the federated login flow: it starts the
// provider redirect and completes the callback.
type SSOAuthenticator struct {
	provider     Provider
	stateManager StateManager
	linker       *Linker
	logger       auth.Logger
}

// SSOAuthOption configures the authenticator.
type SSOAuthOption func(*SSOAuthenticator)

// WithStateManager sets a custom state manager.
func WithStateManager(sm StateManager) SSOAuthOption {
	return func(sa *SSOAuthenticator) {
		sa.stateManager = sm
	}
}

// WithLogger sets the logger.
func WithLogger(logger auth.Logger) SSOAuthOption {
	return func(sa *SSOAuthenticator) {
		if logger != nil {
			sa.logger = logger
		}
	}
}

// NewSSOAuthenticator creates a new authenticator. A state manager must be
// supplied with WithStateManager.
func NewSSOAuthenticator(provider Provider, linker *Linker, opts ...SSOAuthOption) *SSOAuthenticator {
	sa := &SSOAuthenticator{
		provider: provider,
		linker:   linker,
		logger:   auth.DefaultLogger(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(sa)
		}
	}

	return sa
}

// AuthRedirect contains the authorization URL for redirecting users.
type AuthRedirect struct {
	URL      string
	State    string
	Provider string
}

// BeginAuth starts the OAuth flow for the configured provider.
func (sa *SSOAuthenticator) BeginAuth(ctx context.Context) (*AuthRedirect, error) {
	if sa.provider == nil {
		return nil, ErrProviderNotFound
	}

	if sa.stateManager == nil {
		return nil, ErrInvalidState
	}

	state := &OAuthState{
		Nonce:        generateNonce(),
		Provider:     sa.provider.Name(),
		CodeVerifier: oauth2.GenerateVerifier(),
	}

	stateToken, err := sa.stateManager.Encode(state)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to encode state")
	}

	authURL := sa.provider.AuthCodeURL(stateToken,
		WithPKCE(state.CodeVerifier),
		WithNonce(state.Nonce),
	)

	return &AuthRedirect{
		URL:      authURL,
		State:    stateToken,
		Provider: state.Provider,
	}, nil
}

// CompleteAuth finishes the OAuth flow after callback.
func (sa *SSOAuthenticator) CompleteAuth(ctx context.Context, code, stateToken string) (*Resolution, error) {
	if code == "" || stateToken == "" {
		return nil, ErrMissingParams
	}

	if sa.provider == nil {
		return nil, ErrProviderNotFound
	}

	if sa.stateManager == nil {
		return nil, ErrInvalidState
	}

	state, err := sa.stateManager.Decode(stateToken)
	if err != nil {
		if errors.Is(err, ErrStateExpired) {
			return nil, ErrStateExpired
		}
		return nil, ErrInvalidState
	}

	if state.Provider != sa.provider.Name() {
		return nil, ErrInvalidState
	}

	assertion, err := sa.provider.Exchange(ctx, code,
		WithCodeVerifier(state.CodeVerifier),
		WithExpectedNonce(state.Nonce),
	)
	if err != nil {
		sa.logger.Error("sso provider exchange failed", "provider", sa.provider.Name(), "error", err)
		return nil, wrapProviderError(ErrProviderExchange, sa.provider.Name(), "exchange", err)
	}

	return sa.linker.Resolve(ctx, assertion)
}
