package social

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/goliatone/go-errors"
	auth "github.com/hirewell/go-auth"
	"golang.org/x/oauth2"
)

// OIDCConfig registers a single OpenID Connect identity provider.
type OIDCConfig struct {
	Name         string
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Validate reports missing registration fields.
func (c OIDCConfig) Validate() error {
	missing := []string{}
	if strings.TrimSpace(c.IssuerURL) == "" {
		missing = append(missing, "issuer_url")
	}
	if strings.TrimSpace(c.ClientID) == "" {
		missing = append(missing, "client_id")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		missing = append(missing, "client_secret")
	}
	if strings.TrimSpace(c.RedirectURL) == "" {
		missing = append(missing, "redirect_url")
	}
	if len(missing) > 0 {
		return errors.New("sso provider config missing required fields", errors.CategoryValidation).
			WithMetadata(map[string]any{"missing": missing})
	}
	return nil
}

type userInfoFetcher func(ctx context.Context, ts oauth2.TokenSource) (*oidc.UserInfo, error)

// OIDCProvider runs the authorization code flow with PKCE against an OIDC
// issuer and verifies the returned id_token.
type OIDCProvider struct {
	name        string
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	userInfo    userInfoFetcher
	logger      auth.Logger
}

var _ Provider = (*OIDCProvider)(nil)

// NewOIDCProvider discovers the issuer configuration and builds a provider.
func NewOIDCProvider(ctx context.Context, cfg OIDCConfig, logger auth.Logger) (*OIDCProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	oidcProvider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to init oidc provider")
	}

	verifier := oidcProvider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
	})

	p := NewOIDCProviderWithEndpoint(cfg, oidcProvider.Endpoint(), verifier, logger)
	p.userInfo = oidcProvider.UserInfo
	return p, nil
}

// NewOIDCProviderWithEndpoint builds a provider without discovery.
func NewOIDCProviderWithEndpoint(cfg OIDCConfig, endpoint oauth2.Endpoint, verifier *oidc.IDTokenVerifier, logger auth.Logger) *OIDCProvider {
	if logger == nil {
		logger = auth.DefaultLogger()
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = auth.ProviderSSO
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return &OIDCProvider{
		name: name,
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       scopes,
		},
		verifier: verifier,
		logger:   logger,
	}
}

// Name returns the provider identifier used by the registry.
func (p *OIDCProvider) Name() string {
	return p.name
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (p *OIDCProvider) AuthCodeURL(state string, opts ...AuthCodeOption) string {
	cfg := ApplyAuthCodeOptions(opts...)

	params := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	if cfg.CodeVerifier != "" {
		params = append(params, oauth2.S256ChallengeOption(cfg.CodeVerifier))
	}
	if cfg.Nonce != "" {
		params = append(params, oidc.Nonce(cfg.Nonce))
	}
	if cfg.Prompt != "" {
		params = append(params, oauth2.SetAuthURLParam("prompt", cfg.Prompt))
	}

	return p.oauthConfig.AuthCodeURL(state, params...)
}

// Exchange trades the code for tokens, verifies the id_token and returns
// the asserted identity. The subject falls back to the "id" claim for
// issuers that do not send "sub".
func (p *OIDCProvider) Exchange(ctx context.Context, code string, opts ...ExchangeOption) (*Assertion, error) {
	cfg := ApplyExchangeOptions(opts...)

	params := []oauth2.AuthCodeOption{}
	if cfg.CodeVerifier != "" {
		params = append(params, oauth2.VerifierOption(cfg.CodeVerifier))
	}

	token, err := p.oauthConfig.Exchange(ctx, code, params...)
	if err != nil {
		return nil, newProviderError(p.name, "exchange", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, newProviderError(p.name, "exchange", fmt.Errorf("provider did not return id_token"))
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, newProviderError(p.name, "verify", err)
	}

	if cfg.Nonce != "" && idToken.Nonce != cfg.Nonce {
		return nil, newProviderError(p.name, "verify", fmt.Errorf("id_token nonce mismatch"))
	}

	claims := map[string]any{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, newProviderError(p.name, "claims", err)
	}

	assertion := &Assertion{
		Provider:      p.name,
		Subject:       firstClaim(claims, "sub", "id"),
		Email:         claimString(claims, "email"),
		EmailVerified: claimBool(claims, "email_verified"),
		Name:          claimString(claims, "name"),
		Raw:           claims,
	}

	if assertion.Email == "" && p.userInfo != nil {
		p.mergeUserInfo(ctx, token, assertion)
	}

	p.logger.Debug("oidc id_token verified",
		"issuer", idToken.Issuer,
		"subject_present", assertion.Subject != "",
		"email_present", assertion.Email != "",
	)

	return assertion, nil
}

func (p *OIDCProvider) mergeUserInfo(ctx context.Context, token *oauth2.Token, assertion *Assertion) {
	info, err := p.userInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		p.logger.Warn("oidc userinfo lookup failed", "provider", p.name, "error", err)
		return
	}

	assertion.Email = info.Email
	assertion.EmailVerified = info.EmailVerified
	if assertion.Subject == "" {
		assertion.Subject = info.Subject
	}
}

func firstClaim(claims map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := claimString(claims, key); v != "" {
			return v
		}
	}
	return ""
}

func claimString(claims map[string]any, key string) string {
	switch v := claims[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

func claimBool(claims map[string]any, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}
