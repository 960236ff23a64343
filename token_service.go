package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// Credential is the pair of signed tokens handed out after sign-in.
// It is never persisted.
type Credential struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// TokenService mints and verifies session credentials
type TokenService interface {
	Issue(identity Identity) (*Credential, error)
	Refresh(refreshToken string, identity Identity) (string, time.Time, error)
	Validate(tokenString string) (AuthClaims, error)
	ValidateRefresh(tokenString string) (AuthClaims, error)
	SignClaims(claims *JWTClaims) (string, error)
}

// TokenServiceOption configures a TokenServiceImpl
type TokenServiceOption func(*TokenServiceImpl)

// WithTokenClock overrides the time source, used by tests.
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if now != nil {
			ts.now = now
		}
	}
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

// NewTokenService creates a new TokenService instance. The signing key is
// copied and never mutated afterwards so the service is safe for concurrent use.
func NewTokenService(cfg Config, logger Logger, opts ...TokenServiceOption) TokenService {
	if logger == nil {
		logger = defLogger{}
	}

	ts := &TokenServiceImpl{
		accessTTL:  DefaultAccessTokenTTL,
		refreshTTL: DefaultRefreshTokenTTL,
		logger:     logger,
		now:        time.Now,
	}

	if cfg != nil {
		ts.signingKey = []byte(cfg.GetSigningKey())
		ts.issuer = cfg.GetIssuer()
		if aud := cfg.GetAudience(); len(aud) > 0 {
			ts.audience = make(jwt.ClaimStrings, len(aud))
			copy(ts.audience, aud)
		}
		if ttl := cfg.GetAccessTokenTTL(); ttl > 0 {
			ts.accessTTL = ttl
		}
		if ttl := cfg.GetRefreshTokenTTL(); ttl > 0 {
			ts.refreshTTL = ttl
		}
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts
}

// Issue signs a fresh access and refresh token for the identity
func (ts *TokenServiceImpl) Issue(identity Identity) (*Credential, error) {
	if identity == nil || identity.ID() == "" {
		return nil, ErrIdentityNotFound
	}

	now := ts.now()

	access, accessExp, err := ts.mint(identity, TokenUseAccess, now, ts.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, refreshExp, err := ts.mint(identity, TokenUseRefresh, now, ts.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &Credential{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The role
// claim is taken from identity, not from the refresh token.
func (ts *TokenServiceImpl) Refresh(refreshToken string, identity Identity) (string, time.Time, error) {
	claims, err := ts.ValidateRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, err
	}

	if identity == nil || identity.ID() != claims.Subject() {
		ts.logger.Warn("TokenService refresh subject mismatch", "sub", claims.Subject())
		return "", time.Time{}, ErrIdentityNotFound
	}

	return ts.mint(identity, TokenUseAccess, ts.now(), ts.accessTTL)
}

func (ts *TokenServiceImpl) mint(identity Identity, use TokenUse, now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserRole: identity.Role(),
		TokenUse: use,
	}

	ensureTokenID(&claims.RegisteredClaims)

	signed, err := ts.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	if len(ts.signingKey) == 0 {
		return "", ErrSigningKeyMissing
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates an access token, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	claims, err := ts.validate(tokenString, TokenUseAccess)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateRefresh parses and validates a refresh token
func (ts *TokenServiceImpl) ValidateRefresh(tokenString string) (AuthClaims, error) {
	claims, err := ts.validate(tokenString, TokenUseRefresh)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (ts *TokenServiceImpl) validate(tokenString string, use TokenUse) (*JWTClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 4)
	parserOptions = append(parserOptions,
		jwt.WithTimeFunc(ts.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	if claims.TokenUse != use {
		return nil, ErrTokenWrongType
	}

	return claims, nil
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims == nil || claims.ID != "" {
		return
	}
	claims.ID = uuid.NewString()
}
