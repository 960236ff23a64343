package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hirewell/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockIdentity implements auth.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Role() string {
	args := m.Called()
	return args.String(0)
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

type testConfig struct {
	key        string
	issuer     string
	audience   []string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func (c testConfig) GetSigningKey() string { return c.key }
func (c testConfig) GetIssuer() string { return c.issuer }
func (c testConfig) GetAudience() []string { return c.audience }
func (c testConfig) GetAccessTokenTTL() time.Duration { return c.accessTTL }
func (c testConfig) GetRefreshTokenTTL() time.Duration { return c.refreshTTL }

func newTestConfig() testConfig {
	return testConfig{
		key:      "test-signing-key",
		issuer:   "test-issuer",
		audience: []string{"test-audience"},
	}
}

func newIdentity(id, role string) *MockIdentity {
	identity := &MockIdentity{}
	identity.On("ID").Return(id)
	identity.On("Email").Return("a@x.com")
	identity.On("Role").Return(role)
	return identity
}

func TestNewTokenService(t *testing.T) {
	t.Run("creates token service with logger", func(t *testing.T) {
		service := auth.NewTokenService(newTestConfig(), &MockLogger{})
		assert.NotNil(t, service)
	})

	t.Run("creates token service with nil logger and config", func(t *testing.T) {
		service := auth.NewTokenService(nil, nil)
		assert.NotNil(t, service)
	})
}

func TestTokenService_Issue(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	service := auth.NewTokenService(newTestConfig(), nil, auth.WithTokenClock(func() time.Time { return now }))

	cred, err := service.Issue(newIdentity("7", "candidate"))
	require.NoError(t, err)
	require.NotNil(t, cred)

	assert.NotEmpty(t, cred.AccessToken)
	assert.NotEmpty(t, cred.RefreshToken)
	assert.NotEqual(t, cred.AccessToken, cred.RefreshToken)
	assert.Equal(t, now.Add(time.Hour), cred.AccessExpiresAt)
	assert.Equal(t, now.Add(720*time.Hour), cred.RefreshExpiresAt)

	claims, err := service.Validate(cred.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject())
	assert.Equal(t, "7", claims.UserID())
	assert.Equal(t, "candidate", claims.Role())
	assert.Equal(t, auth.TokenUseAccess, claims.Use())
	assert.Equal(t, now, claims.IssuedAt().UTC())
	assert.Equal(t, now.Add(time.Hour), claims.Expires().UTC())

	refreshClaims, err := service.ValidateRefresh(cred.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "7", refreshClaims.Subject())
	assert.Equal(t, auth.TokenUseRefresh, refreshClaims.Use())
}

func TestTokenService_IssueCarriesRegisteredClaims(t *testing.T) {
	service := auth.NewTokenService(newTestConfig(), nil)

	cred, err := service.Issue(newIdentity("42", "admin"))
	require.NoError(t, err)

	parsed := &auth.JWTClaims{}
	_, err = jwt.ParseWithClaims(cred.AccessToken, parsed, func(t *jwt.Token) (any, error) {
		return []byte("test-signing-key"), nil
	})
	require.NoError(t, err)

	assert.Equal(t, "test-issuer", parsed.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"test-audience"}, parsed.Audience)
	assert.NotEmpty(t, parsed.ID)
	assert.Equal(t, "admin", parsed.UserRole)
}

func TestTokenService_IssueRequiresIdentity(t *testing.T) {
	service := auth.NewTokenService(newTestConfig(), nil)

	_, err := service.Issue(nil)
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)

	_, err = service.Issue(newIdentity("", "candidate"))
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
}

func TestTokenService_IssueWithoutKey(t *testing.T) {
	cfg := newTestConfig()
	cfg.key = ""
	service := auth.NewTokenService(cfg, nil)

	_, err := service.Issue(newIdentity("7", "candidate"))
	assert.ErrorIs(t, err, auth.ErrSigningKeyMissing)
}

func TestTokenService_CustomTTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cfg := newTestConfig()
	cfg.accessTTL = 15 * time.Minute
	cfg.refreshTTL = 48 * time.Hour

	service := auth.NewTokenService(cfg, nil, auth.WithTokenClock(func() time.Time { return now }))

	cred, err := service.Issue(newIdentity("7", "candidate"))
	require.NoError(t, err)
	assert.Equal(t, now.Add(15*time.Minute), cred.AccessExpiresAt)
	assert.Equal(t, now.Add(48*time.Hour), cred.RefreshExpiresAt)
}

func TestTokenService_Validate(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	current := issuedAt
	clock := func() time.Time { return current }

	service := auth.NewTokenService(newTestConfig(), nil, auth.WithTokenClock(clock))
	cred, err := service.Issue(newIdentity("7", "candidate"))
	require.NoError(t, err)

	t.Run("expired access token", func(t *testing.T) {
		current = issuedAt.Add(2 * time.Hour)
		defer func() { current = issuedAt }()

		claims, err := service.Validate(cred.AccessToken)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
		assert.True(t, auth.IsTokenExpiredError(err))
	})

	t.Run("malformed token", func(t *testing.T) {
		claims, err := service.Validate("not-a-token")
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
		assert.True(t, auth.IsMalformedError(err))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := newTestConfig()
		other.key = "other-key"
		foreign, err := auth.NewTokenService(other, nil, auth.WithTokenClock(clock)).Issue(newIdentity("7", "candidate"))
		require.NoError(t, err)

		_, err = service.Validate(foreign.AccessToken)
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := newTestConfig()
		other.issuer = "someone-else"
		foreign, err := auth.NewTokenService(other, nil, auth.WithTokenClock(clock)).Issue(newIdentity("7", "candidate"))
		require.NoError(t, err)

		_, err = service.Validate(foreign.AccessToken)
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})

	t.Run("refresh token used as access token", func(t *testing.T) {
		_, err := service.Validate(cred.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrTokenWrongType)
	})

	t.Run("access token used as refresh token", func(t *testing.T) {
		_, err := service.ValidateRefresh(cred.AccessToken)
		assert.ErrorIs(t, err, auth.ErrTokenWrongType)
	})

	t.Run("unexpected signing method", func(t *testing.T) {
		claims := &auth.JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "7",
				Issuer:    "test-issuer",
				Audience:  jwt.ClaimStrings{"test-audience"},
				ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
			},
			TokenUse: auth.TokenUseAccess,
		}
		token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.Validate(signed)
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})
}

func TestTokenService_Refresh(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	current := issuedAt
	service := auth.NewTokenService(newTestConfig(), nil, auth.WithTokenClock(func() time.Time { return current }))

	cred, err := service.Issue(newIdentity("7", "candidate"))
	require.NoError(t, err)

	t.Run("mints access token with current role", func(t *testing.T) {
		current = issuedAt.Add(3 * time.Hour)
		defer func() { current = issuedAt }()

		access, exp, err := service.Refresh(cred.RefreshToken, newIdentity("7", "recruiter"))
		require.NoError(t, err)
		assert.Equal(t, current.Add(time.Hour), exp)

		claims, err := service.Validate(access)
		require.NoError(t, err)
		assert.Equal(t, "recruiter", claims.Role())
		assert.Equal(t, auth.TokenUseAccess, claims.Use())
	})

	t.Run("rejects access token", func(t *testing.T) {
		_, _, err := service.Refresh(cred.AccessToken, newIdentity("7", "candidate"))
		assert.ErrorIs(t, err, auth.ErrTokenWrongType)
	})

	t.Run("rejects subject mismatch", func(t *testing.T) {
		logger := &MockLogger{}
		logger.On("Warn", mock.Anything, mock.Anything).Return()
		mismatched := auth.NewTokenService(newTestConfig(), logger, auth.WithTokenClock(func() time.Time { return current }))

		_, _, err := mismatched.Refresh(cred.RefreshToken, newIdentity("8", "candidate"))
		assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
		logger.AssertCalled(t, "Warn", mock.Anything, mock.Anything)
	})

	t.Run("rejects expired refresh token", func(t *testing.T) {
		current = issuedAt.Add(721 * time.Hour)
		defer func() { current = issuedAt }()

		_, _, err := service.Refresh(cred.RefreshToken, newIdentity("7", "candidate"))
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})
}

func TestTokenService_IssueIsConcurrencySafe(t *testing.T) {
	service := auth.NewTokenService(newTestConfig(), nil)

	done := make(chan string, 16)
	for i := 0; i < 16; i++ {
		go func() {
			cred, err := service.Issue(newIdentity("7", "candidate"))
			if err != nil {
				done <- ""
				return
			}
			done <- cred.AccessToken
		}()
	}

	seen := map[string]bool{}
	for i := 0; i < 16; i++ {
		token := <-done
		require.NotEmpty(t, token)
		seen[token] = true
	}
	assert.Len(t, seen, 16, "each token carries its own jti")
}
