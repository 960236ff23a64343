package auth_test

import (
	"testing"
	"time"

	"github.com/hirewell/go-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret")

	settings, err := auth.LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, "secret", settings.GetSigningKey())
	assert.Equal(t, time.Hour, settings.GetAccessTokenTTL())
	assert.Equal(t, 720*time.Hour, settings.GetRefreshTokenTTL())

	notify := settings.NotifyConfig()
	assert.Equal(t, "http://localhost:3000", notify.FrontendURL)
	assert.Equal(t, 4, notify.Workers)
	assert.Equal(t, 256, notify.QueueSize)
	assert.Equal(t, "sendgrid", notify.Provider)

	sso := settings.SSOConfig()
	assert.Equal(t, []string{"openid", "email", "profile"}, sso.Scopes)
}

func TestLoadSettingsOverrides(t *testing.T) {
	t.Setenv("JWT_AUDIENCE", "web,mobile")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("SENDGRID_API_KEY", "SG.key")
	t.Setenv("MAIL_DEFAULT_SENDER", "no-reply@hirewell.test")
	t.Setenv("SSO_CLIENT_ID", "client")
	t.Setenv("NOTIFY_WORKERS", "2")

	settings, err := auth.LoadSettings()
	require.NoError(t, err)

	assert.Equal(t, []string{"web", "mobile"}, settings.GetAudience())
	assert.Equal(t, 15*time.Minute, settings.GetAccessTokenTTL())
	assert.Equal(t, "SG.key", settings.NotifyConfig().APIKey)
	assert.Equal(t, "no-reply@hirewell.test", settings.NotifyConfig().DefaultSender)
	assert.Equal(t, 2, settings.NotifyConfig().Workers)
	assert.Equal(t, "client", settings.SSOConfig().ClientID)
}

func TestLoadSettingsInvalidDuration(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "forever")

	_, err := auth.LoadSettings()
	assert.Error(t, err)
}

func TestSettingsAudienceIsCopied(t *testing.T) {
	settings := &auth.Settings{Audience: []string{"web"}}
	aud := settings.GetAudience()
	aud[0] = "changed"
	assert.Equal(t, "web", settings.Audience[0])
}
