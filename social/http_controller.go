package social

import (
	"net/http"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	auth "github.com/hirewell/go-auth"
	"github.com/hirewell/go-auth/middleware/jwtware"
)

const genericErrorMessage = "SSO authentication failed"

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController handles the SSO and token refresh routes.
type HTTPController struct {
	authenticator *SSOAuthenticator
	users         auth.Users
	tokens        auth.TokenService
	audit         *auth.AuditLogger
	logger        auth.Logger
	config        HTTPConfig
}

// HTTPConfig configures the HTTP controller.
type HTTPConfig struct {
	// PathPrefix for routes (default: "/api/auth")
	PathPrefix string

	// Logger for request level failures (optional)
	Logger auth.Logger

	// Audit records token refreshes (optional)
	Audit *auth.AuditLogger

	// DashboardRoutes resolves the landing path returned by /me
	DashboardRoutes auth.DashboardRoutes
}

// NewHTTPController creates a new SSO HTTP controller.
func NewHTTPController(authenticator *SSOAuthenticator, users auth.Users, tokens auth.TokenService, cfg HTTPConfig) *HTTPController {
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/api/auth"
	}
	cfg.PathPrefix = strings.TrimRight(cfg.PathPrefix, "/")
	if cfg.DashboardRoutes == nil {
		cfg.DashboardRoutes = auth.DefaultDashboardRoutes()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = auth.DefaultLogger()
	}

	return &HTTPController{
		authenticator: authenticator,
		users:         users,
		tokens:        tokens,
		audit:         cfg.Audit,
		logger:        logger,
		config:        cfg,
	}
}

// RegisterRoutes registers the SSO routes under the configured prefix.
func (c *HTTPController) RegisterRoutes(r RouteRegistrar) {
	r.Get(c.config.PathPrefix+"/sso", c.BeginAuth)
	r.Get(c.config.PathPrefix+"/sso/callback", c.Callback)
	r.Post(c.config.PathPrefix+"/refresh", c.Refresh)
	r.Get(c.config.PathPrefix+"/me", c.Me, auth.JWTMiddleware(c.tokens, jwtware.Config{}))
}

// BeginAuth redirects the browser to the identity provider.
func (c *HTTPController) BeginAuth(ctx router.Context) error {
	redirect, err := c.authenticator.BeginAuth(ctx.Context())
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.Redirect(redirect.URL, http.StatusTemporaryRedirect)
}

// Callback completes the sign-in and returns the issued credential.
func (c *HTTPController) Callback(ctx router.Context) error {
	if errCode := ctx.Query("error"); errCode != "" {
		c.logger.Warn("sso callback returned provider error",
			"error", errCode,
			"description", ctx.Query("error_description"),
		)
		return c.handleError(ctx, ErrProviderDenied)
	}

	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || state == "" {
		return c.handleError(ctx, ErrMissingParams)
	}

	result, err := c.authenticator.CompleteAuth(ctx.Context(), code, state)
	if err != nil {
		return c.handleError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"access_token":  result.Credential.AccessToken,
		"refresh_token": result.Credential.RefreshToken,
		"user":          result.User,
		"dashboard":     result.Dashboard,
	})
}

// Refresh exchanges a refresh token for a new access token. The role claim
// is read from the current user record.
func (c *HTTPController) Refresh(ctx router.Context) error {
	token := bearerToken(ctx.GetString(router.HeaderAuthorization, ""))
	if token == "" {
		return unauthorized(ctx)
	}

	claims, err := c.tokens.ValidateRefresh(token)
	if err != nil {
		c.logger.Debug("refresh token rejected", "error", err)
		return unauthorized(ctx)
	}

	userID, err := auth.ParseUserID(claims.Subject())
	if err != nil {
		return unauthorized(ctx)
	}

	user, err := c.users.GetByID(ctx.Context(), userID)
	if err != nil {
		c.logger.Warn("refresh for unknown user", "sub", claims.Subject(), "error", err)
		return unauthorized(ctx)
	}

	identity := auth.NewIdentityFromUser(user)
	access, _, err := c.tokens.Refresh(token, identity)
	if err != nil {
		return unauthorized(ctx)
	}

	c.audit.Record(ctx.Context(), identity.ID(), auth.ActivityEventTokenRefresh, nil)

	return ctx.JSON(router.StatusOK, map[string]any{
		"access_token": access,
	})
}

// Me returns the signed in user. It expects the JWT middleware to have
// stored the access token claims.
func (c *HTTPController) Me(ctx router.Context) error {
	claims, ok := auth.GetRouterClaims(ctx, "")
	if !ok {
		return c.handleError(ctx, auth.ErrTokenMalformed)
	}

	userID, err := auth.ParseUserID(claims.UserID())
	if err != nil {
		return c.handleError(ctx, auth.ErrTokenMalformed)
	}

	user, err := c.users.GetByID(ctx.Context(), userID)
	if err != nil {
		c.logger.Warn("me lookup failed", "sub", claims.Subject(), "error", err)
		return c.handleError(ctx, auth.ErrIdentityNotFound)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user":      user.Summary(),
		"dashboard": c.config.DashboardRoutes.Resolve(user),
	})
}

func (c *HTTPController) handleError(ctx router.Context, err error) error {
	status, message := errorResponse(err)
	if status >= http.StatusInternalServerError {
		c.logger.Error("sso request failed", "status", status, "error", err)
	}
	return ctx.JSON(status, map[string]string{
		"error": message,
	})
}

// errorResponse maps an error to its HTTP status and public message. Server
// side failures never expose their details.
func errorResponse(err error) (int, string) {
	var richErr *errors.Error
	if !errors.As(err, &richErr) || richErr == nil {
		return http.StatusInternalServerError, genericErrorMessage
	}

	status := richErr.Code
	if status < http.StatusBadRequest || status > 599 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		return status, genericErrorMessage
	}

	return status, richErr.Message
}

func unauthorized(ctx router.Context) error {
	return ctx.JSON(router.StatusUnauthorized, map[string]string{
		"error": "invalid or expired refresh token",
	})
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
