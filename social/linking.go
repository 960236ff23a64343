package social

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	auth "github.com/hirewell/go-auth"
)

// LinkerConfig controls how assertions are matched to local accounts.
type LinkerConfig struct {
	// Provider is the name stored on identity links (default: "sso").
	Provider string

	// AllowSubjectRelink lets an existing link move to a new provider
	// subject. When false a subject change is rejected.
	AllowSubjectRelink bool

	// DashboardRoutes maps roles to landing paths.
	DashboardRoutes auth.DashboardRoutes
}

// Resolution is the outcome of a successful federated sign-in.
type Resolution struct {
	Credential  *auth.Credential
	User        auth.UserSummary
	Dashboard   string
	Link        *auth.IdentityLink
	LinkCreated bool
}

// Linker matches provider assertions to pre-existing users, ensures the
// identity link exists, issues credentials and records the audit event.
// It never creates users.
type Linker struct {
	users  auth.Users
	links  IdentityLinkRepository
	tokens auth.TokenService
	audit  *auth.AuditLogger
	config LinkerConfig
	logger auth.Logger
	secret func() (string, error)
}

// LinkerOption configures a Linker.
type LinkerOption func(*Linker)

// WithLinkerLogger sets the logger.
func WithLinkerLogger(logger auth.Logger) LinkerOption {
	return func(l *Linker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithAuditLogger sets the audit logger used after successful sign-ins.
func WithAuditLogger(audit *auth.AuditLogger) LinkerOption {
	return func(l *Linker) {
		l.audit = audit
	}
}

// WithLinkSecretGenerator overrides how link secrets are generated.
func WithLinkSecretGenerator(fn func() (string, error)) LinkerOption {
	return func(l *Linker) {
		if fn != nil {
			l.secret = fn
		}
	}
}

// NewLinker creates a new Linker.
func NewLinker(users auth.Users, links IdentityLinkRepository, tokens auth.TokenService, config LinkerConfig, opts ...LinkerOption) *Linker {
	cfg := config
	if strings.TrimSpace(cfg.Provider) == "" {
		cfg.Provider = auth.ProviderSSO
	}
	if cfg.DashboardRoutes == nil {
		cfg.DashboardRoutes = auth.DefaultDashboardRoutes()
	}

	l := &Linker{
		users:  users,
		links:  links,
		tokens: tokens,
		config: cfg,
		logger: auth.DefaultLogger(),
		secret: generateLinkSecret,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	if l.audit == nil {
		l.audit = auth.NewAuditLogger(nil, auth.WithAuditLogger(l.logger))
	}

	return l
}

// Resolve runs the sign-in for an assertion. Steps run in order: user
// lookup, link lookup or create, credential issue, audit.
func (l *Linker) Resolve(ctx context.Context, assertion *Assertion) (*Resolution, error) {
	if err := validateAssertion(assertion); err != nil {
		return nil, err
	}

	email := assertion.NormalizedEmail()

	user, err := l.users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			l.logger.Warn("sso login rejected, no local account", "email", email)
			return nil, ErrUserNotFound
		}
		l.logger.Error("sso user lookup failed", "error", err)
		return nil, wrapLinkError(ErrLinkPersistence, "user_lookup", err)
	}

	link, created, err := l.ensureLink(ctx, user, assertion)
	if err != nil {
		return nil, err
	}

	identity := auth.NewIdentityFromUser(user)
	credential, err := l.tokens.Issue(identity)
	if err != nil {
		l.logger.Error("sso credential issue failed", "user_id", user.ID, "error", err)
		return nil, wrapLinkError(ErrCredentialIssue, "issue", err)
	}

	l.audit.Record(ctx, identity.ID(), auth.ActivityEventSSOLogin, map[string]any{
		"provider":     l.config.Provider,
		"link_created": created,
	})

	return &Resolution{
		Credential:  credential,
		User:        user.Summary(),
		Dashboard:   l.config.DashboardRoutes.Resolve(user),
		Link:        link,
		LinkCreated: created,
	}, nil
}

func (l *Linker) ensureLink(ctx context.Context, user *auth.User, assertion *Assertion) (*auth.IdentityLink, bool, error) {
	existing, err := l.links.FindByUserAndProvider(ctx, user.ID, l.config.Provider)
	if err != nil && !repository.IsRecordNotFound(err) {
		l.logger.Error("sso link lookup failed", "user_id", user.ID, "error", err)
		return nil, false, wrapLinkError(ErrLinkPersistence, "link_lookup", err)
	}

	if existing != nil {
		if err := l.checkSubject(ctx, existing, assertion.Subject); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	secret, err := l.secret()
	if err != nil {
		return nil, false, wrapLinkError(ErrLinkPersistence, "link_secret", err)
	}

	link, created, err := l.links.FindOrCreate(ctx, &auth.IdentityLink{
		UserID:         user.ID,
		Provider:       l.config.Provider,
		ProviderUserID: assertion.Subject,
		AccessToken:    secret,
	})
	if err != nil {
		l.logger.Error("sso link create failed", "user_id", user.ID, "error", err)
		return nil, false, wrapLinkError(ErrLinkPersistence, "link_create", err)
	}

	// a concurrent sign-in may have won the insert
	if !created {
		if err := l.checkSubject(ctx, link, assertion.Subject); err != nil {
			return nil, false, err
		}
	}

	return link, created, nil
}

func (l *Linker) checkSubject(ctx context.Context, link *auth.IdentityLink, subject string) error {
	if link.ProviderUserID == "" || subject == "" || link.ProviderUserID == subject {
		return nil
	}

	if !l.config.AllowSubjectRelink {
		l.logger.Warn("sso subject mismatch on existing link", "user_id", link.UserID, "provider", link.Provider)
		return ErrIdentityMismatch
	}

	link.ProviderUserID = subject
	if err := l.links.UpdateSubject(ctx, link); err != nil {
		l.logger.Error("sso link relink failed", "user_id", link.UserID, "error", err)
		return wrapLinkError(ErrLinkPersistence, "link_relink", err)
	}
	l.logger.Info("sso link moved to new subject", "user_id", link.UserID, "provider", link.Provider)
	return nil
}

func validateAssertion(assertion *Assertion) error {
	if assertion == nil {
		return ErrAssertionIncomplete
	}

	a := *assertion
	a.Email = assertion.NormalizedEmail()
	err := validation.ValidateStruct(&a,
		validation.Field(&a.Email, validation.Required, is.Email),
	)
	if err != nil {
		return ErrAssertionIncomplete
	}
	return nil
}

func wrapLinkError(base *errors.Error, operation string, err error) error {
	clone := base.Clone()
	if clone == nil {
		clone = base
	}
	clone.Source = err
	clone.WithMetadata(map[string]any{
		"operation": operation,
	})
	return clone
}

func generateLinkSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
