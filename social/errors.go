package social

import "github.com/goliatone/go-errors"

const (
	TextCodeProviderNotFound    = "sso_provider_not_found"
	TextCodeInvalidState        = "sso_invalid_state"
	TextCodeStateExpired        = "sso_state_expired"
	TextCodeProviderExchange    = "sso_provider_exchange_failed"
	TextCodeAssertionIncomplete = "sso_assertion_incomplete"
	TextCodeUserNotFound        = "sso_user_not_found"
	TextCodeIdentityMismatch    = "sso_identity_mismatch"
	TextCodeLinkPersistence     = "sso_link_persistence_failed"
	TextCodeCredentialIssue     = "sso_credential_issue_failed"
	TextCodeMissingParams       = "sso_missing_params"
	TextCodeProviderDenied      = "sso_provider_denied"
)

// ErrProviderNotFound is returned when no identity provider is configured.
var ErrProviderNotFound = errors.New("sso provider not configured", errors.CategoryInternal).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(errors.CodeInternal)

// ErrInvalidState is returned when the OAuth state is invalid or tampered.
var ErrInvalidState = errors.New("invalid oauth state", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidState).
	WithCode(errors.CodeBadRequest)

// ErrStateExpired is returned when the OAuth state has expired.
var ErrStateExpired = errors.New("oauth state expired", errors.CategoryBadInput).
	WithTextCode(TextCodeStateExpired).
	WithCode(errors.CodeBadRequest)

// ErrMissingParams is returned when the callback lacks code or state.
var ErrMissingParams = errors.New("missing code or state", errors.CategoryBadInput).
	WithTextCode(TextCodeMissingParams).
	WithCode(errors.CodeBadRequest)

// ErrProviderDenied is returned when the provider redirects back with an
// error instead of a code.
var ErrProviderDenied = errors.New("SSO authorization was denied", errors.CategoryBadInput).
	WithTextCode(TextCodeProviderDenied).
	WithCode(errors.CodeBadRequest)

// ErrProviderExchange is returned when the code exchange or id_token
// verification fails. Details are logged, never returned to the client.
var ErrProviderExchange = errors.New("SSO authentication failed", errors.CategoryOperation).
	WithTextCode(TextCodeProviderExchange).
	WithCode(errors.CodeInternal)

// ErrAssertionIncomplete is returned when the provider did not assert an email.
var ErrAssertionIncomplete = errors.New("Email not provided by SSO provider", errors.CategoryBadInput).
	WithTextCode(TextCodeAssertionIncomplete).
	WithCode(errors.CodeBadRequest)

// ErrUserNotFound is returned when no local account matches the asserted email.
var ErrUserNotFound = errors.New("User not found. Please register first.", errors.CategoryAuthz).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeForbidden)

// ErrIdentityMismatch is returned when the user is already linked to a
// different subject at the same provider.
var ErrIdentityMismatch = errors.New("SSO identity does not match linked account", errors.CategoryAuthz).
	WithTextCode(TextCodeIdentityMismatch).
	WithCode(errors.CodeForbidden)

// ErrLinkPersistence is returned when the identity link can not be stored.
var ErrLinkPersistence = errors.New("SSO authentication failed", errors.CategoryInternal).
	WithTextCode(TextCodeLinkPersistence).
	WithCode(errors.CodeInternal)

// ErrCredentialIssue is returned when signing the session credential fails.
var ErrCredentialIssue = errors.New("SSO authentication failed", errors.CategoryInternal).
	WithTextCode(TextCodeCredentialIssue).
	WithCode(errors.CodeInternal)
