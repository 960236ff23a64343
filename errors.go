package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenExpired      = "token_expired"
	TextCodeTokenMalformed    = "token_malformed"
	TextCodeTokenWrongType    = "token_wrong_type"
	TextCodeIdentityNotFound  = "identity_not_found"
	TextCodeSigningKeyMissing = "signing_key_missing"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrTokenExpired is returned when a token is past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token can not be parsed or verified.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenWrongType is returned when an access token is presented where a
// refresh token is expected, or the other way around.
var ErrTokenWrongType = errors.New("token has the wrong type", errors.CategoryAuth).
	WithTextCode(TextCodeTokenWrongType).
	WithCode(errors.CodeUnauthorized)

// ErrSigningKeyMissing is returned when the token service has no key.
var ErrSigningKeyMissing = errors.New("signing key not configured", errors.CategoryInternal).
	WithTextCode(TextCodeSigningKeyMissing).
	WithCode(errors.CodeInternal)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if hasTextCode(err, TextCodeTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

func hasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr != nil {
		return richErr.TextCode == code
	}
	return false
}
