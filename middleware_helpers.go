package auth

import (
	"context"

	"github.com/goliatone/go-router"
	"github.com/hirewell/go-auth/middleware/jwtware"
)

// JWTMiddleware returns a jwtware middleware backed by the token service.
// Only access tokens are accepted.
func JWTMiddleware(tokens TokenService, cfg jwtware.Config) router.MiddlewareFunc {
	cfg.TokenValidator = TokenValidatorAdapter(tokens)
	if cfg.ContextEnricher == nil {
		cfg.ContextEnricher = ContextEnricherAdapter
	}
	return jwtware.New(cfg)
}

// TokenValidatorAdapter exposes TokenService.Validate as a jwtware.TokenValidator.
func TokenValidatorAdapter(tokens TokenService) jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(raw string) (jwtware.AuthClaims, error) {
		claims, err := tokens.Validate(raw)
		if err != nil {
			return nil, err
		}
		// avoid returning a typed nil
		if claims == nil {
			return nil, ErrTokenMalformed
		}
		return claims, nil
	})
}

// ContextEnricherAdapter stores the claims in the standard context so
// handlers can read them with GetClaims.
func ContextEnricherAdapter(c context.Context, claims jwtware.AuthClaims) context.Context {
	authClaims, ok := claims.(AuthClaims)
	if !ok {
		return c
	}
	return WithClaimsContext(c, authClaims)
}
