package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
)

func TestGetClaims(t *testing.T) {
	tests := []struct {
		name     string
		setupCtx func() context.Context
		wantOK   bool
	}{
		{
			name: "should return claims when present in context",
			setupCtx: func() context.Context {
				claims := &JWTClaims{
					RegisteredClaims: jwt.RegisteredClaims{Subject: "12"},
					UserRole:         "admin",
				}
				return WithClaimsContext(context.Background(), claims)
			},
			wantOK: true,
		},
		{
			name:     "should return false when claims not present",
			setupCtx: context.Background,
			wantOK:   false,
		},
		{
			name: "should return false when value has the wrong type",
			setupCtx: func() context.Context {
				return context.WithValue(context.Background(), claimsCtxKey, "not-claims")
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, ok := GetClaims(tt.setupCtx())
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, "12", claims.Subject())
				assert.Equal(t, "admin", claims.Role())
			} else {
				assert.Nil(t, claims)
			}
		})
	}
}

func TestGetRouterClaims(t *testing.T) {
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "7"},
		UserRole:         "candidate",
	}

	t.Run("default key", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = claims

		got, ok := GetRouterClaims(ctx, "")
		assert.True(t, ok)
		assert.Equal(t, "7", got.UserID())
	})

	t.Run("custom key", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["jwt"] = claims

		got, ok := GetRouterClaims(ctx, "jwt")
		assert.True(t, ok)
		assert.Equal(t, "candidate", got.Role())
	})

	t.Run("missing", func(t *testing.T) {
		ctx := router.NewMockContext()

		got, ok := GetRouterClaims(ctx, "")
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("wrong type", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = "a string"

		_, ok := GetRouterClaims(ctx, "")
		assert.False(t, ok)
	})
}
