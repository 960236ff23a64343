package social

import (
	"context"

	auth "github.com/hirewell/go-auth"
)

// IdentityLinkRepository manages identity link persistence.
type IdentityLinkRepository interface {
	FindByUserAndProvider(ctx context.Context, userID int64, provider string) (*auth.IdentityLink, error)
	// FindOrCreate inserts link unless one exists for (user_id, provider)
	// and returns the stored row either way.
	FindOrCreate(ctx context.Context, link *auth.IdentityLink) (*auth.IdentityLink, bool, error)
	UpdateSubject(ctx context.Context, link *auth.IdentityLink) error
}
