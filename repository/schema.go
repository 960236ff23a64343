package repository

import (
	"context"

	auth "github.com/hirewell/go-auth"
	"github.com/uptrace/bun"
)

// EnsureSchema creates the tables used by sign-in when they are missing.
// Existing tables are left untouched.
func EnsureSchema(ctx context.Context, db bun.IDB) error {
	models := []any{
		(*auth.User)(nil),
		(*auth.IdentityLink)(nil),
		(*auth.AuditEvent)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	_, err := db.NewCreateIndex().
		Model((*auth.IdentityLink)(nil)).
		Index("oauth_connections_user_provider_idx").
		Unique().
		IfNotExists().
		Column("user_id", "provider").
		Exec(ctx)
	return err
}
