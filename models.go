package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the local account record. Users are created by the registration
// flow only; federated sign-in never inserts into this table.
type User struct {
	bun.BaseModel       `bun:"table:users,alias:usr"`
	ID                  int64      `bun:"id,pk,autoincrement" json:"id"`
	Email               string     `bun:"email,notnull,unique" json:"email"`
	Role                UserRole   `bun:"role,notnull" json:"role"`
	FirstName           string     `bun:"first_name" json:"first_name,omitempty"`
	LastName            string     `bun:"last_name" json:"last_name,omitempty"`
	EnrollmentCompleted bool       `bun:"enrollment_completed,notnull,default:false" json:"enrollment_completed"`
	CreatedAt           *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt           *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NeedsEnrollment reports whether the user must finish onboarding before
// reaching their dashboard.
func (u *User) NeedsEnrollment() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleCandidate && !u.EnrollmentCompleted
}

// UserSummary is the public projection returned after sign-in.
type UserSummary struct {
	ID                  int64  `json:"id"`
	Email               string `json:"email"`
	Role                string `json:"role"`
	EnrollmentCompleted bool   `json:"enrollment_completed"`
}

// Summary projects the user into its public shape.
func (u *User) Summary() UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:                  u.ID,
		Email:               u.Email,
		Role:                string(u.Role),
		EnrollmentCompleted: u.EnrollmentCompleted,
	}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProviderSSO is the provider name used for the single configured IdP.
const ProviderSSO = "sso"

// IdentityLink associates a local user with one external provider account.
// (user_id, provider) is unique at the store level.
type IdentityLink struct {
	bun.BaseModel  `bun:"table:oauth_connections,alias:oac"`
	ID             uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	UserID         int64      `bun:"user_id,notnull" json:"user_id"`
	Provider       string     `bun:"provider,notnull" json:"provider"`
	ProviderUserID string     `bun:"provider_user_id" json:"provider_user_id,omitempty"`
	AccessToken    string     `bun:"access_token" json:"-"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// AuditEvent is an append-only record of a security relevant action.
type AuditEvent struct {
	bun.BaseModel `bun:"table:audit_logs,alias:adt"`
	ID            uuid.UUID      `bun:"id,pk,type:uuid" json:"id"`
	UserID        string         `bun:"user_id,notnull" json:"user_id"`
	Action        string         `bun:"action,notnull" json:"action"`
	Metadata      map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time      `bun:"created_at,notnull" json:"timestamp"`
}
