package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	auth "github.com/hirewell/go-auth"
	"github.com/hirewell/go-auth/social"
	"github.com/uptrace/bun"
)

// IdentityLinkRepository implements social.IdentityLinkRepository using Bun.
// Uniqueness of (user_id, provider) is enforced by the table, so concurrent
// sign-ins for the same user converge on one row.
type IdentityLinkRepository struct {
	db *bun.DB
}

var _ social.IdentityLinkRepository = (*IdentityLinkRepository)(nil)

// NewIdentityLinkRepository creates a new repository.
func NewIdentityLinkRepository(db *bun.DB) *IdentityLinkRepository {
	return &IdentityLinkRepository{db: db}
}

// LinkID derives the deterministic primary key for a (user, provider) pair.
func LinkID(userID int64, provider string) (uuid.UUID, error) {
	return hashid.NewUUID(fmt.Sprintf("%d:%s", userID, strings.ToLower(provider)))
}

// FindByUserAndProvider implements social.IdentityLinkRepository.
func (r *IdentityLinkRepository) FindByUserAndProvider(ctx context.Context, userID int64, provider string) (*auth.IdentityLink, error) {
	return r.findByUserAndProvider(ctx, r.db, userID, provider)
}

func (r *IdentityLinkRepository) findByUserAndProvider(ctx context.Context, tx bun.IDB, userID int64, provider string) (*auth.IdentityLink, error) {
	record := &auth.IdentityLink{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ? AND ?TableAlias.provider = ?", userID, provider).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"user_id":  userID,
					"provider": provider,
				})
		}
		return nil, err
	}
	return record, nil
}

// FindOrCreate implements social.IdentityLinkRepository. The insert is a
// no-op when a row for (user_id, provider) already exists; the stored row is
// always re-read and returned. created reports whether this call wrote it.
// The id is derived from (user_id, provider), so the primary key and the
// unique index always conflict together.
func (r *IdentityLinkRepository) FindOrCreate(ctx context.Context, link *auth.IdentityLink) (*auth.IdentityLink, bool, error) {
	if link == nil || link.UserID == 0 || strings.TrimSpace(link.Provider) == "" {
		return nil, false, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"reason": "link requires user_id and provider",
			})
	}

	record := *link
	if err := ensureLinkID(&record); err != nil {
		return nil, false, err
	}
	if record.CreatedAt == nil {
		now := time.Now().UTC()
		record.CreatedAt = &now
	}

	res, err := r.db.NewInsert().
		Model(&record).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, false, err
	}

	created := false
	if res != nil {
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			created = true
		}
	}

	stored, err := r.findByUserAndProvider(ctx, r.db, link.UserID, link.Provider)
	if err != nil {
		return nil, false, err
	}

	return stored, created, nil
}

// UpdateSubject implements social.IdentityLinkRepository.
func (r *IdentityLinkRepository) UpdateSubject(ctx context.Context, link *auth.IdentityLink) error {
	if link == nil {
		return nil
	}

	res, err := r.db.NewUpdate().
		Model((*auth.IdentityLink)(nil)).
		Set("provider_user_id = ?", link.ProviderUserID).
		Where("user_id = ? AND provider = ?", link.UserID, link.Provider).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"user_id":  link.UserID,
				"provider": link.Provider,
			})
	}

	return nil
}

func ensureLinkID(link *auth.IdentityLink) error {
	if link.ID != uuid.Nil {
		return nil
	}
	id, err := LinkID(link.UserID, link.Provider)
	if err != nil {
		return err
	}
	link.ID = id
	return nil
}
