package repository

import (
	"context"

	"github.com/google/uuid"
	auth "github.com/hirewell/go-auth"
	"github.com/hirewell/go-auth/activitymap"
	"github.com/uptrace/bun"
)

// AuditEventRepository is an append-only auth.ActivitySink backed by the
// audit_logs table. It exposes no update or delete operations.
type AuditEventRepository struct {
	db   *bun.DB
	opts []activitymap.Option
}

var _ auth.ActivitySink = (*AuditEventRepository)(nil)

// NewAuditEventRepository creates a new repository. opts are applied to
// every normalized record.
func NewAuditEventRepository(db *bun.DB, opts ...activitymap.Option) *AuditEventRepository {
	return &AuditEventRepository{db: db, opts: opts}
}

// Record implements auth.ActivitySink.
func (r *AuditEventRepository) Record(ctx context.Context, event auth.ActivityEvent) error {
	normalized := activitymap.Normalize(event, r.opts...)

	record := &auth.AuditEvent{
		ID:        uuid.New(),
		UserID:    normalized.UserID,
		Action:    normalized.Action,
		Metadata:  normalized.Metadata,
		CreatedAt: normalized.Timestamp,
	}

	_, err := r.db.NewInsert().Model(record).Exec(ctx)
	return err
}

// ListByUser returns the user's audit trail, oldest first.
func (r *AuditEventRepository) ListByUser(ctx context.Context, userID string) ([]*auth.AuditEvent, error) {
	records := []*auth.AuditEvent{}
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}
