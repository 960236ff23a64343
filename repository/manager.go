package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	auth "github.com/hirewell/go-auth"
	"github.com/hirewell/go-auth/activitymap"
	"github.com/uptrace/bun"
)

// Manager exposes every store used by the sign-in flow.
type Manager interface {
	auth.RepositoryManager
	IdentityLinks() *IdentityLinkRepository
	AuditEvents() *AuditEventRepository
}

type mngr struct {
	auth.RepositoryManager
	identityLinks *IdentityLinkRepository
	auditEvents   *AuditEventRepository
}

func NewRepositoryManager(db *bun.DB) Manager {
	return &mngr{
		RepositoryManager: auth.NewRepositoryManager(db),
		identityLinks:     NewIdentityLinkRepository(db),
		auditEvents:       NewAuditEventRepository(db, activitymap.WithSource("auth")),
	}
}

func (m mngr) Validate() error {
	if err := m.RepositoryManager.Validate(); err != nil {
		return err
	}

	if m.identityLinks == nil {
		return errors.New("repository identityLinks should be initialized")
	}

	if m.auditEvents == nil {
		return errors.New("repository auditEvents should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return m.RepositoryManager.RunInTx(ctx, opts, f)
}

func (m mngr) IdentityLinks() *IdentityLinkRepository {
	return m.identityLinks
}

func (m mngr) AuditEvents() *AuditEventRepository {
	return m.auditEvents
}
