package social

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/goliatone/go-repository-bun"
	auth "github.com/hirewell/go-auth"
	"github.com/uptrace/bun"
)

type stubUsers struct {
	byEmail map[string]*auth.User
	err     error
}

func newStubUsers(users ...*auth.User) *stubUsers {
	s := &stubUsers{byEmail: map[string]*auth.User{}}
	for _, u := range users {
		s.byEmail[auth.NormalizeEmail(u.Email)] = u
	}
	return s
}

func (s *stubUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.GetByEmailTx(ctx, nil, email)
}

func (s *stubUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*auth.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.byEmail[auth.NormalizeEmail(email)]; ok {
		return u, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (s *stubUsers) GetByID(ctx context.Context, id int64) (*auth.User, error) {
	return s.GetByIDTx(ctx, nil, id)
}

func (s *stubUsers) GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*auth.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.NewRecordNotFound()
}

func (s *stubUsers) Create(ctx context.Context, record *auth.User) (*auth.User, error) {
	return nil, errors.New("users are not created by sign-in")
}

func (s *stubUsers) CreateTx(ctx context.Context, tx bun.IDB, record *auth.User) (*auth.User, error) {
	return s.Create(ctx, record)
}

type stubLinks struct {
	mu        sync.Mutex
	links     map[string]*auth.IdentityLink
	findErr   error
	createErr error
	updateErr error
	creates   int
	updates   int
}

func newStubLinks() *stubLinks {
	return &stubLinks{links: map[string]*auth.IdentityLink{}}
}

func linkKey(userID int64, provider string) string {
	return provider + "|" + strconv.FormatInt(userID, 10)
}

func (s *stubLinks) FindByUserAndProvider(ctx context.Context, userID int64, provider string) (*auth.IdentityLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	if link, ok := s.links[linkKey(userID, provider)]; ok {
		cp := *link
		return &cp, nil
	}
	return nil, repository.NewRecordNotFound()
}

func (s *stubLinks) FindOrCreate(ctx context.Context, link *auth.IdentityLink) (*auth.IdentityLink, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, false, s.createErr
	}
	key := linkKey(link.UserID, link.Provider)
	if existing, ok := s.links[key]; ok {
		cp := *existing
		return &cp, false, nil
	}
	cp := *link
	s.links[key] = &cp
	s.creates++
	out := cp
	return &out, true, nil
}

func (s *stubLinks) UpdateSubject(ctx context.Context, link *auth.IdentityLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	existing, ok := s.links[linkKey(link.UserID, link.Provider)]
	if !ok {
		return repository.NewRecordNotFound()
	}
	existing.ProviderUserID = link.ProviderUserID
	s.updates++
	return nil
}

func (s *stubLinks) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

type captureSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
	err    error
}

func (c *captureSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return c.err
}

func (c *captureSink) recorded() []auth.ActivityEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]auth.ActivityEvent, len(c.events))
	copy(out, c.events)
	return out
}

type failingTokens struct {
	auth.TokenService
	err error
}

func (f failingTokens) Issue(identity auth.Identity) (*auth.Credential, error) {
	return nil, f.err
}

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestTokens() auth.TokenService {
	return auth.NewTokenService(&auth.Settings{
		SigningKey:      "test-signing-key",
		Issuer:          "hirewell",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 720 * time.Hour,
	}, nil, auth.WithTokenClock(func() time.Time { return testNow }))
}

func candidate(id int64, email string, enrolled bool) *auth.User {
	return &auth.User{
		ID:                  id,
		Email:               email,
		Role:                auth.RoleCandidate,
		EnrollmentCompleted: enrolled,
	}
}
