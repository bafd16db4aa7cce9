package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/emedica/emedica-api/internal/config"
	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/domain/session"
	"github.com/emedica/emedica-api/pkg/auth"
	"github.com/emedica/emedica-api/pkg/metrics"
)

// One collector per test binary; prometheus panics on duplicate registration.
var testCollector = metrics.NewCollector("servicetest")

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *directory.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*directory.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*directory.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*directory.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*directory.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByPhone(ctx context.Context, phone string) (*directory.User, error) {
	args := m.Called(ctx, phone)
	if u := args.Get(0); u != nil {
		return u.(*directory.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context, q *directory.ListUsersQuery) (*directory.PagedUsers, error) {
	args := m.Called(ctx, q)
	if p := args.Get(0); p != nil {
		return p.(*directory.PagedUsers), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) CountByRole(ctx context.Context) (map[string]int64, error) {
	args := m.Called(ctx)
	if c := args.Get(0); c != nil {
		return c.(map[string]int64), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) RecordLogin(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// memSessionStore is an in-memory session.Store with the same contract as
// the redis-backed one.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]session.Session
	corrupt  map[string]bool
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		sessions: make(map[string]session.Session),
		corrupt:  make(map[string]bool),
	}
}

// corruptRecord plants a record whose payload fails to decode on Get.
func (s *memSessionStore) corruptRecord(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = session.Session{ID: id}
	s.corrupt[id] = true
}

func (s *memSessionStore) Put(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *memSessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	if s.corrupt[id] {
		return nil, session.ErrCorrupt
	}
	return &sess, nil
}

func (s *memSessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.corrupt, id)
	return nil
}

func (s *memSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

type memChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]string
}

func newMemChallengeStore() *memChallengeStore {
	return &memChallengeStore{challenges: make(map[string]string)}
}

func (s *memChallengeStore) PutChallenge(ctx context.Context, phone, secret string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[phone] = secret
	return nil
}

func (s *memChallengeStore) GetChallenge(ctx context.Context, phone string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	secret, ok := s.challenges[phone]
	if !ok {
		return "", session.ErrNotFound
	}
	return secret, nil
}

func (s *memChallengeStore) DeleteChallenge(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, phone)
	return nil
}

type nopAuditRepo struct{}

func (nopAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	return nil
}

func newTestAuditService() *AuditService {
	return NewAuditService(nopAuditRepo{}, testCollector, zap.NewNop())
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager(config.JWTConfig{
		Secret:          "0123456789abcdef0123456789abcdef",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "emedica-test",
	})
}

func mustHash(password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}

func testDoctor() *directory.User {
	return &directory.User{
		ID:           uuid.New(),
		Name:         "Dr. Kavita Joshi",
		Email:        "doctor@hospital.com",
		Phone:        "9999999991",
		PasswordHash: mustHash("password"),
		Role:         domain.RoleDoctor,
		IsActive:     true,
	}
}
