package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/domain/session"
	"github.com/emedica/emedica-api/pkg/auth"
	"github.com/emedica/emedica-api/pkg/metrics"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
)

type AuthService struct {
	users      directory.Repository
	sessions   session.Store
	jwtManager *auth.JWTManager
	sessionTTL time.Duration
	auditSvc   *AuditService
	metrics    *metrics.Collector
	log        *zap.Logger
}

func NewAuthService(
	users directory.Repository,
	sessions session.Store,
	jwtManager *auth.JWTManager,
	sessionTTL time.Duration,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwtManager: jwtManager,
		sessionTTL: sessionTTL,
		auditSvc:   auditSvc,
		metrics:    collector,
		log:        log,
	}
}

// Login authenticates by email and password. An unknown email and a wrong
// password are indistinguishable to the caller: both return
// ErrInvalidCredentials and leave no session behind.
func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*directory.User, *session.Session, *domain.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Burn a bcrypt round on unknown emails so response time does not
		// reveal whether the address exists in the directory.
		_, _ = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		return nil, nil, nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, nil, nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("failed login attempt",
			zap.String("email", email),
			zap.String("ip", ip),
		)
		return nil, nil, nil, ErrInvalidCredentials
	}

	sess, pair, err := s.establishSession(ctx, user)
	if err != nil {
		return nil, nil, nil, err
	}

	_ = s.users.RecordLogin(ctx, user.ID)

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       user.ID,
		UserRole:     string(user.Role),
		Action:       string(domain.ActionLogin),
		ResourceType: "session",
		ResourceID:   sess.ID,
		IPAddress:    ip,
	})

	s.log.Info("user logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("ip", ip),
	)

	return user, sess, pair, nil
}

// Logout deletes the persisted session. Idempotent: logging out an absent
// session is a no-op and returns nil.
func (s *AuthService) Logout(ctx context.Context, sessionID, ip string) error {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		// Already gone (or unreadable) counts as logged out.
		return nil
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	s.metrics.SessionsActive.Dec()

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       sess.UserID,
		UserRole:     string(sess.Role),
		Action:       string(domain.ActionLogout),
		ResourceType: "session",
		ResourceID:   sessionID,
		IPAddress:    ip,
	})

	return nil
}

// Restore rehydrates a session by ID, trusting the persisted record without
// re-checking credentials. A malformed payload is treated as no session, not
// an internal error.
func (s *AuthService) Restore(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrCorrupt) {
			s.log.Warn("discarding corrupt session record", zap.String("session_id", sessionID))
			_ = s.sessions.Delete(ctx, sessionID)
			s.metrics.SessionsActive.Dec()
			return nil, session.ErrNotFound
		}
		return nil, err
	}

	if sess.Expired(time.Now()) {
		_ = s.sessions.Delete(ctx, sessionID)
		s.metrics.SessionsActive.Dec()
		return nil, session.ErrNotFound
	}

	return sess, nil
}

// Refresh issues a new token pair for a still-live session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// The session must still exist; logout revokes refresh tokens too.
	sess, err := s.Restore(ctx, claims.SessionID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.jwtManager.GenerateTokenPair(&domain.Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sess.ID,
	})
}

// establishSession is the shared success path for password and OTP logins.
func (s *AuthService) establishSession(ctx context.Context, user *directory.User) (*session.Session, *domain.TokenPair, error) {
	now := time.Now()
	sess := &session.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.sessionTTL),
	}

	if err := s.sessions.Put(ctx, sess, s.sessionTTL); err != nil {
		return nil, nil, fmt.Errorf("persisting session: %w", err)
	}
	s.metrics.SessionsActive.Inc()

	pair, err := s.jwtManager.GenerateTokenPair(&domain.Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sess.ID,
	})
	if err != nil {
		// Roll back so a failed login leaves no partial state.
		_ = s.sessions.Delete(ctx, sess.ID)
		s.metrics.SessionsActive.Dec()
		s.log.Error("failed to generate token pair", zap.Error(err))
		return nil, nil, fmt.Errorf("generating tokens: %w", err)
	}

	return sess, pair, nil
}
