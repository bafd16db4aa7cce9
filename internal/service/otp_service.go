package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/emedica/emedica-api/internal/config"
	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/domain/session"
)

var (
	ErrInvalidOTP     = errors.New("invalid or expired one-time code")
	ErrUnknownPhone   = errors.New("phone number is not registered")
	ErrNoOTPRequested = errors.New("no one-time code was requested for this phone number")
)

// ChallengeStore holds a per-phone OTP secret for the challenge window.
type ChallengeStore interface {
	PutChallenge(ctx context.Context, phone, secret string, ttl time.Duration) error
	GetChallenge(ctx context.Context, phone string) (string, error)
	DeleteChallenge(ctx context.Context, phone string) error
}

// OTPService implements the phone login flow: a service-held, expiring
// challenge is created per request and a submitted code authenticates only
// while the challenge lives. The code itself is never stored; it is derived
// from the challenge secret with the challenge TTL as the TOTP period.
type OTPService struct {
	users      directory.Repository
	challenges ChallengeStore
	authSvc    *AuthService
	cfg        config.OTPConfig
	log        *zap.Logger
}

func NewOTPService(
	users directory.Repository,
	challenges ChallengeStore,
	authSvc *AuthService,
	cfg config.OTPConfig,
	log *zap.Logger,
) *OTPService {
	return &OTPService{
		users:      users,
		challenges: challenges,
		authSvc:    authSvc,
		cfg:        cfg,
		log:        log,
	}
}

// RequestOTP creates a challenge for a registered phone number and returns
// the code for the delivery path. Unknown phones are rejected up front so a
// challenge never exists for a number that cannot authenticate.
func (s *OTPService) RequestOTP(ctx context.Context, phone string) (string, error) {
	phone = directory.NormalizePhone(phone)

	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return "", ErrUnknownPhone
		}
		return "", fmt.Errorf("looking up phone: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "emedica",
		AccountName: phone,
		Period:      uint(s.cfg.ChallengeTTL.Seconds()),
		Digits:      otp.Digits(s.cfg.Digits),
	})
	if err != nil {
		return "", fmt.Errorf("generating OTP secret: %w", err)
	}

	code, err := totp.GenerateCodeCustom(key.Secret(), time.Now(), s.validateOpts())
	if err != nil {
		return "", fmt.Errorf("deriving OTP code: %w", err)
	}

	if err := s.challenges.PutChallenge(ctx, phone, key.Secret(), s.cfg.ChallengeTTL); err != nil {
		return "", fmt.Errorf("storing OTP challenge: %w", err)
	}

	s.authSvc.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       user.ID,
		UserRole:     string(user.Role),
		Action:       string(domain.ActionOTPRequest),
		ResourceType: "otp_challenge",
		ResourceID:   phone,
	})

	s.log.Info("otp challenge issued",
		zap.String("user_id", user.ID.String()),
		zap.Duration("ttl", s.cfg.ChallengeTTL),
	)

	return code, nil
}

// VerifyOTP checks a submitted code against the held challenge and, on
// success, runs the same session-establishment path as a password login.
// The challenge is consumed on success; failure leaves no session.
func (s *OTPService) VerifyOTP(ctx context.Context, phone, code, ip string) (*directory.User, *session.Session, *domain.TokenPair, error) {
	phone = directory.NormalizePhone(phone)

	secret, err := s.challenges.GetChallenge(ctx, phone)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, nil, nil, ErrNoOTPRequested
		}
		return nil, nil, nil, fmt.Errorf("loading OTP challenge: %w", err)
	}

	ok, err := totp.ValidateCustom(code, secret, time.Now(), s.validateOpts())
	if err != nil || !ok {
		s.log.Warn("otp verification failed", zap.String("ip", ip))
		return nil, nil, nil, ErrInvalidOTP
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, nil, nil, ErrInvalidOTP
	}
	if !user.IsActive {
		return nil, nil, nil, ErrAccountInactive
	}

	// One code, one login.
	if err := s.challenges.DeleteChallenge(ctx, phone); err != nil {
		s.log.Warn("failed to consume otp challenge", zap.Error(err))
	}

	sess, pair, err := s.authSvc.establishSession(ctx, user)
	if err != nil {
		return nil, nil, nil, err
	}

	_ = s.users.RecordLogin(ctx, user.ID)

	s.authSvc.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       user.ID,
		UserRole:     string(user.Role),
		Action:       string(domain.ActionLogin),
		ResourceType: "session",
		ResourceID:   sess.ID,
		IPAddress:    ip,
		Detail:       `{"method":"otp"}`,
	})

	return user, sess, pair, nil
}

func (s *OTPService) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(s.cfg.ChallengeTTL.Seconds()),
		Skew:      1,
		Digits:    otp.Digits(s.cfg.Digits),
		Algorithm: otp.AlgorithmSHA1,
	}
}
