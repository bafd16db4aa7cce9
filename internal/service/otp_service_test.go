package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/emedica/emedica-api/internal/config"
	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/directory"
)

func newTestOTPService(repo directory.Repository, store *memSessionStore, challenges *memChallengeStore) *OTPService {
	authSvc := newTestAuthService(repo, store)
	return NewOTPService(repo, challenges, authSvc, config.OTPConfig{
		ChallengeTTL: 5 * time.Minute,
		Digits:       6,
	}, zap.NewNop())
}

func TestOTPRequestAndVerify(t *testing.T) {
	repo := new(mockUserRepo)
	store := newMemSessionStore()
	challenges := newMemChallengeStore()
	svc := newTestOTPService(repo, store, challenges)

	doctor := testDoctor()
	repo.On("GetByPhone", mock.Anything, "9999999991").Return(doctor, nil)
	repo.On("RecordLogin", mock.Anything, doctor.ID).Return(nil)

	code, err := svc.RequestOTP(context.Background(), "9999999991")
	require.NoError(t, err)
	require.Len(t, code, 6)

	user, sess, pair, err := svc.VerifyOTP(context.Background(), "9999999991", code, "10.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, doctor.ID, user.ID)
	assert.Equal(t, domain.RoleDoctor, sess.Role)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, 1, store.count())
}

func TestOTPAcceptsFormattedPhoneInput(t *testing.T) {
	repo := new(mockUserRepo)
	store := newMemSessionStore()
	challenges := newMemChallengeStore()
	svc := newTestOTPService(repo, store, challenges)

	doctor := testDoctor()
	repo.On("GetByPhone", mock.Anything, "9999999991").Return(doctor, nil)
	repo.On("RecordLogin", mock.Anything, doctor.ID).Return(nil)

	// The directory lookup normalizes, so formatted input matches.
	code, err := svc.RequestOTP(context.Background(), "+99 9999-9999 1")
	require.NoError(t, err)

	_, _, _, err = svc.VerifyOTP(context.Background(), "9999999991", code, "10.0.0.1")
	assert.NoError(t, err)
}

func TestOTPWrongCodeLeavesNoSession(t *testing.T) {
	repo := new(mockUserRepo)
	store := newMemSessionStore()
	challenges := newMemChallengeStore()
	svc := newTestOTPService(repo, store, challenges)

	doctor := testDoctor()
	repo.On("GetByPhone", mock.Anything, "9999999991").Return(doctor, nil)

	code, err := svc.RequestOTP(context.Background(), "9999999991")
	require.NoError(t, err)

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	_, _, _, err = svc.VerifyOTP(context.Background(), "9999999991", wrong, "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidOTP)
	assert.Zero(t, store.count())
	repo.AssertNotCalled(t, "RecordLogin", mock.Anything, mock.Anything)
}

func TestOTPUnknownPhone(t *testing.T) {
	repo := new(mockUserRepo)
	svc := newTestOTPService(repo, newMemSessionStore(), newMemChallengeStore())

	repo.On("GetByPhone", mock.Anything, "1234567890").Return(nil, directory.ErrUserNotFound)

	_, err := svc.RequestOTP(context.Background(), "1234567890")
	assert.ErrorIs(t, err, ErrUnknownPhone)
}

func TestOTPVerifyWithoutRequest(t *testing.T) {
	repo := new(mockUserRepo)
	svc := newTestOTPService(repo, newMemSessionStore(), newMemChallengeStore())

	_, _, _, err := svc.VerifyOTP(context.Background(), "9999999991", "123456", "10.0.0.1")
	assert.ErrorIs(t, err, ErrNoOTPRequested)
}

func TestOTPChallengeIsSingleUse(t *testing.T) {
	repo := new(mockUserRepo)
	store := newMemSessionStore()
	challenges := newMemChallengeStore()
	svc := newTestOTPService(repo, store, challenges)

	doctor := testDoctor()
	repo.On("GetByPhone", mock.Anything, "9999999991").Return(doctor, nil)
	repo.On("RecordLogin", mock.Anything, doctor.ID).Return(nil)

	code, err := svc.RequestOTP(context.Background(), "9999999991")
	require.NoError(t, err)

	_, _, _, err = svc.VerifyOTP(context.Background(), "9999999991", code, "10.0.0.1")
	require.NoError(t, err)

	// Replaying the same code must fail: the challenge was consumed.
	_, _, _, err = svc.VerifyOTP(context.Background(), "9999999991", code, "10.0.0.1")
	assert.ErrorIs(t, err, ErrNoOTPRequested)
}
