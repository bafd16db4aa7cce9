package redisstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emedica/emedica-api/internal/config"
	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/session"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	srv, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	store := New(config.RedisConfig{Addr: srv.Addr()})
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Ping(context.Background()))
	return store, srv
}

func TestSessionRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := &session.Session{
		ID:        "sess-1",
		UserID:    uuid.New(),
		Email:     "doctor@hospital.com",
		Role:      domain.RoleDoctor,
		IssuedAt:  time.Now().UTC().Truncate(time.Second),
		ExpiresAt: time.Now().UTC().Add(12 * time.Hour).Truncate(time.Second),
	}
	require.NoError(t, store.Put(ctx, sess, time.Hour))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)
	assert.Equal(t, sess.Email, got.Email)
	assert.Equal(t, sess.Role, got.Role)
	assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))
}

func TestSessionGetAbsent(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "never-put")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestSessionGetMalformedPayload(t *testing.T) {
	store, srv := newTestStore(t)

	require.NoError(t, srv.Set(sessionKeyPrefix+"mangled", "{not json"))

	_, err := store.Get(context.Background(), "mangled")
	assert.ErrorIs(t, err, session.ErrCorrupt)
}

func TestSessionDeleteIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	sess := &session.Session{ID: "sess-2", Email: "patient@hospital.com"}
	require.NoError(t, store.Put(ctx, sess, time.Hour))

	assert.NoError(t, store.Delete(ctx, "sess-2"))
	assert.NoError(t, store.Delete(ctx, "sess-2"))
	assert.NoError(t, store.Delete(ctx, "never-put"))
}

func TestSessionExpiresWithTTL(t *testing.T) {
	store, srv := newTestStore(t)
	ctx := context.Background()

	sess := &session.Session{ID: "sess-3", Email: "admin@hospital.com"}
	require.NoError(t, store.Put(ctx, sess, time.Minute))

	srv.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "sess-3")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestCountSessions(t *testing.T) {
	store, srv := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sess := &session.Session{ID: fmt.Sprintf("sess-%d", i)}
		require.NoError(t, store.Put(ctx, sess, time.Minute))
	}
	require.NoError(t, store.PutChallenge(ctx, "9999999991", "secret", time.Minute))

	n, err := store.CountSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "challenge keys are not sessions")

	srv.FastForward(2 * time.Minute)

	n, err = store.CountSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChallengeRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutChallenge(ctx, "9999999991", "JBSWY3DPEHPK3PXP", time.Minute))

	secret, err := store.GetChallenge(ctx, "9999999991")
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", secret)

	require.NoError(t, store.DeleteChallenge(ctx, "9999999991"))
	_, err = store.GetChallenge(ctx, "9999999991")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestChallengeReplacedOnNewRequest(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutChallenge(ctx, "9999999991", "first-secret", time.Minute))
	require.NoError(t, store.PutChallenge(ctx, "9999999991", "second-secret", time.Minute))

	secret, err := store.GetChallenge(ctx, "9999999991")
	require.NoError(t, err)
	assert.Equal(t, "second-secret", secret)
}
