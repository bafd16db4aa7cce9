package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/emedica/emedica-api/internal/config"
	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/appointment"
	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/domain/prescription"
	"github.com/emedica/emedica-api/internal/domain/session"
	"github.com/emedica/emedica-api/internal/service"
	"github.com/emedica/emedica-api/pkg/auth"
	"github.com/emedica/emedica-api/pkg/metrics"
)

var testCollector = metrics.NewCollector("handlertest")

// fakeDirectory is a map-backed directory.Repository seeded with the demo
// accounts.
type fakeDirectory struct {
	mu    sync.Mutex
	users map[uuid.UUID]*directory.User
}

func newFakeDirectory(users ...*directory.User) *fakeDirectory {
	d := &fakeDirectory{users: make(map[uuid.UUID]*directory.User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *fakeDirectory) Create(ctx context.Context, u *directory.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.users {
		if existing.Email == u.Email {
			return directory.ErrEmailTaken
		}
		if u.Phone != "" && existing.Phone == u.Phone {
			return directory.ErrPhoneTaken
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	d.users[u.ID] = u
	return nil
}

func (d *fakeDirectory) GetByID(ctx context.Context, id uuid.UUID) (*directory.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, directory.ErrUserNotFound
}

func (d *fakeDirectory) GetByEmail(ctx context.Context, email string) (*directory.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Email == directory.NormalizeEmail(email) {
			return u, nil
		}
	}
	return nil, directory.ErrUserNotFound
}

func (d *fakeDirectory) GetByPhone(ctx context.Context, phone string) (*directory.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range d.users {
		if u.Phone == directory.NormalizePhone(phone) {
			return u, nil
		}
	}
	return nil, directory.ErrUserNotFound
}

func (d *fakeDirectory) List(ctx context.Context, q *directory.ListUsersQuery) (*directory.PagedUsers, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*directory.User
	for _, u := range d.users {
		if q.Role != nil && u.Role != *q.Role {
			continue
		}
		out = append(out, u)
	}
	return &directory.PagedUsers{
		Users:      out,
		TotalCount: int64(len(out)),
		Page:       1,
		PageSize:   len(out),
		TotalPages: 1,
	}, nil
}

func (d *fakeDirectory) CountByRole(ctx context.Context) (map[string]int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	counts := make(map[string]int64)
	for _, u := range d.users {
		counts[string(u.Role)]++
	}
	return counts, nil
}

func (d *fakeDirectory) RecordLogin(ctx context.Context, id uuid.UUID) error {
	return nil
}

// fakeAppointments and fakePrescriptions serve only the analytics aggregates.

type fakeAppointments struct {
	appointment.Repository
	byStatus map[string]int64
}

func (f *fakeAppointments) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return f.byStatus, nil
}

type fakePrescriptions struct {
	prescription.Repository
	active int64
}

func (f *fakePrescriptions) CountActive(ctx context.Context) (int64, error) {
	return f.active, nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]session.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]session.Session)}
}

func (s *memSessions) Put(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = *sess
	return nil
}

func (s *memSessions) Get(ctx context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &sess, nil
}

func (s *memSessions) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

type memChallenges struct {
	mu         sync.Mutex
	challenges map[string]string
}

func newMemChallenges() *memChallenges {
	return &memChallenges{challenges: make(map[string]string)}
}

func (s *memChallenges) PutChallenge(ctx context.Context, phone, secret string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[phone] = secret
	return nil
}

func (s *memChallenges) GetChallenge(ctx context.Context, phone string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	secret, ok := s.challenges[phone]
	if !ok {
		return "", session.ErrNotFound
	}
	return secret, nil
}

func (s *memChallenges) DeleteChallenge(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, phone)
	return nil
}

type nopAudit struct{}

func (nopAudit) Create(ctx context.Context, entry *domain.AuditLog) error { return nil }

func seedUser(name, email, phone string, role domain.Role) *directory.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	return &directory.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App: config.AppConfig{Name: "emedica-api", Environment: "test", Version: "test"},
		JWT: config.JWTConfig{
			Secret:          "0123456789abcdef0123456789abcdef",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 24 * time.Hour,
			Issuer:          "emedica-test",
		},
		Session: config.SessionConfig{TTL: time.Hour},
		OTP: config.OTPConfig{
			ChallengeTTL: 5 * time.Minute,
			Digits:       6,
			RevealCode:   true,
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
		RateLimit: config.RateLimitConfig{
			RequestsPerSecond:     1000,
			BurstSize:             1000,
			AuthRequestsPerMinute: 6000,
		},
	}

	users := newFakeDirectory(
		seedUser("Dr. Kavita Joshi", "doctor@hospital.com", "9999999991", domain.RoleDoctor),
		seedUser("Suresh Nair", "patient@email.com", "9999999992", domain.RolePatient),
		seedUser("Manoj Gupta", "admin@hospital.com", "9999999993", domain.RoleAdmin),
		seedUser("Pooja Desai", "superadmin@hospital.com", "9999999994", domain.RoleSuperAdmin),
	)
	sessions := newMemSessions()
	log := zap.NewNop()

	auditSvc := service.NewAuditService(nopAudit{}, testCollector, log)
	t.Cleanup(auditSvc.Shutdown)

	jwtManager := auth.NewJWTManager(cfg.JWT)
	authSvc := service.NewAuthService(users, sessions, jwtManager, cfg.Session.TTL, auditSvc, testCollector, log)
	otpSvc := service.NewOTPService(users, newMemChallenges(), authSvc, cfg.OTP, log)
	directorySvc := service.NewDirectoryService(users, auditSvc, log)
	analyticsSvc := service.NewAnalyticsService(
		users,
		&fakeAppointments{byStatus: map[string]int64{"scheduled": 3, "cancelled": 1}},
		&fakePrescriptions{active: 2},
	)

	return NewRouter(RouterDeps{
		Config:       cfg,
		Logger:       log,
		Collector:    testCollector,
		JWTManager:   jwtManager,
		AuthSvc:      authSvc,
		AuditSvc:     auditSvc,
		OTPSvc:       otpSvc,
		DirectorySvc: directorySvc,
		AnalyticsSvc: analyticsSvc,
	})
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine, email string) (string, loginResponse) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": "password",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data loginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.Tokens.AccessToken, resp.Data
}

func TestLoginEndpoint(t *testing.T) {
	r := newTestRouter(t)

	_, data := login(t, r, "doctor@hospital.com")
	assert.Equal(t, "doctor@hospital.com", data.User.Email)
	assert.Equal(t, domain.RoleDoctor, data.User.Role)
	assert.Equal(t, "doctor", data.Dashboard)
	assert.Contains(t, data.Routes, "/patients")
	assert.NotContains(t, data.Routes, "/staff-management")
	assert.NotEmpty(t, data.Tokens.RefreshToken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "doctor@hospital.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown email gets the identical response.
	w2 := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "ghost@hospital.com",
		"password": "not-the-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w2.Code)
	assert.JSONEq(t, w.Body.String(), w2.Body.String())
}

func TestLoginValidatesPayload(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/me", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	r := newTestRouter(t)
	token, _ := login(t, r, "patient@email.com")

	w := doJSON(t, r, http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data meResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "patient@email.com", resp.Data.User.Email)
	assert.Equal(t, "patient", resp.Data.Dashboard)
	assert.Equal(t, []string{"/", "/appointments", "/medical-records", "/prescriptions"}, resp.Data.Routes)
}

func TestLogoutRevokesToken(t *testing.T) {
	r := newTestRouter(t)
	token, _ := login(t, r, "doctor@hospital.com")

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// The token itself is still within its lifetime, but the session is gone.
	w = doJSON(t, r, http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Logging out again is a no-op that still requires authentication.
	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoleGateOnUserListing(t *testing.T) {
	r := newTestRouter(t)

	doctorToken, _ := login(t, r, "doctor@hospital.com")
	w := doJSON(t, r, http.MethodGet, "/api/v1/users", doctorToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken, _ := login(t, r, "admin@hospital.com")
	w = doJSON(t, r, http.MethodGet, "/api/v1/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHospitalAnalyticsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	doctorToken, _ := login(t, r, "doctor@hospital.com")
	w := doJSON(t, r, http.MethodGet, "/api/v1/analytics", doctorToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken, _ := login(t, r, "admin@hospital.com")
	w = doJSON(t, r, http.MethodGet, "/api/v1/analytics", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data service.HospitalAnalytics `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Data.AppointmentsByStatus["scheduled"])
	assert.Equal(t, int64(2), resp.Data.ActivePrescriptions)
	assert.Equal(t, int64(1), resp.Data.UsersByRole["doctor"])
}

func TestCreateUserIsSuperadminOnly(t *testing.T) {
	r := newTestRouter(t)

	payload := gin.H{
		"name":     "Dr. Asha Menon",
		"email":    "trainee@hospital.com",
		"phone":    "9999999995",
		"password": "a-long-demo-password",
		"role":     "trainee",
	}

	adminToken, _ := login(t, r, "admin@hospital.com")
	w := doJSON(t, r, http.MethodPost, "/api/v1/users", adminToken, payload)
	assert.Equal(t, http.StatusForbidden, w.Code)

	superToken, _ := login(t, r, "superadmin@hospital.com")
	w = doJSON(t, r, http.MethodPost, "/api/v1/users", superToken, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Creating the same email again conflicts.
	w = doJSON(t, r, http.MethodPost, "/api/v1/users", superToken, payload)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestNavigationAuthorize(t *testing.T) {
	r := newTestRouter(t)
	token, _ := login(t, r, "patient@email.com")

	w := doJSON(t, r, http.MethodGet, "/api/v1/navigation/authorize?route=/appointments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/navigation/authorize?route=/staff-management", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	var resp struct {
		Data authorizeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Data.Allowed)
	assert.Equal(t, "/?dashboard=patient", resp.Data.RedirectTo)
}

func TestOTPLoginFlow(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/otp/request", "", gin.H{"phone": "9999999991"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reqResp struct {
		Data otpRequestResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reqResp))
	require.Len(t, reqResp.Data.Code, 6, "demo mode reveals the code")

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/otp/verify", "", gin.H{
		"phone": "9999999991",
		"code":  reqResp.Data.Code,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var verifyResp struct {
		Data loginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verifyResp))
	assert.Equal(t, "doctor", verifyResp.Data.Dashboard)
	assert.NotEmpty(t, verifyResp.Data.Tokens.AccessToken)
}

func TestOTPUnknownPhoneEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/otp/request", "", gin.H{"phone": "1234567890"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	r := newTestRouter(t)
	_, data := login(t, r, "doctor@hospital.com")

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{
		"refresh_token": data.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data domain.TokenPair `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.AccessToken)

	w = doJSON(t, r, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{
		"refresh_token": "not-a-token",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), fmt.Sprintf("%q", "ok"))
}
