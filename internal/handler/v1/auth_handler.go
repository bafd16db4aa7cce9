package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emedica/emedica-api/internal/config"
	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/domain/nav"
	"github.com/emedica/emedica-api/internal/middleware"
	"github.com/emedica/emedica-api/internal/service"
	"github.com/emedica/emedica-api/pkg/metrics"
)

type AuthHandler struct {
	authSvc   *service.AuthService
	otpSvc    *service.OTPService
	otpCfg    config.OTPConfig
	collector *metrics.Collector
}

func NewAuthHandler(authSvc *service.AuthService, otpSvc *service.OTPService, otpCfg config.OTPConfig, collector *metrics.Collector) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, otpSvc: otpSvc, otpCfg: otpCfg, collector: collector}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// loginResponse carries everything the dashboard needs after a successful
// authentication: identity, tokens, the role's permitted routes and which
// dashboard variant to render.
type loginResponse struct {
	User      directory.PublicUser `json:"user"`
	Tokens    *domain.TokenPair    `json:"tokens"`
	Routes    []string             `json:"routes"`
	Dashboard string               `json:"dashboard"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, _, pair, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		h.collector.LoginsTotal.WithLabelValues("password", "failure").Inc()
		respondServiceError(c, err)
		return
	}

	dashboard, err := nav.DashboardFor(user.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.LoginsTotal.WithLabelValues("password", "success").Inc()

	respondOK(c, loginResponse{
		User:      user.Public(),
		Tokens:    pair,
		Routes:    nav.RoutesFor(user.Role),
		Dashboard: dashboard,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		// Logging out without a session is still a successful logout.
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), sess.ID, c.ClientIP()); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, pair)
}

type otpRequestBody struct {
	Phone string `json:"phone" binding:"required"`
}

type otpRequestResponse struct {
	Message string `json:"message"`
	// Code is only populated when the deployment reveals codes (demo mode).
	Code string `json:"code,omitempty"`
}

func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req otpRequestBody
	if !bindJSON(c, &req) {
		return
	}

	code, err := h.otpSvc.RequestOTP(c.Request.Context(), req.Phone)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.OTPRequestedTotal.Inc()

	resp := otpRequestResponse{Message: "one-time code issued"}
	if h.otpCfg.RevealCode {
		resp.Code = code
	}
	respondOK(c, resp)
}

type otpVerifyBody struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req otpVerifyBody
	if !bindJSON(c, &req) {
		return
	}

	user, _, pair, err := h.otpSvc.VerifyOTP(c.Request.Context(), req.Phone, req.Code, c.ClientIP())
	if err != nil {
		h.collector.OTPVerifiedTotal.WithLabelValues("failure").Inc()
		respondServiceError(c, err)
		return
	}

	dashboard, err := nav.DashboardFor(user.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.collector.OTPVerifiedTotal.WithLabelValues("success").Inc()
	h.collector.LoginsTotal.WithLabelValues("otp", "success").Inc()

	respondOK(c, loginResponse{
		User:      user.Public(),
		Tokens:    pair,
		Routes:    nav.RoutesFor(user.Role),
		Dashboard: dashboard,
	})
}
