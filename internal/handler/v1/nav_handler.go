package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/domain/nav"
	"github.com/emedica/emedica-api/internal/middleware"
	"github.com/emedica/emedica-api/internal/service"
	"github.com/emedica/emedica-api/pkg/metrics"
)

type NavHandler struct {
	directorySvc *service.DirectoryService
	auditSvc     *service.AuditService
	collector    *metrics.Collector
}

func NewNavHandler(directorySvc *service.DirectoryService, auditSvc *service.AuditService, collector *metrics.Collector) *NavHandler {
	return &NavHandler{directorySvc: directorySvc, auditSvc: auditSvc, collector: collector}
}

type meResponse struct {
	User      directory.PublicUser `json:"user"`
	Routes    []string             `json:"routes"`
	Dashboard string               `json:"dashboard"`
}

// Me returns the authenticated identity plus its permitted navigation set.
func (h *NavHandler) Me(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.directorySvc.GetUser(c.Request.Context(), sess.UserID, sess)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	dashboard, err := nav.DashboardFor(sess.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, meResponse{
		User:      user.Public(),
		Routes:    nav.RoutesFor(sess.Role),
		Dashboard: dashboard,
	})
}

// Navigation lists the sidebar entries visible to the caller's role.
func (h *NavHandler) Navigation(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	respondOK(c, nav.ItemsFor(sess.Role))
}

type authorizeResponse struct {
	Route      string `json:"route"`
	Allowed    bool   `json:"allowed"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

// Authorize answers "may I navigate here?" for a single route. A denied
// route points the caller back at its own dashboard, never at another
// role's view.
func (h *NavHandler) Authorize(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	route := c.Query("route")
	if route == "" {
		respondError(c, http.StatusBadRequest, "route query parameter is required")
		return
	}

	if nav.CanAccess(sess.Role, route) {
		respondOK(c, authorizeResponse{Route: route, Allowed: true})
		return
	}

	h.collector.RouteDeniedTotal.WithLabelValues(string(sess.Role), route).Inc()
	h.auditSvc.LogAsync(c.Request.Context(), service.AuditEntry{
		UserID:       sess.UserID,
		UserRole:     string(sess.Role),
		Action:       string(domain.ActionDenied),
		ResourceType: "route",
		ResourceID:   route,
		IPAddress:    c.ClientIP(),
	})

	dashboard, err := nav.DashboardFor(sess.Role)
	if err != nil {
		// Unknown role: back to login, never to a default dashboard.
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusForbidden, APIResponse[any]{
		Data: authorizeResponse{Route: route, Allowed: false, RedirectTo: "/?dashboard=" + dashboard},
	})
}
