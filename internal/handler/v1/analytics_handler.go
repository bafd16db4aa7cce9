package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emedica/emedica-api/internal/middleware"
	"github.com/emedica/emedica-api/internal/service"
)

type AnalyticsHandler struct {
	svc *service.AnalyticsService
}

func NewAnalyticsHandler(svc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func (h *AnalyticsHandler) HospitalOverview(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	overview, err := h.svc.HospitalOverview(c.Request.Context(), sess)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, overview)
}
