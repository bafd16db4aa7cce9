package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emedica/emedica-api/internal/domain/prescription"
	"github.com/emedica/emedica-api/internal/middleware"
	"github.com/emedica/emedica-api/internal/service"
)

type PrescriptionHandler struct {
	svc *service.PrescriptionService
}

func NewPrescriptionHandler(svc *service.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{svc: svc}
}

type createPrescriptionRequest struct {
	PatientID        uuid.UUID  `json:"patient_id" binding:"required"`
	Medication       string     `json:"medication" binding:"required"`
	Dosage           string     `json:"dosage" binding:"required"`
	Frequency        string     `json:"frequency" binding:"required"`
	Duration         string     `json:"duration"`
	PrescribedDate   time.Time  `json:"prescribed_date" binding:"required"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	RefillsRemaining int        `json:"refills_remaining"`
	Instructions     string     `json:"instructions"`
	SideEffects      string     `json:"side_effects"`
}

func (h *PrescriptionHandler) Create(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createPrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.svc.Create(c.Request.Context(), &prescription.CreatePrescriptionCommand{
		PatientID:        req.PatientID,
		Medication:       req.Medication,
		Dosage:           req.Dosage,
		Frequency:        req.Frequency,
		Duration:         req.Duration,
		PrescribedDate:   req.PrescribedDate,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		RefillsRemaining: req.RefillsRemaining,
		Instructions:     req.Instructions,
		SideEffects:      req.SideEffects,
	}, sess, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, p)
}

func (h *PrescriptionHandler) Refill(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.Refill(c.Request.Context(), id, sess, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, p)
}

func (h *PrescriptionHandler) List(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	q := &prescription.ListPrescriptionsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := prescription.Status(raw)
		if !status.IsValid() {
			respondServiceError(c, prescription.ErrInvalidStatus)
			return
		}
		q.Status = &status
	}

	page, err := h.svc.List(c.Request.Context(), q, sess)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, page)
}
