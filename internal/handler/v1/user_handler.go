package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/middleware"
	"github.com/emedica/emedica-api/internal/service"
)

type UserHandler struct {
	svc *service.DirectoryService
}

func NewUserHandler(svc *service.DirectoryService) *UserHandler {
	return &UserHandler{svc: svc}
}

type createUserRequest struct {
	Name           string      `json:"name" binding:"required"`
	Email          string      `json:"email" binding:"required,email"`
	Phone          string      `json:"phone"`
	Password       string      `json:"password" binding:"required,min=12"`
	Role           domain.Role `json:"role" binding:"required"`
	Specialization string      `json:"specialization"`
	Department     string      `json:"department"`
	SupervisorID   *uuid.UUID  `json:"supervisor_id"`
}

type pagedUsersResponse struct {
	Users      []directory.PublicUser `json:"users"`
	TotalCount int64                  `json:"total_count"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	TotalPages int                    `json:"total_pages"`
}

func (h *UserHandler) Create(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}

	u, err := h.svc.CreateUser(c.Request.Context(), &directory.CreateUserCommand{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Password:       req.Password,
		Role:           req.Role,
		Specialization: req.Specialization,
		Department:     req.Department,
		SupervisorID:   req.SupervisorID,
		CreatedBy:      sess.UserID,
	}, sess, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, u.Public())
}

func (h *UserHandler) Get(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	u, err := h.svc.GetUser(c.Request.Context(), id, sess)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, u.Public())
}

func (h *UserHandler) List(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	q := &directory.ListUsersQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("role"); raw != "" {
		role := domain.Role(raw)
		if !role.IsValid() {
			respondServiceError(c, directory.ErrInvalidRole)
			return
		}
		q.Role = &role
	}

	page, err := h.svc.ListUsers(c.Request.Context(), q, sess)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp := pagedUsersResponse{
		Users:      make([]directory.PublicUser, 0, len(page.Users)),
		TotalCount: page.TotalCount,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
	for _, u := range page.Users {
		resp.Users = append(resp.Users, u.Public())
	}

	respondOK(c, resp)
}
