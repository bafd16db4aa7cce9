package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/domain/session"
)

// DirectoryService fronts the identity directory for the staff and user
// management pages. Listing is admin-and-up; creating users is superadmin
// only.
type DirectoryService struct {
	repo     directory.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewDirectoryService(repo directory.Repository, auditSvc *AuditService, log *zap.Logger) *DirectoryService {
	return &DirectoryService{repo: repo, auditSvc: auditSvc, log: log}
}

func (s *DirectoryService) GetUser(ctx context.Context, id uuid.UUID, caller *session.Session) (*directory.User, error) {
	if caller.Role != domain.RoleAdmin && caller.Role != domain.RoleSuperAdmin && caller.UserID != id {
		return nil, ErrForbidden
	}
	return s.repo.GetByID(ctx, id)
}

func (s *DirectoryService) ListUsers(ctx context.Context, q *directory.ListUsersQuery, caller *session.Session) (*directory.PagedUsers, error) {
	if caller.Role != domain.RoleAdmin && caller.Role != domain.RoleSuperAdmin {
		return nil, ErrForbidden
	}

	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}

func (s *DirectoryService) CreateUser(ctx context.Context, cmd *directory.CreateUserCommand, caller *session.Session, ip string) (*directory.User, error) {
	if caller.Role != domain.RoleSuperAdmin {
		return nil, ErrForbidden
	}

	var errs []string
	if strings.TrimSpace(cmd.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(cmd.Email) == "" {
		errs = append(errs, "email is required")
	}
	if !cmd.Role.IsValid() {
		errs = append(errs, "role is invalid")
	}
	if len(cmd.Password) < 12 {
		errs = append(errs, "password must be at least 12 characters")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := &directory.User{
		Name:           strings.TrimSpace(cmd.Name),
		Email:          directory.NormalizeEmail(cmd.Email),
		Phone:          directory.NormalizePhone(cmd.Phone),
		PasswordHash:   string(hash),
		Role:           cmd.Role,
		Specialization: cmd.Specialization,
		Department:     cmd.Department,
		SupervisorID:   cmd.SupervisorID,
		IsActive:       true,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       string(domain.ActionCreate),
		ResourceType: "user",
		ResourceID:   u.ID.String(),
		IPAddress:    ip,
	})

	s.log.Info("user created",
		zap.String("user_id", u.ID.String()),
		zap.String("role", string(u.Role)),
		zap.String("created_by", caller.UserID.String()),
	)

	return u, nil
}
