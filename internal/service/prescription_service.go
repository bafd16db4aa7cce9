package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/domain/prescription"
	"github.com/emedica/emedica-api/internal/domain/session"
)

type PrescriptionService struct {
	repo     prescription.Repository
	users    directory.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewPrescriptionService(repo prescription.Repository, users directory.Repository, auditSvc *AuditService, log *zap.Logger) *PrescriptionService {
	return &PrescriptionService{repo: repo, users: users, auditSvc: auditSvc, log: log}
}

func (s *PrescriptionService) Create(ctx context.Context, cmd *prescription.CreatePrescriptionCommand, caller *session.Session, ip string) (*prescription.Prescription, error) {
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}

	var errs []string
	if strings.TrimSpace(cmd.Medication) == "" {
		errs = append(errs, "medication is required")
	}
	if strings.TrimSpace(cmd.Dosage) == "" {
		errs = append(errs, "dosage is required")
	}
	if strings.TrimSpace(cmd.Frequency) == "" {
		errs = append(errs, "frequency is required")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	doctor, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolving doctor: %w", err)
	}

	p := &prescription.Prescription{
		PatientID:        cmd.PatientID,
		DoctorID:         caller.UserID,
		PrescribedBy:     doctor.Name,
		Medication:       strings.TrimSpace(cmd.Medication),
		Dosage:           cmd.Dosage,
		Frequency:        cmd.Frequency,
		Duration:         cmd.Duration,
		PrescribedDate:   cmd.PrescribedDate,
		StartDate:        cmd.StartDate,
		EndDate:          cmd.EndDate,
		Status:           prescription.StatusActive,
		RefillsRemaining: cmd.RefillsRemaining,
		Instructions:     cmd.Instructions,
		SideEffects:      cmd.SideEffects,
		CreatedBy:        caller.UserID,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create prescription", zap.Error(err))
		return nil, fmt.Errorf("creating prescription: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       string(domain.ActionCreate),
		ResourceType: "prescription",
		ResourceID:   p.ID.String(),
		IPAddress:    ip,
	})

	return p, nil
}

func (s *PrescriptionService) Refill(ctx context.Context, id uuid.UUID, caller *session.Session, ip string) (*prescription.Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller.Role == domain.RolePatient && p.PatientID != caller.UserID {
		return nil, ErrForbidden
	}

	if err := p.Refill(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("updating prescription: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       string(domain.ActionUpdate),
		ResourceType: "prescription",
		ResourceID:   id.String(),
		IPAddress:    ip,
		Detail:       `{"op":"refill"}`,
	})

	return p, nil
}

func (s *PrescriptionService) List(ctx context.Context, q *prescription.ListPrescriptionsQuery, caller *session.Session) (*prescription.PagedPrescriptions, error) {
	switch caller.Role {
	case domain.RolePatient:
		q.PatientID = &caller.UserID
	case domain.RoleDoctor:
		q.DoctorID = &caller.UserID
	case domain.RoleTrainee:
		doctorID, err := supervisorScope(ctx, s.users, caller)
		if err != nil {
			return nil, err
		}
		q.DoctorID = doctorID
	}

	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	return s.repo.List(ctx, q)
}
