package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/domain/record"
	"github.com/emedica/emedica-api/internal/domain/session"
)

type RecordService struct {
	repo     record.Repository
	users    directory.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewRecordService(repo record.Repository, users directory.Repository, auditSvc *AuditService, log *zap.Logger) *RecordService {
	return &RecordService{repo: repo, users: users, auditSvc: auditSvc, log: log}
}

// Create writes a new medical record. Only doctors write records; they are
// immutable afterwards.
func (s *RecordService) Create(ctx context.Context, cmd *record.CreateRecordCommand, caller *session.Session, ip string) (*record.MedicalRecord, error) {
	if caller.Role != domain.RoleDoctor {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(cmd.Diagnosis) == "" {
		return nil, record.ErrDiagnosisRequired
	}

	doctor, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolving doctor: %w", err)
	}

	rec := &record.MedicalRecord{
		PatientID:    cmd.PatientID,
		DoctorID:     caller.UserID,
		DoctorName:   doctor.Name,
		VisitDate:    cmd.VisitDate,
		Diagnosis:    strings.TrimSpace(cmd.Diagnosis),
		Treatment:    cmd.Treatment,
		Prescription: cmd.Prescription,
		Notes:        cmd.Notes,
		CreatedBy:    caller.UserID,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		s.log.Error("failed to create medical record", zap.Error(err))
		return nil, fmt.Errorf("creating medical record: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       string(domain.ActionCreate),
		ResourceType: "medical_record",
		ResourceID:   rec.ID.String(),
		IPAddress:    ip,
	})

	return rec, nil
}

func (s *RecordService) Get(ctx context.Context, id uuid.UUID, caller *session.Session, ip string) (*record.MedicalRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == domain.RolePatient && rec.PatientID != caller.UserID {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       string(domain.ActionRead),
		ResourceType: "medical_record",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return rec, nil
}

func (s *RecordService) List(ctx context.Context, q *record.ListRecordsQuery, caller *session.Session) (*record.PagedRecords, error) {
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
