package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/appointment"
	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/domain/session"
)

type AppointmentService struct {
	repo     appointment.Repository
	users    directory.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewAppointmentService(
	repo appointment.Repository,
	users directory.Repository,
	auditSvc *AuditService,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{repo: repo, users: users, auditSvc: auditSvc, log: log}
}

func (s *AppointmentService) Schedule(ctx context.Context, cmd *appointment.CreateAppointmentCommand, caller *session.Session, ip string) (*appointment.Appointment, error) {
	var errs []string
	if cmd.ScheduledAt.IsZero() {
		errs = append(errs, "scheduled_at is required")
	} else if cmd.ScheduledAt.Before(time.Now()) {
		return nil, appointment.ErrScheduledInPast
	}
	if strings.TrimSpace(cmd.Type) == "" {
		errs = append(errs, "type is required")
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	// Patients may only book for themselves.
	if caller.Role == domain.RolePatient && cmd.PatientID != caller.UserID {
		return nil, ErrForbidden
	}

	patient, err := s.users.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, fmt.Errorf("resolving patient: %w", err)
	}
	doctor, err := s.users.GetByID(ctx, cmd.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("resolving doctor: %w", err)
	}
	if doctor.Role != domain.RoleDoctor {
		return nil, &ValidationError{Fields: []string{"doctor_id does not reference a doctor"}}
	}

	a := &appointment.Appointment{
		PatientID:   cmd.PatientID,
		DoctorID:    cmd.DoctorID,
		PatientName: patient.Name,
		DoctorName:  doctor.Name,
		ScheduledAt: cmd.ScheduledAt,
		Type:        strings.TrimSpace(cmd.Type),
		Status:      appointment.StatusScheduled,
		Reason:      cmd.Reason,
		Notes:       cmd.Notes,
		CreatedBy:   caller.UserID,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       string(domain.ActionCreate),
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})

	return a, nil
}

func (s *AppointmentService) Get(ctx context.Context, id uuid.UUID, caller *session.Session) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role == domain.RolePatient && a.PatientID != caller.UserID {
		return nil, ErrForbidden
	}
	return a, nil
}

func (s *AppointmentService) Cancel(ctx context.Context, id uuid.UUID, cmd *appointment.CancelAppointmentCommand, caller *session.Session, ip string) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller.Role == domain.RolePatient && a.PatientID != caller.UserID {
		return nil, ErrForbidden
	}

	if err := a.Cancel(cmd.Reason, caller.UserID); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, a); err != nil {
		return nil, fmt.Errorf("updating appointment status: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       caller.UserID,
		UserRole:     string(caller.Role),
		Action:       string(domain.ActionUpdate),
		ResourceType: "appointment",
		ResourceID:   id.String(),
		IPAddress:    ip,
		Detail:       fmt.Sprintf(`{"status":"cancelled","reason":%q}`, cmd.Reason),
	})

	return a, nil
}

func (s *AppointmentService) List(ctx context.Context, q *appointment.ListAppointmentsQuery, caller *session.Session) (*appointment.PagedAppointments, error) {
	// Patients and doctors see only their own appointments; trainees see
	// their supervisor's.
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
