package service

import (
	"context"
	"fmt"

	"github.com/emedica/emedica-api/internal/domain"
	"github.com/emedica/emedica-api/internal/domain/appointment"
	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/domain/prescription"
	"github.com/emedica/emedica-api/internal/domain/session"
)

// HospitalAnalytics backs the admin analytics page: live aggregates computed
// from the repositories at request time.
type HospitalAnalytics struct {
	UsersByRole          map[string]int64 `json:"users_by_role"`
	AppointmentsByStatus map[string]int64 `json:"appointments_by_status"`
	ActivePrescriptions  int64            `json:"active_prescriptions"`
}

type AnalyticsService struct {
	users         directory.Repository
	appointments  appointment.Repository
	prescriptions prescription.Repository
}

func NewAnalyticsService(
	users directory.Repository,
	appointments appointment.Repository,
	prescriptions prescription.Repository,
) *AnalyticsService {
	return &AnalyticsService{
		users:         users,
		appointments:  appointments,
		prescriptions: prescriptions,
	}
}

func (s *AnalyticsService) HospitalOverview(ctx context.Context, caller *session.Session) (*HospitalAnalytics, error) {
	if caller.Role != domain.RoleAdmin && caller.Role != domain.RoleSuperAdmin {
		return nil, ErrForbidden
	}

	usersByRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregating users: %w", err)
	}

	apptsByStatus, err := s.appointments.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregating appointments: %w", err)
	}

	activePrescriptions, err := s.prescriptions.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregating prescriptions: %w", err)
	}

	return &HospitalAnalytics{
		UsersByRole:          usersByRole,
		AppointmentsByStatus: apptsByStatus,
		ActivePrescriptions:  activePrescriptions,
	}, nil
}
