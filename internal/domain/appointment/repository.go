package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// UpdateStatus persists a status transition already validated by the domain.
	UpdateStatus(ctx context.Context, a *Appointment) error

	// CountByStatus feeds the analytics page.
	CountByStatus(ctx context.Context) (map[string]int64, error)
}
