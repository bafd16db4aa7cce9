package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	List(ctx context.Context, q *ListPrescriptionsQuery) (*PagedPrescriptions, error)
	Update(ctx context.Context, p *Prescription) error

	// CountActive feeds the analytics page.
	CountActive(ctx context.Context) (int64, error)
}
