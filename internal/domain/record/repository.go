package record

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new record. Records are immutable once written.
	Create(ctx context.Context, r *MedicalRecord) error

	GetByID(ctx context.Context, id uuid.UUID) (*MedicalRecord, error)
	List(ctx context.Context, q *ListRecordsQuery) (*PagedRecords, error)
}
