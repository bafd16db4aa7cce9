package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/emedica/emedica-api/internal/domain/directory"
	"github.com/emedica/emedica-api/internal/domain/session"
)

// supervisorScope resolves the supervising doctor for a trainee caller.
// Trainees see the clinical rows of the doctor they are assigned to; a
// trainee without a supervisor is not assigned to any caseload.
func supervisorScope(ctx context.Context, users directory.Repository, caller *session.Session) (*uuid.UUID, error) {
	u, err := users.GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("resolving trainee: %w", err)
	}
	if u.SupervisorID == nil {
		return nil, ErrForbidden
	}
	return u.SupervisorID, nil
}
