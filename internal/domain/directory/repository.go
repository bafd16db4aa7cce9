package directory

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new user. Returns ErrEmailTaken / ErrPhoneTaken on
	// duplicate identifiers.
	Create(ctx context.Context, u *User) error

	// GetByID retrieves a user by primary key. Returns ErrUserNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByPhone retrieves a user by normalized phone number.
	GetByPhone(ctx context.Context, phone string) (*User, error)

	// List returns a paginated, filtered directory listing.
	List(ctx context.Context, q *ListUsersQuery) (*PagedUsers, error)

	// CountByRole returns the number of active users per role.
	CountByRole(ctx context.Context) (map[string]int64, error)

	// RecordLogin stamps last_login_at after a successful authentication.
	RecordLogin(ctx context.Context, id uuid.UUID) error
}
