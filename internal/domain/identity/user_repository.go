package identity

import (
	"context"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Save creates or updates a user
	Save(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindAll returns users matching the filter with the total count
	FindAll(ctx context.Context, filter UserFilter) ([]*User, int64, error)

	// ExistsByUsername checks if a username already exists
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// SaveLoginLog stores a login record
	SaveLoginLog(ctx context.Context, log *LoginLog) error
}

// UserFilter contains filter options for querying users
type UserFilter struct {
	shared.Filter
	Role   *Role
	Active *bool
}
