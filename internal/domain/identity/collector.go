package identity

import (
	"context"

	"github.com/cobranzas/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EnsureActiveCollector returns a validation error unless userID belongs to an
// active user with the COLLECTOR role
func EnsureActiveCollector(ctx context.Context, users UserRepository, userID uuid.UUID) error {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		if shared.IsNotFound(err) {
			return shared.NewValidationError("Collector does not exist")
		}
		return err
	}
	if user.Role != RoleCollector || !user.Active {
		return shared.NewValidationError("Assigned user must be an active collector")
	}
	return nil
}
