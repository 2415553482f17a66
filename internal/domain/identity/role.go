package identity

import "github.com/google/uuid"

// Role is the acting user's role
type Role string

const (
	RoleAdmin     Role = "ADMIN"     // Office staff, unrestricted
	RoleCollector Role = "COLLECTOR" // Field collector, scoped to assigned customers and sales
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleCollector
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// Actor is the authenticated user performing an operation
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// NewActor creates an actor
func NewActor(userID uuid.UUID, role Role) Actor {
	return Actor{UserID: userID, Role: role}
}

// IsAdmin returns true for administrators
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsCollector returns true for field collectors
func (a Actor) IsCollector() bool {
	return a.Role == RoleCollector
}
