package order

import "github.com/google/uuid"

// Role is the back-office role carried by the session token.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleSeller Role = "SELLER"
	RoleClient Role = "CLIENT"
)

// Actor is the authenticated party attempting a transition.
type Actor struct {
	ID    uuid.UUID
	Role  Role
	Email string
}

func (a Actor) IsAdmin() bool  { return a.Role == RoleAdmin }
func (a Actor) IsSeller() bool { return a.Role == RoleSeller }
func (a Actor) IsClient() bool { return a.Role == RoleClient }
