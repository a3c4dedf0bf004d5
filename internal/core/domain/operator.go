package domain

import "time"

// Role represents a console operator role.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAnalyst  Role = "analyst"
	RoleEmployee Role = "employee"
)

// Valid reports whether the role is one the console knows.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAnalyst, RoleEmployee:
		return true
	}
	return false
}

// Operator account approval status. New operators start pending and must be
// approved by an admin before the console serves them.
const (
	OperatorPending  = "pending"
	OperatorApproved = "approved"
	OperatorRejected = "rejected"
)

// Operator represents a console operator in the domain layer.
type Operator struct {
	ID          uint
	UID         string // identity in the core-banking backend
	Email       string
	DisplayName string
	Password    string // hashed
	Role        Role
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RefreshToken represents a stored refresh token in the domain.
type RefreshToken struct {
	ID         uint
	OperatorID uint
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	RevokedAt  *time.Time
}
