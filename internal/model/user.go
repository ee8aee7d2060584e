package model

import (
	"time"

	"github.com/google/uuid"
)

// User role enum constants
const (
	RoleRequestor  = "requestor"
	RoleApprover   = "approver"
	RoleBoth       = "both"
	RoleManager    = "manager"
	RoleSuperAdmin = "super_admin"
)

// User represents the central user entity for logic and database structure
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Password     string    `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Role         string    `gorm:"type:varchar(50);not null" json:"role"`
	DepartmentID uuid.UUID `gorm:"type:uuid;not null;index" json:"department_id"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ValidRole reports whether role is one of the known role constants
func ValidRole(role string) bool {
	switch role {
	case RoleRequestor, RoleApprover, RoleBoth, RoleManager, RoleSuperAdmin:
		return true
	}
	return false
}

// CanApprove reports whether the role may act on approval steps
func CanApprove(role string) bool {
	switch role {
	case RoleApprover, RoleBoth, RoleManager, RoleSuperAdmin:
		return true
	}
	return false
}

// Actor is the authenticated identity passed explicitly into every core
// operation. Handlers build it from JWT claims; services never read ambient
// session state.
type Actor struct {
	ID           uuid.UUID
	Role         string
	DepartmentID uuid.UUID
}

// IsAdmin reports whether the actor holds the administrator role
func (a Actor) IsAdmin() bool {
	return a.Role == RoleSuperAdmin
}
