package models

import (
	"time"
)

// Role is the single access role carried by every account.
type Role string

const (
	RoleApplicant  Role = "applicant"
	RoleEvaluator  Role = "evaluator"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// AllRoles lists the roles in their display order.
var AllRoles = []Role{RoleApplicant, RoleEvaluator, RoleAdmin, RoleSuperAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// IsAdministrative is true for admin and super_admin.
func (r Role) IsAdministrative() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type User struct {
	UserID    uint      `gorm:"primaryKey;column:user_id" json:"user_id"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	Email     string    `gorm:"column:email;size:255;not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"column:password;size:255;not null" json:"-"`
	Role      Role      `gorm:"column:role;size:32;not null;index" json:"role"`
	Phone     *string   `gorm:"column:phone;size:50" json:"phone,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}
