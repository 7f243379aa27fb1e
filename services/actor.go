package services

import "eteeap-portfolio-api/models"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID uint
	Role   models.Role
}

func (a Actor) IsAdmin() bool      { return a.Role.IsAdministrative() }
func (a Actor) IsApplicant() bool  { return a.Role == models.RoleApplicant }
func (a Actor) IsEvaluator() bool  { return a.Role == models.RoleEvaluator }
func (a Actor) IsSuperAdmin() bool { return a.Role == models.RoleSuperAdmin }
