// Package auth holds the role rules that decide who may act on which record.
package auth

import (
	"github.com/google/uuid"

	"github.com/EvilEvan/PvtClass-tracker/internal/app/models"
	"github.com/EvilEvan/PvtClass-tracker/internal/pkg/apperrors"
)

// Actor is the authenticated caller of an operation
type Actor struct {
	ID    uuid.UUID
	Email string
	Role  models.RoleType
}

// IsAdmin reports whether the actor is an administrator
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// HasRole reports whether the actor holds one of roles
func (a Actor) HasRole(roles ...models.RoleType) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// creatable lists the roles each role may create accounts for
var creatable = map[models.RoleType][]models.RoleType{
	models.RoleAdmin:     {models.RoleAdmin, models.RoleModerator, models.RoleTeacher},
	models.RoleModerator: {models.RoleTeacher},
}

// CreatableRoles returns the roles creator may assign to new accounts
func CreatableRoles(creator models.RoleType) []models.RoleType {
	return creatable[creator]
}

// CanCreateRole reports whether creator may create an account with role target
func CanCreateRole(creator, target models.RoleType) bool {
	for _, r := range creatable[creator] {
		if r == target {
			return true
		}
	}
	return false
}

// ValidateCreateRole returns ErrPermissionDenied when creator may not create target
func ValidateCreateRole(creator, target models.RoleType) error {
	if !target.Valid() {
		return apperrors.ErrInvalidRole
	}
	if !CanCreateRole(creator, target) {
		return apperrors.NewForbiddenError("role " + creator.String() + " cannot create " + target.String() + " accounts")
	}
	return nil
}

// CanManageRecords reports whether the role may create, edit or delete students,
// classrooms and sessions
func CanManageRecords(role models.RoleType) bool {
	return role == models.RoleAdmin || role == models.RoleModerator
}

// CanChangePassword reports whether actor may set the password of user targetID
func CanChangePassword(actor Actor, targetID uuid.UUID) bool {
	return actor.ID == targetID || actor.IsAdmin()
}

// ValidateSessionConfirmation checks that actor may confirm s. Teachers may only confirm
// their own sessions and nobody may confirm a cancelled one.
func ValidateSessionConfirmation(actor Actor, s *models.Session) error {
	switch {
	case actor.HasRole(models.RoleAdmin, models.RoleModerator):
	case actor.Role == models.RoleTeacher && s.TeacherID == actor.ID:
	default:
		return apperrors.NewForbiddenError("you can only confirm your own sessions")
	}

	if s.Status == models.SessionCancelled {
		return apperrors.ErrSessionCancelled
	}
	return nil
}

// CanReceiveLiveEvents reports whether the role may open the live event feed
func CanReceiveLiveEvents(role models.RoleType) bool {
	return role == models.RoleAdmin || role == models.RoleModerator || role == models.RoleTeacher
}
