package auth

import "businessconnect_backend/internal/models"

// IsAdmin reports whether role is the admin role.
func IsAdmin(role string) bool {
	return models.UserRole(role) == models.UserRoleAdmin
}

// CanModify allows the owner of a resource and admins.
func CanModify(ownerID, userID, role string) bool {
	if IsAdmin(role) {
		return true
	}
	return ownerID != "" && ownerID == userID
}

// CanPostJobs mirrors models.UserRole.CanPostJobs for string roles coming from claims.
func CanPostJobs(role string) bool {
	return models.UserRole(role).CanPostJobs()
}

// AssignableAtRegistration lists the roles a visitor may pick when signing up.
func AssignableAtRegistration(role models.UserRole) bool {
	return role.IsValid() && role != models.UserRoleAdmin
}
