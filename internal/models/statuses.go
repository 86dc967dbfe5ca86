package models

type UserStatus string
type UserRole string
type JobType string
type ApplicationStatus string
type ItemStatus string
type SubscriptionStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"

	UserRoleUser      UserRole = "user"
	UserRoleAdmin     UserRole = "admin"
	UserRoleEmployeur UserRole = "employeur"
	UserRoleEtudiant  UserRole = "etudiant"
	UserRoleAnnonceur UserRole = "annonceur"
	UserRoleRecruteur UserRole = "recruteur"

	JobTypeFullTime   JobType = "full_time"
	JobTypePartTime   JobType = "part_time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
	JobTypeFreelance  JobType = "freelance"

	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusReviewed ApplicationStatus = "reviewed"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"

	ItemStatusPending   ItemStatus = "pending"
	ItemStatusApproved  ItemStatus = "approved"
	ItemStatusRejected  ItemStatus = "rejected"
	ItemStatusSuspended ItemStatus = "suspended"

	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

var AllUserRoles = []UserRole{
	UserRoleUser, UserRoleAdmin, UserRoleEmployeur,
	UserRoleEtudiant, UserRoleAnnonceur, UserRoleRecruteur,
}

func (r UserRole) IsValid() bool {
	for _, role := range AllUserRoles {
		if r == role {
			return true
		}
	}
	return false
}

// CanPostJobs reports whether the role may create job postings.
func (r UserRole) CanPostJobs() bool {
	return r == UserRoleAdmin || r == UserRoleRecruteur || r == UserRoleEmployeur
}

func (t JobType) IsValid() bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship, JobTypeFreelance:
		return true
	}
	return false
}

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusReviewed, ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	}
	return false
}

func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPending, ItemStatusApproved, ItemStatusRejected, ItemStatusSuspended:
		return true
	}
	return false
}
