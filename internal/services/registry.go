package services

// ServiceContainer holds every application service.
type ServiceContainer struct {
	AuthService         AuthService
	UserService         UserService
	JobService          JobService
	MarketplaceService  MarketplaceService
	SubscriptionService SubscriptionService
	NotificationService NotificationService
	ForumService        ForumService
	EmailService        EmailService
}
