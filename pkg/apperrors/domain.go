package apperrors

import (
	"net/http"
)

// =========================================================================
// Factories
// =========================================================================

// ErrNotFound wraps a repository "not found" error.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists wraps a unique-constraint style error.
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusBadRequest)
}

// =========================================================================
// Auth & users
// =========================================================================

var ErrInsufficientPermissions = New(
	CodeForbidden,
	"auth",
	"Insufficient permissions",
	http.StatusForbidden,
)

var ErrCannotModifySelf = New(
	CodeForbidden,
	"user",
	"Operation on self is not allowed",
	http.StatusForbidden,
)

var ErrInvalidUserRole = New(
	CodeInvalidOperation,
	"user",
	"Invalid user role for this operation",
	http.StatusBadRequest,
)

var ErrWeakPassword = New(
	CodeValidationFailed,
	"validation",
	"Password is too weak. Minimum 6 characters required.",
	http.StatusBadRequest,
)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

var ErrPhoneAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Phone number already in use",
	http.StatusConflict,
)

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

// ErrInvalidToken covers access and refresh tokens.
var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

// ErrInvalidResetToken covers verification and password reset tokens,
// which arrive in a request body rather than as credentials.
var ErrInvalidResetToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired reset token",
	http.StatusBadRequest,
)

var ErrInvalidVerificationToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid verification token",
	http.StatusBadRequest,
)

var ErrTooManyResetRequests = New(
	CodeLimitExceeded,
	"auth",
	"Too many password reset requests, try again later",
	http.StatusTooManyRequests,
)

var ErrUserSuspended = New(
	CodeForbidden,
	"auth",
	"Your account has been suspended",
	http.StatusForbidden,
)

var ErrUserNotFound = New(
	CodeNotFound,
	"user",
	"User not found",
	http.StatusNotFound,
)

// =========================================================================
// Jobs
// =========================================================================

var ErrJobNotFound = New(
	CodeNotFound,
	"job",
	"Job not found",
	http.StatusNotFound,
)

var ErrJobClosed = New(
	CodeInvalidStatus,
	"job",
	"This job is no longer accepting applications",
	http.StatusBadRequest,
)

var ErrCannotApplyOwnJob = New(
	CodeInvalidOperation,
	"job",
	"You cannot apply to your own job posting",
	http.StatusBadRequest,
)

var ErrAlreadyApplied = New(
	CodeAlreadyExists,
	"job",
	"You have already applied to this job",
	http.StatusConflict,
)

var ErrApplicationNotFound = New(
	CodeNotFound,
	"job",
	"Application not found",
	http.StatusNotFound,
)

// =========================================================================
// Marketplace & uploads
// =========================================================================

var ErrItemNotFound = New(
	CodeNotFound,
	"marketplace",
	"Marketplace item not found",
	http.StatusNotFound,
)

var ErrAlreadyReported = New(
	CodeAlreadyExists,
	"marketplace",
	"You have already reported this item",
	http.StatusConflict,
)

var ErrCannotReportOwnItem = New(
	CodeInvalidOperation,
	"marketplace",
	"You cannot report your own item",
	http.StatusBadRequest,
)

var ErrTooManyImages = New(
	CodeLimitExceeded,
	"marketplace",
	"Maximum number of images reached for this item",
	http.StatusBadRequest,
)

var ErrImageNotFound = New(
	CodeNotFound,
	"marketplace",
	"Image not found",
	http.StatusNotFound,
)

var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"validation",
	"File size exceeds the allowed limit",
	http.StatusRequestEntityTooLarge,
)

var ErrInvalidFileType = New(
	CodeValidationFailed,
	"validation",
	"The provided file type is not allowed",
	http.StatusUnsupportedMediaType,
)

// =========================================================================
// Subscriptions & payments
// =========================================================================

var ErrSubscriptionRequired = New(
	CodeSubscriptionNeeded,
	"subscription",
	"An active subscription is required for this action",
	http.StatusForbidden,
)

var ErrSubscriptionNotFound = New(
	CodeNotFound,
	"subscription",
	"Subscription not found",
	http.StatusNotFound,
)

var ErrNoActiveSubscription = New(
	CodeNotFound,
	"subscription",
	"No active subscription",
	http.StatusNotFound,
)

var ErrSubscriptionNotActive = New(
	CodeInvalidStatus,
	"subscription",
	"Subscription is not active",
	http.StatusBadRequest,
)

var ErrPlanNotFound = New(
	CodeNotFound,
	"subscription",
	"Subscription plan not found",
	http.StatusNotFound,
)

var ErrInvalidPaymentAmount = New(
	CodeConflict,
	"payment",
	"Invalid payment amount",
	http.StatusConflict,
)

var ErrInvalidWebhookSignature = New(
	CodeUnauthorized,
	"payment",
	"Invalid webhook signature",
	http.StatusUnauthorized,
)

// ErrPaymentGateway is returned when CinetPay cannot be reached or refuses a request.
var ErrPaymentGateway = New(
	CodeExternalServiceError,
	"payment",
	"Payment provider error",
	http.StatusServiceUnavailable,
)

// =========================================================================
// Notifications & forum
// =========================================================================

var ErrNotificationNotFound = New(
	CodeNotFound,
	"notification",
	"Notification not found",
	http.StatusNotFound,
)

var ErrTopicNotFound = New(
	CodeNotFound,
	"forum",
	"Topic not found",
	http.StatusNotFound,
)

var ErrReplyNotFound = New(
	CodeNotFound,
	"forum",
	"Reply not found",
	http.StatusNotFound,
)
