package repositories

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrJobNotFound          = errors.New("job not found")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrAlreadyApplied       = errors.New("already applied")
	ErrItemNotFound         = errors.New("marketplace item not found")
	ErrAlreadyReported      = errors.New("item already reported by user")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// isDuplicateKey covers drivers that do not translate unique violations.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate")
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// likeEscape works on postgres, mysql and sqlite alike.
const likeEscape = " ESCAPE '!'"

// containsPattern builds a case-insensitive LIKE pattern, escaping wildcards in s.
func containsPattern(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(s))) + "%"
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
