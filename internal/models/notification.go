package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationJobApplication       NotificationType = "job_application"
	NotificationApplicationStatus    NotificationType = "application_status"
	NotificationItemModerated        NotificationType = "item_moderated"
	NotificationItemReported         NotificationType = "item_reported"
	NotificationSubscriptionActive   NotificationType = "subscription_activated"
	NotificationSubscriptionExpired  NotificationType = "subscription_expired"
	NotificationSubscriptionExpiring NotificationType = "subscription_expiring"
	NotificationForumReply           NotificationType = "forum_reply"
	NotificationSystem               NotificationType = "system"
)

// Emailable lists the types sent through the generic notification email when
// the user opted in. Activation and expiry reminders have their own templates.
func (t NotificationType) Emailable() bool {
	switch t {
	case NotificationSubscriptionExpired, NotificationApplicationStatus, NotificationItemModerated:
		return true
	}
	return false
}

type Notification struct {
	BaseModel
	UserID  string            `gorm:"type:varchar(36);not null;index" json:"userId"`
	Type    NotificationType  `gorm:"type:varchar(40);not null" json:"type"`
	Title   string            `gorm:"size:200;not null" json:"title"`
	Message string            `gorm:"type:text" json:"message"`
	Data    datatypes.JSONMap `json:"data,omitempty"`
	IsRead  bool              `gorm:"default:false;index" json:"isRead"`
	ReadAt  *time.Time        `json:"readAt,omitempty"`
}
