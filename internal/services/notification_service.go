package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/repositories"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/pkg/apperrors"
)

// Pusher delivers a payload to the live connections of a user.
type Pusher interface {
	PushToUser(userID string, payload interface{}) bool
}

// Notice is one notification to deliver.
type Notice struct {
	UserID  string
	Type    models.NotificationType
	Title   string
	Message string
	Data    map[string]interface{}
	// Link is a frontend path used in emails.
	Link string
}

type NotificationService interface {
	// Notify honours the recipient preferences. It returns nil when in-app
	// notifications are disabled for the user.
	Notify(ctx context.Context, db *gorm.DB, notice Notice) (*models.Notification, error)

	List(db *gorm.DB, userID string, req *dto.NotificationListRequest) (*dto.ListResponse[models.Notification], error)
	UnreadCount(db *gorm.DB, userID string) (int64, error)
	MarkAsRead(db *gorm.DB, userID, notificationID string) error
	MarkAllAsRead(db *gorm.DB, userID string) (int64, error)
	Delete(db *gorm.DB, userID, notificationID string) error
}

type NotificationServiceImpl struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	pusher           Pusher
	emails           EmailService
	// emails go out in the background unless disabled in tests
	async bool
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	pusher Pusher,
	emails EmailService,
) NotificationService {
	return &NotificationServiceImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		pusher:           pusher,
		emails:           emails,
		async:            true,
	}
}

// wsMessage is the frame pushed over the websocket hub.
type wsMessage struct {
	Event        string               `json:"event"`
	Notification *models.Notification `json:"notification"`
}

func (s *NotificationServiceImpl) Notify(ctx context.Context, db *gorm.DB, notice Notice) (*models.Notification, error) {
	user, err := s.userRepo.FindByID(db, notice.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	prefs := user.Preferences.Data()

	if prefs.EmailNotifications && notice.Type.Emailable() && s.emails != nil {
		s.sendEmail(ctx, user, notice)
	}

	if !prefs.InAppNotifications {
		logger.CtxDebug(ctx, "In-app notifications disabled, skipping", "user_id", user.ID, "type", notice.Type)
		return nil, nil
	}

	n := &models.Notification{
		UserID:  notice.UserID,
		Type:    notice.Type,
		Title:   notice.Title,
		Message: notice.Message,
	}
	if len(notice.Data) > 0 {
		n.Data = datatypes.JSONMap(notice.Data)
	}
	if err := s.notificationRepo.Create(db, n); err != nil {
		return nil, apperrors.InternalError(err)
	}

	if s.pusher != nil {
		s.pusher.PushToUser(n.UserID, wsMessage{Event: "notification", Notification: n})
	}
	return n, nil
}

func (s *NotificationServiceImpl) sendEmail(ctx context.Context, user *models.User, notice Notice) {
	send := func(ctx context.Context) {
		if err := s.emails.SendNotification(ctx, user, notice.Title, notice.Message, notice.Link); err != nil {
			logger.CtxWithError(ctx, "Notification email failed", err, "user_id", user.ID, "type", notice.Type)
		}
	}
	if !s.async {
		send(ctx)
		return
	}
	go send(context.WithoutCancel(ctx))
}

func (s *NotificationServiceImpl) List(db *gorm.DB, userID string, req *dto.NotificationListRequest) (*dto.ListResponse[models.Notification], error) {
	req.Normalize()
	items, total, err := s.notificationRepo.FindByUser(db, userID, req.UnreadOnly, req.Page, req.PageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewListResponse(items, req.Page, req.PageSize, total), nil
}

func (s *NotificationServiceImpl) UnreadCount(db *gorm.DB, userID string) (int64, error) {
	count, err := s.notificationRepo.CountUnread(db, userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

func (s *NotificationServiceImpl) MarkAsRead(db *gorm.DB, userID, notificationID string) error {
	n, err := s.findOwned(db, userID, notificationID)
	if err != nil {
		return err
	}
	if n.IsRead {
		return nil
	}
	if err := s.notificationRepo.MarkAsRead(db, n.ID, time.Now().UTC()); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

func (s *NotificationServiceImpl) MarkAllAsRead(db *gorm.DB, userID string) (int64, error) {
	updated, err := s.notificationRepo.MarkAllAsRead(db, userID, time.Now().UTC())
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return updated, nil
}

func (s *NotificationServiceImpl) Delete(db *gorm.DB, userID, notificationID string) error {
	n, err := s.findOwned(db, userID, notificationID)
	if err != nil {
		return err
	}
	if err := s.notificationRepo.Delete(db, n.ID); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// findOwned hides notifications of other users behind a 404.
func (s *NotificationServiceImpl) findOwned(db *gorm.DB, userID, notificationID string) (*models.Notification, error) {
	n, err := s.notificationRepo.FindByID(db, notificationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, apperrors.InternalError(err)
	}
	if n.UserID != userID {
		return nil, apperrors.ErrNotificationNotFound
	}
	return n, nil
}
