package services

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/repositories"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/pkg/apperrors"
)

type UserService interface {
	ListUsers(db *gorm.DB, req *dto.UserListRequest) (*dto.ListResponse[*dto.UserResponse], error)
	GetUser(db *gorm.DB, actor Actor, userID string) (*dto.UserResponse, error)
	UpdateUser(ctx context.Context, db *gorm.DB, actor Actor, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	UpdateRole(ctx context.Context, db *gorm.DB, actor Actor, userID string, role models.UserRole) (*dto.UserResponse, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, actor Actor, userID string, status models.UserStatus) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, db *gorm.DB, actor Actor, userID string) error

	GetPreferences(db *gorm.DB, userID string) (*models.UserPreferences, error)
	UpdatePreferences(db *gorm.DB, userID string, req *dto.UpdatePreferencesRequest) (*models.UserPreferences, error)
}

type UserServiceImpl struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
}

func NewUserService(userRepo repositories.UserRepository, refreshTokenRepo repositories.RefreshTokenRepository) UserService {
	return &UserServiceImpl{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
	}
}

func (s *UserServiceImpl) ListUsers(db *gorm.DB, req *dto.UserListRequest) (*dto.ListResponse[*dto.UserResponse], error) {
	req.Normalize()
	users, total, err := s.userRepo.FindWithFilter(db, repositories.UserFilter{
		Role:     req.Role,
		Status:   req.Status,
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	items := make([]*dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return dto.NewListResponse(items, req.Page, req.PageSize, total), nil
}

func (s *UserServiceImpl) GetUser(db *gorm.DB, actor Actor, userID string) (*dto.UserResponse, error) {
	if !actor.CanModify(userID) {
		return nil, apperrors.ErrInsufficientPermissions
	}
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleUserError(err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *UserServiceImpl) UpdateUser(ctx context.Context, db *gorm.DB, actor Actor, userID string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if !actor.CanModify(userID) {
		return nil, apperrors.ErrInsufficientPermissions
	}
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleUserError(err)
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Phone != nil {
		if *req.Phone == "" {
			user.Phone = nil
		} else {
			user.Phone = strPtr(canonicalPhone(*req.Phone))
		}
	}

	if err := s.userRepo.Update(db, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrPhoneAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "User updated", "target_user_id", userID)
	return dto.NewUserResponse(user), nil
}

func (s *UserServiceImpl) UpdateRole(ctx context.Context, db *gorm.DB, actor Actor, userID string, role models.UserRole) (*dto.UserResponse, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrInsufficientPermissions
	}
	if actor.UserID == userID {
		return nil, apperrors.ErrCannotModifySelf
	}
	if !role.IsValid() {
		return nil, apperrors.ErrInvalidUserRole
	}

	if err := s.userRepo.UpdateFields(db, userID, map[string]interface{}{"role": role}); err != nil {
		return nil, handleUserError(err)
	}
	logger.CtxInfo(ctx, "User role changed", "target_user_id", userID, "role", role)
	return s.reload(db, userID)
}

// UpdateStatus suspends or reactivates an account. Suspension revokes refresh tokens.
func (s *UserServiceImpl) UpdateStatus(ctx context.Context, db *gorm.DB, actor Actor, userID string, status models.UserStatus) (*dto.UserResponse, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.ErrInsufficientPermissions
	}
	if actor.UserID == userID {
		return nil, apperrors.ErrCannotModifySelf
	}
	if status != models.UserStatusActive && status != models.UserStatusSuspended {
		return nil, apperrors.ErrInvalidStatus("user", "Unknown user status")
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.UpdateFields(tx, userID, map[string]interface{}{"status": status}); err != nil {
			return err
		}
		if status == models.UserStatusSuspended {
			return s.refreshTokenRepo.DeleteByUserID(tx, userID)
		}
		return nil
	})
	if err != nil {
		return nil, handleUserError(err)
	}
	logger.CtxInfo(ctx, "User status changed", "target_user_id", userID, "status", status)
	return s.reload(db, userID)
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, db *gorm.DB, actor Actor, userID string) error {
	if !actor.CanModify(userID) {
		return apperrors.ErrInsufficientPermissions
	}
	if err := s.userRepo.Delete(db, userID); err != nil {
		return handleUserError(err)
	}
	logger.CtxInfo(ctx, "User deleted", "target_user_id", userID)
	return nil
}

func (s *UserServiceImpl) GetPreferences(db *gorm.DB, userID string) (*models.UserPreferences, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleUserError(err)
	}
	prefs := user.Preferences.Data()
	return &prefs, nil
}

func (s *UserServiceImpl) UpdatePreferences(db *gorm.DB, userID string, req *dto.UpdatePreferencesRequest) (*models.UserPreferences, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleUserError(err)
	}

	prefs := user.Preferences.Data()
	if prefs.Language == "" {
		prefs = models.DefaultPreferences()
	}
	if req.EmailNotifications != nil {
		prefs.EmailNotifications = *req.EmailNotifications
	}
	if req.InAppNotifications != nil {
		prefs.InAppNotifications = *req.InAppNotifications
	}
	if req.Language != nil {
		prefs.Language = *req.Language
	}
	if req.JobAlerts != nil {
		prefs.JobAlerts = req.JobAlerts
	}

	err = s.userRepo.UpdateFields(db, userID, map[string]interface{}{
		"preferences": datatypes.NewJSONType(prefs),
	})
	if err != nil {
		return nil, handleUserError(err)
	}
	return &prefs, nil
}

func (s *UserServiceImpl) reload(db *gorm.DB, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleUserError(err)
	}
	return dto.NewUserResponse(user), nil
}
