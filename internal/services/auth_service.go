package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"businessconnect_backend/internal/auth"
	"businessconnect_backend/internal/cache"
	"businessconnect_backend/internal/events"
	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/repositories"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/internal/sms"
	"businessconnect_backend/pkg/apperrors"
)

const (
	resetTokenTTL      = time.Hour
	resetRequestsLimit = 3
	resetCodeDigits    = 6
	resetLinkMinLength = 32
	// a code is burned after this many wrong guesses
	resetMaxAttempts = 5
)

type AuthService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, db *gorm.DB, refreshToken string) (*dto.AuthResponse, error)
	Logout(ctx context.Context, db *gorm.DB, claims *dto.AccessClaims, refreshToken string) error
	Me(db *gorm.DB, userID string) (*dto.UserResponse, error)
	VerifyEmail(ctx context.Context, db *gorm.DB, token string) error
	ForgotPassword(ctx context.Context, db *gorm.DB, req *dto.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, db *gorm.DB, req *dto.ResetPasswordRequest) error
	ChangePassword(ctx context.Context, db *gorm.DB, userID string, req *dto.ChangePasswordRequest) error

	// ValidateAccessToken is used by the auth middleware and the websocket endpoint.
	ValidateAccessToken(ctx context.Context, token string) (*dto.AccessClaims, error)
}

type AuthServiceImpl struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	jwt              *auth.JWTService
	tokenStore       *auth.TokenStore
	cache            *cache.Client
	emails           EmailService
	sms              sms.Sender
	publisher        events.Publisher
	refreshTTL       time.Duration
	async            bool
}

func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	jwtService *auth.JWTService,
	tokenStore *auth.TokenStore,
	cacheClient *cache.Client,
	emails EmailService,
	smsSender sms.Sender,
	publisher events.Publisher,
	refreshTTL time.Duration,
) AuthService {
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &AuthServiceImpl{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwt:              jwtService,
		tokenStore:       tokenStore,
		cache:            cacheClient,
		emails:           emails,
		sms:              smsSender,
		publisher:        publisher,
		refreshTTL:       refreshTTL,
		async:            true,
	}
}

// Register creates the account and signs the user in.
func (s *AuthServiceImpl) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.ErrWeakPassword
	}

	role := req.Role
	if role == "" {
		role = models.UserRoleUser
	}
	if !auth.AssignableAtRegistration(role) {
		return nil, apperrors.ErrInvalidUserRole
	}

	email := normalizeEmail(req.Email)
	if _, err := s.userRepo.FindByEmail(db, email); err == nil {
		return nil, apperrors.ErrEmailAlreadyExists
	} else if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.InternalError(err)
	}

	var phone *string
	if req.Phone != "" {
		phone = strPtr(canonicalPhone(req.Phone))
		if _, err := s.userRepo.FindByPhone(db, *phone); err == nil {
			return nil, apperrors.ErrPhoneAlreadyExists
		} else if !errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.InternalError(err)
		}
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	verificationToken, err := auth.GenerateRandomToken(32)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             email,
		Phone:             phone,
		PasswordHash:      hashed,
		Role:              role,
		Status:            models.UserStatusActive,
		VerificationToken: verificationToken,
		Preferences:       datatypes.NewJSONType(models.DefaultPreferences()),
	}

	var resp *dto.AuthResponse
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Create(tx, user); err != nil {
			return err
		}
		resp, err = s.issueTokens(tx, user)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "User registered", "user_id", user.ID, "role", user.Role)

	if s.emails != nil {
		detach(ctx, s.async, "verification_email", func(ctx context.Context) error {
			return s.emails.SendVerification(ctx, user, verificationToken)
		})
	}
	events.Emit(ctx, s.publisher, events.SubjectUserRegistered, map[string]interface{}{
		"userId": user.ID,
		"email":  user.Email,
		"role":   user.Role,
	})

	return resp, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var (
		user *models.User
		err  error
	)
	switch {
	case req.Email != "":
		user, err = s.userRepo.FindByEmail(db, normalizeEmail(req.Email))
	case req.Phone != "":
		user, err = s.userRepo.FindByPhone(db, canonicalPhone(req.Phone))
	default:
		return nil, apperrors.ValidationError(map[string]string{"email": "Email or phone is required"})
	}
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.CtxWarn(ctx, "Failed login attempt", "user_id", user.ID)
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.Status == models.UserStatusSuspended {
		return nil, apperrors.ErrUserSuspended
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(db, user.ID, now); err != nil {
		logger.CtxWithError(ctx, "Failed to update last login", err, "user_id", user.ID)
	}
	user.LastLoginAt = &now

	resp, err := s.issueTokens(db, user)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return resp, nil
}

// RefreshToken rotates the refresh token: the presented one is deleted and a
// new pair is issued. A token can be used once.
func (s *AuthServiceImpl) RefreshToken(ctx context.Context, db *gorm.DB, refreshToken string) (*dto.AuthResponse, error) {
	hash := auth.HashToken(refreshToken)

	var resp *dto.AuthResponse
	err := db.Transaction(func(tx *gorm.DB) error {
		stored, err := s.refreshTokenRepo.FindByHash(tx, hash)
		if err != nil {
			return err
		}
		if err := s.refreshTokenRepo.DeleteByHash(tx, hash); err != nil {
			return err
		}
		if time.Now().After(stored.ExpiresAt) {
			return apperrors.ErrInvalidToken
		}

		user, err := s.userRepo.FindByID(tx, stored.UserID)
		if err != nil {
			return err
		}
		if user.Status == models.UserStatusSuspended {
			return apperrors.ErrUserSuspended
		}

		resp, err = s.issueTokens(tx, user)
		return err
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrRefreshTokenNotFound), errors.Is(err, repositories.ErrUserNotFound):
			return nil, apperrors.ErrInvalidToken
		case errors.Is(err, apperrors.ErrInvalidToken), errors.Is(err, apperrors.ErrUserSuspended):
			return nil, err
		}
		return nil, apperrors.InternalError(err)
	}
	return resp, nil
}

func (s *AuthServiceImpl) Logout(ctx context.Context, db *gorm.DB, claims *dto.AccessClaims, refreshToken string) error {
	if refreshToken != "" {
		err := s.refreshTokenRepo.DeleteByHash(db, auth.HashToken(refreshToken))
		if err != nil && !errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			return apperrors.InternalError(err)
		}
	}
	if claims != nil {
		s.tokenStore.BlacklistAccessToken(ctx, claims.TokenID, time.Until(claims.ExpiresAt))
	}
	return nil
}

func (s *AuthServiceImpl) Me(db *gorm.DB, userID string) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return nil, handleUserError(err)
	}
	return dto.NewUserResponse(user), nil
}

func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, db *gorm.DB, token string) error {
	user, err := s.userRepo.FindByVerificationToken(db, token)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrInvalidVerificationToken
		}
		return apperrors.InternalError(err)
	}

	err = s.userRepo.UpdateFields(db, user.ID, map[string]interface{}{
		"is_verified":        true,
		"verification_token": "",
	})
	if err != nil {
		return apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "Email verified", "user_id", user.ID)
	return nil
}

// ForgotPassword never reveals whether the account exists.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, db *gorm.DB, req *dto.ForgotPasswordRequest) error {
	var (
		identifier string
		user       *models.User
		err        error
	)
	switch {
	case req.Email != "":
		identifier = normalizeEmail(req.Email)
		user, err = s.userRepo.FindByEmail(db, identifier)
	case req.Phone != "":
		identifier = canonicalPhone(req.Phone)
		user, err = s.userRepo.FindByPhone(db, identifier)
	default:
		return apperrors.ValidationError(map[string]string{"email": "Email or phone is required"})
	}

	if count, ok := s.cache.Incr(ctx, "password_reset:"+identifier, time.Hour); ok && count > resetRequestsLimit {
		return apperrors.ErrTooManyResetRequests
	}

	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			logger.CtxInfo(ctx, "Password reset requested for unknown account")
			return nil
		}
		return apperrors.InternalError(err)
	}

	viaSMS := req.Email == ""
	var token string
	if viaSMS {
		token, err = auth.GenerateNumericCode(resetCodeDigits)
	} else {
		token, err = auth.GenerateRandomToken(32)
	}
	if err != nil {
		return apperrors.InternalError(err)
	}

	expires := time.Now().UTC().Add(resetTokenTTL)
	err = s.userRepo.UpdateFields(db, user.ID, map[string]interface{}{
		"reset_token":         auth.HashToken(token),
		"reset_token_expires": expires,
		"reset_attempts":      0,
	})
	if err != nil {
		return apperrors.InternalError(err)
	}

	if viaSMS {
		detach(ctx, s.async, "password_reset_sms", func(ctx context.Context) error {
			msg := "BusinessConnect: votre code de réinitialisation est " + token + ". Il expire dans 1 heure."
			return s.sms.Send(ctx, identifier, msg)
		})
	} else if s.emails != nil {
		detach(ctx, s.async, "password_reset_email", func(ctx context.Context) error {
			return s.emails.SendPasswordReset(ctx, user, token, resetTokenTTL)
		})
	}

	logger.CtxInfo(ctx, "Password reset issued", "user_id", user.ID, "sms", viaSMS)
	return nil
}

func (s *AuthServiceImpl) ResetPassword(ctx context.Context, db *gorm.DB, req *dto.ResetPasswordRequest) error {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return apperrors.ErrWeakPassword
	}

	user, err := s.resetTarget(ctx, db, req)
	if err != nil {
		return err
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperrors.InternalError(err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.UpdateFields(tx, user.ID, map[string]interface{}{
			"password_hash":       hashed,
			"reset_token":         "",
			"reset_token_expires": nil,
			"reset_attempts":      0,
		}); err != nil {
			return err
		}
		return s.refreshTokenRepo.DeleteByUserID(tx, user.ID)
	})
	if err != nil {
		return apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "Password reset completed", "user_id", user.ID)
	return nil
}

// resetTarget resolves the account a reset token belongs to. SMS codes are
// short, so they are only accepted together with the identifier they were
// sent to, and a bounded number of wrong guesses burns the code.
func (s *AuthServiceImpl) resetTarget(ctx context.Context, db *gorm.DB, req *dto.ResetPasswordRequest) (*models.User, error) {
	tokenHash := auth.HashToken(req.Token)

	var (
		identifier string
		user       *models.User
		err        error
	)
	switch {
	case req.Phone != "":
		identifier = canonicalPhone(req.Phone)
		user, err = s.userRepo.FindByPhone(db, identifier)
	case req.Email != "":
		identifier = normalizeEmail(req.Email)
		user, err = s.userRepo.FindByEmail(db, identifier)
	default:
		if len(req.Token) < resetLinkMinLength {
			return nil, apperrors.ErrInvalidResetToken
		}
		user, err = s.userRepo.FindByResetToken(db, tokenHash)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidResetToken
		}
		return nil, apperrors.InternalError(err)
	}

	if identifier != "" {
		if count, ok := s.cache.Incr(ctx, "password_reset_attempts:"+identifier, resetTokenTTL); ok && count > resetMaxAttempts {
			return nil, apperrors.ErrTooManyResetRequests
		}
	}

	if user.ResetToken == "" || user.ResetTokenExpires == nil || time.Now().After(*user.ResetTokenExpires) {
		return nil, apperrors.ErrInvalidResetToken
	}
	if subtle.ConstantTimeCompare([]byte(user.ResetToken), []byte(tokenHash)) != 1 {
		s.recordResetFailure(ctx, db, user)
		return nil, apperrors.ErrInvalidResetToken
	}
	return user, nil
}

func (s *AuthServiceImpl) recordResetFailure(ctx context.Context, db *gorm.DB, user *models.User) {
	attempts, err := s.userRepo.IncrementResetAttempts(db, user.ID)
	if err != nil {
		logger.CtxWithError(ctx, "Failed to record reset attempt", err, "user_id", user.ID)
		return
	}
	if attempts < resetMaxAttempts {
		return
	}
	err = s.userRepo.UpdateFields(db, user.ID, map[string]interface{}{
		"reset_token":         "",
		"reset_token_expires": nil,
	})
	if err != nil {
		logger.CtxWithError(ctx, "Failed to revoke reset token", err, "user_id", user.ID)
		return
	}
	logger.CtxWarn(ctx, "Reset token revoked after repeated failures", "user_id", user.ID)
}

func (s *AuthServiceImpl) ChangePassword(ctx context.Context, db *gorm.DB, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		return handleUserError(err)
	}
	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		return apperrors.ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return apperrors.ErrWeakPassword
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.UpdateFields(tx, userID, map[string]interface{}{"password_hash": hashed}); err != nil {
			return err
		}
		return s.refreshTokenRepo.DeleteByUserID(tx, userID)
	})
	if err != nil {
		return apperrors.InternalError(err)
	}
	logger.CtxInfo(ctx, "Password changed", "user_id", userID)
	return nil
}

func (s *AuthServiceImpl) ValidateAccessToken(ctx context.Context, token string) (*dto.AccessClaims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	if s.tokenStore.IsAccessTokenBlacklisted(ctx, claims.ID) {
		return nil, apperrors.ErrInvalidToken
	}

	out := &dto.AccessClaims{
		UserID:  claims.UserID,
		Role:    models.UserRole(claims.Role),
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (s *AuthServiceImpl) issueTokens(db *gorm.DB, user *models.User) (*dto.AuthResponse, error) {
	access, claims, err := s.jwt.GenerateAccessToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	refresh, err := auth.GenerateRandomToken(32)
	if err != nil {
		return nil, err
	}
	err = s.refreshTokenRepo.Create(db, &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: auth.HashToken(refresh),
		ExpiresAt: time.Now().UTC().Add(s.refreshTTL),
	})
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    claims.ExpiresAt.Time,
		User:         dto.NewUserResponse(user),
	}, nil
}

func handleUserError(err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return apperrors.ErrUserNotFound
	}
	return apperrors.InternalError(err)
}
