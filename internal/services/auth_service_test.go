package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"businessconnect_backend/internal/auth"
	"businessconnect_backend/internal/cache"
	"businessconnect_backend/internal/events"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/repositories"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/internal/testhelpers"
	"businessconnect_backend/pkg/apperrors"
)

type recordingSMS struct {
	mu       sync.Mutex
	messages map[string]string
}

func (s *recordingSMS) Send(_ context.Context, to, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.messages == nil {
		s.messages = make(map[string]string)
	}
	s.messages[to] = message
	return nil
}

func (s *recordingSMS) last(to string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages[to]
}

type authFixture struct {
	svc       *AuthServiceImpl
	db        *gorm.DB
	sms       *recordingSMS
	emails    *recordingProvider
	publisher *recordingPublisher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	return newAuthFixtureWithCache(t, nil)
}

func newAuthFixtureWithCache(t *testing.T, cacheClient *cache.Client) *authFixture {
	t.Helper()
	emailSvc, provider := newTestEmailService(t)
	smsSender := &recordingSMS{}
	publisher := &recordingPublisher{}

	svc := NewAuthService(
		repositories.NewUserRepository(),
		repositories.NewRefreshTokenRepository(),
		auth.NewJWTService("test-secret-test-secret-test-secret", 15*time.Minute),
		auth.NewTokenStore(cacheClient),
		cacheClient,
		emailSvc,
		smsSender,
		publisher,
		time.Hour,
	).(*AuthServiceImpl)
	svc.async = false

	return &authFixture{svc: svc, db: testhelpers.NewTestDB(t), sms: smsSender, emails: provider, publisher: publisher}
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Register(ctx, f.db, &dto.RegisterRequest{
		FirstName: "Aminata",
		LastName:  "Sow",
		Email:     "  Aminata.Sow@Example.SN ",
		Password:  "secret12",
		Phone:     "77 123 45 67",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "aminata.sow@example.sn", resp.User.Email)
	assert.Equal(t, models.UserRoleUser, resp.User.Role)
	assert.Equal(t, []string{"Confirmez votre adresse email"}, f.emails.subjects())
	assert.Equal(t, []string{events.SubjectUserRegistered}, f.publisher.published())

	claims, err := f.svc.ValidateAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = f.svc.Register(ctx, f.db, &dto.RegisterRequest{FirstName: "X", Email: "aminata.sow@example.sn", Password: "secret12"})
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)

	_, err = f.svc.Register(ctx, f.db, &dto.RegisterRequest{FirstName: "X", Email: "x@example.sn", Password: "secret12", Phone: "+221771234567"})
	assert.ErrorIs(t, err, apperrors.ErrPhoneAlreadyExists)

	_, err = f.svc.Register(ctx, f.db, &dto.RegisterRequest{FirstName: "X", Email: "boss@example.sn", Password: "secret12", Role: models.UserRoleAdmin})
	assert.ErrorIs(t, err, apperrors.ErrInvalidUserRole)

	_, err = f.svc.Login(ctx, f.db, &dto.LoginRequest{Email: "aminata.sow@example.sn", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	byPhone, err := f.svc.Login(ctx, f.db, &dto.LoginRequest{Phone: "771234567", Password: "secret12"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, byPhone.User.ID)
	assert.NotNil(t, byPhone.User.LastLoginAt)
}

func TestAuth_LoginRejectsSuspended(t *testing.T) {
	f := newAuthFixture(t)
	testhelpers.CreateUser(t, f.db, &models.User{Email: "banni@test.sn", PasswordHash: "secret12", Status: models.UserStatusSuspended})

	_, err := f.svc.Login(context.Background(), f.db, &dto.LoginRequest{Email: "banni@test.sn", Password: "secret12"})
	assert.ErrorIs(t, err, apperrors.ErrUserSuspended)
}

func TestAuth_RefreshTokenRotation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	testhelpers.CreateUser(t, f.db, &models.User{Email: "rotation@test.sn", PasswordHash: "secret12"})

	login, err := f.svc.Login(ctx, f.db, &dto.LoginRequest{Email: "rotation@test.sn", Password: "secret12"})
	require.NoError(t, err)

	rotated, err := f.svc.RefreshToken(ctx, f.db, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	_, err = f.svc.RefreshToken(ctx, f.db, login.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "a refresh token is single use")

	require.NoError(t, f.svc.Logout(ctx, f.db, nil, rotated.RefreshToken))
	_, err = f.svc.RefreshToken(ctx, f.db, rotated.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

func TestAuth_PasswordResetBySMS(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	phone := "781112233"
	user := testhelpers.CreateUser(t, f.db, &models.User{Email: "sms@test.sn", Phone: &phone, PasswordHash: "ancien123"})

	login, err := f.svc.Login(ctx, f.db, &dto.LoginRequest{Email: "sms@test.sn", Password: "ancien123"})
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, f.db, &dto.ForgotPasswordRequest{Phone: "+221 78 111 22 33"}))
	match := codePattern.FindStringSubmatch(f.sms.last(phone))
	require.Len(t, match, 2, "the SMS carries a six digit code")

	// unknown accounts look the same to the caller
	require.NoError(t, f.svc.ForgotPassword(ctx, f.db, &dto.ForgotPasswordRequest{Email: "personne@test.sn"}))

	err = f.svc.ResetPassword(ctx, f.db, &dto.ResetPasswordRequest{Token: "000000x", Phone: phone, Password: "nouveau123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidResetToken)

	err = f.svc.ResetPassword(ctx, f.db, &dto.ResetPasswordRequest{Token: match[1], Password: "nouveau123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidResetToken, "a code alone does not identify the account")

	require.NoError(t, f.svc.ResetPassword(ctx, f.db, &dto.ResetPasswordRequest{Token: match[1], Phone: "+221 78 111 22 33", Password: "nouveau123"}))

	_, err = f.svc.Login(ctx, f.db, &dto.LoginRequest{Email: "sms@test.sn", Password: "ancien123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, f.db, &dto.LoginRequest{Email: user.Email, Password: "nouveau123"})
	assert.NoError(t, err)

	_, err = f.svc.RefreshToken(ctx, f.db, login.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "a reset signs out every session")

	err = f.svc.ResetPassword(ctx, f.db, &dto.ResetPasswordRequest{Token: match[1], Phone: phone, Password: "encore123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidResetToken, "codes are single use")
}

func TestAuth_ResetCodeBoundToPhone(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	victimPhone, otherPhone := "771234567", "701234567"
	testhelpers.CreateUser(t, f.db, &models.User{Email: "victime@test.sn", Phone: &victimPhone, PasswordHash: "ancien123"})
	testhelpers.CreateUser(t, f.db, &models.User{Email: "autre@test.sn", Phone: &otherPhone, PasswordHash: "ancien123"})

	require.NoError(t, f.svc.ForgotPassword(ctx, f.db, &dto.ForgotPasswordRequest{Phone: victimPhone}))
	code := codePattern.FindStringSubmatch(f.sms.last(victimPhone))
	require.Len(t, code, 2)

	err := f.svc.ResetPassword(ctx, f.db, &dto.ResetPasswordRequest{Token: code[1], Phone: otherPhone, Password: "pirate123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidResetToken, "the code only works for the phone it was sent to")
	err = f.svc.ResetPassword(ctx, f.db, &dto.ResetPasswordRequest{Token: code[1], Email: "autre@test.sn", Password: "pirate123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidResetToken)
}

func TestAuth_ResetCodeBurnedAfterFailures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	phone := "771234567"
	testhelpers.CreateUser(t, f.db, &models.User{Email: "cible@test.sn", Phone: &phone, PasswordHash: "ancien123"})

	require.NoError(t, f.svc.ForgotPassword(ctx, f.db, &dto.ForgotPasswordRequest{Phone: phone}))
	code := codePattern.FindStringSubmatch(f.sms.last(phone))
	require.Len(t, code, 2)

	wrong := "000000"
	if code[1] == wrong {
		wrong = "111111"
	}
	for i := 0; i < resetMaxAttempts; i++ {
		err := f.svc.ResetPassword(ctx, f.db, &dto.ResetPasswordRequest{Token: wrong, Phone: phone, Password: "pirate123"})
		require.ErrorIs(t, err, apperrors.ErrInvalidResetToken)
	}

	err := f.svc.ResetPassword(ctx, f.db, &dto.ResetPasswordRequest{Token: code[1], Phone: phone, Password: "nouveau123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidResetToken, "the right code is refused once the attempts are used up")

	_, err = f.svc.Login(ctx, f.db, &dto.LoginRequest{Phone: phone, Password: "ancien123"})
	assert.NoError(t, err)

	// a fresh code starts a fresh attempt budget
	require.NoError(t, f.svc.ForgotPassword(ctx, f.db, &dto.ForgotPasswordRequest{Phone: phone}))
	code = codePattern.FindStringSubmatch(f.sms.last(phone))
	require.Len(t, code, 2)
	require.NoError(t, f.svc.ResetPassword(ctx, f.db, &dto.ResetPasswordRequest{Token: code[1], Phone: phone, Password: "nouveau123"}))
}

func TestAuth_RedisBackedLimitsAndBlacklist(t *testing.T) {
	f := newAuthFixtureWithCache(t, testhelpers.NewTestRedis(t))
	ctx := context.Background()
	phone := "761234567"
	testhelpers.CreateUser(t, f.db, &models.User{Email: "redis@test.sn", Phone: &phone, PasswordHash: "ancien123"})

	for i := 0; i < resetRequestsLimit; i++ {
		require.NoError(t, f.svc.ForgotPassword(ctx, f.db, &dto.ForgotPasswordRequest{Phone: phone}))
	}
	err := f.svc.ForgotPassword(ctx, f.db, &dto.ForgotPasswordRequest{Phone: phone})
	assert.ErrorIs(t, err, apperrors.ErrTooManyResetRequests)
	err = f.svc.ForgotPassword(ctx, f.db, &dto.ForgotPasswordRequest{Email: "inconnu@test.sn"})
	assert.NoError(t, err, "the limit is per identifier")

	login, err := f.svc.Login(ctx, f.db, &dto.LoginRequest{Phone: phone, Password: "ancien123"})
	require.NoError(t, err)
	claims, err := f.svc.ValidateAccessToken(ctx, login.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, f.db, claims, login.RefreshToken))
	_, err = f.svc.ValidateAccessToken(ctx, login.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken, "logout blacklists the access token")
}

func TestAuth_VerifyEmailAndChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := testhelpers.CreateUser(t, f.db, &models.User{Email: "verif@test.sn", PasswordHash: "secret12", VerificationToken: "tok-123"})

	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, f.db, "nope"), apperrors.ErrInvalidVerificationToken)
	require.NoError(t, f.svc.VerifyEmail(ctx, f.db, "tok-123"))

	me, err := f.svc.Me(f.db, user.ID)
	require.NoError(t, err)
	assert.True(t, me.IsVerified)

	err = f.svc.ChangePassword(ctx, f.db, user.ID, &dto.ChangePasswordRequest{CurrentPassword: "bad", NewPassword: "nouveau123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, f.svc.ChangePassword(ctx, f.db, user.ID, &dto.ChangePasswordRequest{CurrentPassword: "secret12", NewPassword: "nouveau123"}))
	_, err = f.svc.Login(ctx, f.db, &dto.LoginRequest{Email: "verif@test.sn", Password: "nouveau123"})
	assert.NoError(t, err)
}
