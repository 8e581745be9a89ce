package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"depot-backend/internal/config"
	"depot-backend/internal/model"
	"depot-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeMailer records the last OTP instead of talking to SMTP.
type fakeMailer struct {
	lastTo  string
	lastOtp string
	fail    bool
}

func (m *fakeMailer) SendOtp(to, name, otp string) error {
	if m.fail {
		return assert.AnError
	}
	m.lastTo = to
	m.lastOtp = otp
	return nil
}

func setupUserService(t *testing.T) (UserService, *fakeMailer, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.User{}))

	cfg := &config.Config{
		JWTSecret:        []byte("test-secret"),
		JWTRefreshSecret: []byte("test-refresh-secret"),
		AdminEmail:       "admin@depot.test",
	}
	m := &fakeMailer{}
	return NewUserService(repository.NewUserRepository(db), m, cfg), m, db
}

func registerUser(t *testing.T, svc UserService, email string) *UserResponse {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Test User",
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return res
}

func TestRegister(t *testing.T) {
	t.Run("vendor by default, role hidden in response", func(t *testing.T) {
		svc, _, db := setupUserService(t)

		res := registerUser(t, svc, "vendor@depot.test")
		assert.Empty(t, res.Role)

		var stored model.User
		require.NoError(t, db.Where("email = ?", "vendor@depot.test").First(&stored).Error)
		assert.Equal(t, model.RoleVendor, stored.Role)
		assert.NotEqual(t, "password123", stored.Password, "password must be stored hashed")
	})

	t.Run("admin email gets admin role", func(t *testing.T) {
		svc, _, db := setupUserService(t)

		registerUser(t, svc, "admin@depot.test")

		var stored model.User
		require.NoError(t, db.Where("email = ?", "admin@depot.test").First(&stored).Error)
		assert.Equal(t, model.RoleAdmin, stored.Role)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _, _ := setupUserService(t)

		registerUser(t, svc, "vendor@depot.test")
		_, err := svc.Register(context.Background(), RegisterRequest{
			Name: "Other", Email: "vendor@depot.test", Password: "password123",
		})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}

func TestLogin(t *testing.T) {
	t.Run("success carries persisted role in claims", func(t *testing.T) {
		svc, _, db := setupUserService(t)
		ctx := context.Background()

		registerUser(t, svc, "vendor@depot.test")
		// Flip the persisted role; the claim must follow the database, not the
		// registration path.
		require.NoError(t, db.Model(&model.User{}).
			Where("email = ?", "vendor@depot.test").
			UpdateColumn("role", model.RoleAdmin).Error)

		tokens, err := svc.Login(ctx, LoginRequest{Email: "vendor@depot.test", Password: "password123"})
		require.NoError(t, err)
		require.NotEmpty(t, tokens.AccessToken)
		require.NotEmpty(t, tokens.RefreshToken)

		claims := parseTestClaims(t, tokens.AccessToken, []byte("test-secret"))
		assert.Equal(t, "vendor@depot.test", claims["email"])
		assert.Equal(t, model.RoleAdmin, claims["role"])
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, _ := setupUserService(t)

		registerUser(t, svc, "vendor@depot.test")
		_, err := svc.Login(context.Background(), LoginRequest{
			Email: "vendor@depot.test", Password: "wrong-password",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _, _ := setupUserService(t)

		_, err := svc.Login(context.Background(), LoginRequest{
			Email: "nobody@depot.test", Password: "password123",
		})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("locked account reports remaining minutes", func(t *testing.T) {
		svc, _, db := setupUserService(t)

		registerUser(t, svc, "vendor@depot.test")
		lockedUntil := time.Now().Add(5 * time.Minute)
		require.NoError(t, db.Model(&model.User{}).
			Where("email = ?", "vendor@depot.test").
			UpdateColumn("account_locked_until", lockedUntil).Error)

		_, err := svc.Login(context.Background(), LoginRequest{
			Email: "vendor@depot.test", Password: "password123",
		})

		var locked *AccountLockedError
		require.ErrorAs(t, err, &locked)
		assert.Equal(t, 5, locked.RemainingMinutes)
	})

	t.Run("expired lock lets the user in", func(t *testing.T) {
		svc, _, db := setupUserService(t)

		registerUser(t, svc, "vendor@depot.test")
		lockedUntil := time.Now().Add(-time.Minute)
		require.NoError(t, db.Model(&model.User{}).
			Where("email = ?", "vendor@depot.test").
			UpdateColumn("account_locked_until", lockedUntil).Error)

		_, err := svc.Login(context.Background(), LoginRequest{
			Email: "vendor@depot.test", Password: "password123",
		})
		assert.NoError(t, err)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("issues a fresh pair", func(t *testing.T) {
		svc, _, _ := setupUserService(t)
		ctx := context.Background()

		registerUser(t, svc, "vendor@depot.test")
		tokens, err := svc.Login(ctx, LoginRequest{Email: "vendor@depot.test", Password: "password123"})
		require.NoError(t, err)

		refreshed, err := svc.Refresh(ctx, RefreshRequest{RefreshToken: tokens.RefreshToken})
		require.NoError(t, err)
		assert.NotEmpty(t, refreshed.AccessToken)
		assert.NotEmpty(t, refreshed.RefreshToken)

		claims := parseTestClaims(t, refreshed.AccessToken, []byte("test-secret"))
		assert.Equal(t, "vendor@depot.test", claims["email"])
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		svc, _, _ := setupUserService(t)
		ctx := context.Background()

		registerUser(t, svc, "vendor@depot.test")
		tokens, err := svc.Login(ctx, LoginRequest{Email: "vendor@depot.test", Password: "password123"})
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: tokens.AccessToken})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("deleted user cannot refresh", func(t *testing.T) {
		svc, _, _ := setupUserService(t)
		ctx := context.Background()

		res := registerUser(t, svc, "vendor@depot.test")
		tokens, err := svc.Login(ctx, LoginRequest{Email: "vendor@depot.test", Password: "password123"})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteUser(ctx, res.ID.String()))

		_, err = svc.Refresh(ctx, RefreshRequest{RefreshToken: tokens.RefreshToken})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUpdateUser_RolePinnedToAdminEmail(t *testing.T) {
	svc, _, _ := setupUserService(t)
	ctx := context.Background()

	res := registerUser(t, svc, "vendor@depot.test")

	role := model.RoleAdmin
	_, err := svc.UpdateUser(ctx, res.ID.String(), UpdateUserRequest{Role: &role})
	assert.ErrorIs(t, err, ErrRoleNotAllowed)
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("full round trip", func(t *testing.T) {
		svc, m, db := setupUserService(t)

		registerUser(t, svc, "vendor@depot.test")

		require.NoError(t, svc.RequestPasswordReset(ctx, ForgotPasswordRequest{Email: "vendor@depot.test"}))
		assert.Equal(t, "vendor@depot.test", m.lastTo)
		assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), m.lastOtp)

		var stored model.User
		require.NoError(t, db.Where("email = ?", "vendor@depot.test").First(&stored).Error)
		assert.NotNil(t, stored.LastPasswordResetAt, "vendor resets are timestamped")

		require.NoError(t, svc.ConfirmPasswordReset(ctx, ResetPasswordRequest{
			Email:       "  Vendor@Depot.Test ",
			Otp:         " " + m.lastOtp + " ",
			NewPassword: "new-password-123",
		}))

		// New password works, old one does not.
		_, err := svc.Login(ctx, LoginRequest{Email: "vendor@depot.test", Password: "new-password-123"})
		assert.NoError(t, err)
		_, err = svc.Login(ctx, LoginRequest{Email: "vendor@depot.test", Password: "password123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		// Reset re-hashes at the stronger work factor.
		require.NoError(t, db.Where("email = ?", "vendor@depot.test").First(&stored).Error)
		cost, err := bcrypt.Cost([]byte(stored.Password))
		require.NoError(t, err)
		assert.Equal(t, 12, cost)

		// The code is single use.
		err = svc.ConfirmPasswordReset(ctx, ResetPasswordRequest{
			Email: "vendor@depot.test", Otp: m.lastOtp, NewPassword: "another-password",
		})
		assert.ErrorIs(t, err, ErrNoOtp)
	})

	t.Run("admin reset is not timestamped", func(t *testing.T) {
		svc, _, db := setupUserService(t)

		registerUser(t, svc, "admin@depot.test")
		require.NoError(t, svc.RequestPasswordReset(ctx, ForgotPasswordRequest{Email: "admin@depot.test"}))

		var stored model.User
		require.NoError(t, db.Where("email = ?", "admin@depot.test").First(&stored).Error)
		assert.Nil(t, stored.LastPasswordResetAt)
	})

	t.Run("delivery failure", func(t *testing.T) {
		svc, m, _ := setupUserService(t)
		m.fail = true

		registerUser(t, svc, "vendor@depot.test")
		err := svc.RequestPasswordReset(ctx, ForgotPasswordRequest{Email: "vendor@depot.test"})
		assert.ErrorIs(t, err, ErrDeliveryFailed)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _, _ := setupUserService(t)

		err := svc.RequestPasswordReset(ctx, ForgotPasswordRequest{Email: "nobody@depot.test"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("wrong code", func(t *testing.T) {
		svc, m, _ := setupUserService(t)

		registerUser(t, svc, "vendor@depot.test")
		require.NoError(t, svc.RequestPasswordReset(ctx, ForgotPasswordRequest{Email: "vendor@depot.test"}))

		wrong := "000000"
		if wrong == m.lastOtp {
			wrong = "000001"
		}
		err := svc.ConfirmPasswordReset(ctx, ResetPasswordRequest{
			Email: "vendor@depot.test", Otp: wrong, NewPassword: "new-password-123",
		})
		assert.ErrorIs(t, err, ErrOtpMismatch)
	})

	t.Run("expired code", func(t *testing.T) {
		svc, m, db := setupUserService(t)

		registerUser(t, svc, "vendor@depot.test")
		require.NoError(t, svc.RequestPasswordReset(ctx, ForgotPasswordRequest{Email: "vendor@depot.test"}))

		expired := time.Now().Add(-time.Minute)
		require.NoError(t, db.Model(&model.User{}).
			Where("email = ?", "vendor@depot.test").
			UpdateColumn("otp_expires_at", expired).Error)

		err := svc.ConfirmPasswordReset(ctx, ResetPasswordRequest{
			Email: "vendor@depot.test", Otp: m.lastOtp, NewPassword: "new-password-123",
		})
		assert.ErrorIs(t, err, ErrOtpExpired)
	})

	t.Run("no pending code", func(t *testing.T) {
		svc, _, _ := setupUserService(t)

		registerUser(t, svc, "vendor@depot.test")
		err := svc.ConfirmPasswordReset(ctx, ResetPasswordRequest{
			Email: "vendor@depot.test", Otp: "123456", NewPassword: "new-password-123",
		})
		assert.ErrorIs(t, err, ErrNoOtp)
	})

	t.Run("short new password leaves the code intact", func(t *testing.T) {
		svc, m, _ := setupUserService(t)

		registerUser(t, svc, "vendor@depot.test")
		require.NoError(t, svc.RequestPasswordReset(ctx, ForgotPasswordRequest{Email: "vendor@depot.test"}))

		err := svc.ConfirmPasswordReset(ctx, ResetPasswordRequest{
			Email: "vendor@depot.test", Otp: m.lastOtp, NewPassword: "short",
		})
		assert.ErrorIs(t, err, ErrPasswordTooShort)

		// The same code still works with an acceptable password.
		err = svc.ConfirmPasswordReset(ctx, ResetPasswordRequest{
			Email: "vendor@depot.test", Otp: m.lastOtp, NewPassword: "long-enough-now",
		})
		assert.NoError(t, err)
	})
}

func TestPurgeExpiredOtps(t *testing.T) {
	svc, _, db := setupUserService(t)
	ctx := context.Background()

	registerUser(t, svc, "fresh@depot.test")
	registerUser(t, svc, "stale@depot.test")
	require.NoError(t, svc.RequestPasswordReset(ctx, ForgotPasswordRequest{Email: "fresh@depot.test"}))
	require.NoError(t, svc.RequestPasswordReset(ctx, ForgotPasswordRequest{Email: "stale@depot.test"}))

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&model.User{}).
		Where("email = ?", "stale@depot.test").
		UpdateColumn("otp_expires_at", expired).Error)

	cleared, err := svc.PurgeExpiredOtps(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cleared)

	status, err := svc.CheckOtpStatus(ctx, "fresh@depot.test")
	require.NoError(t, err)
	assert.True(t, status.HasOtp)
	assert.True(t, status.IsValid)

	status, err = svc.CheckOtpStatus(ctx, "stale@depot.test")
	require.NoError(t, err)
	assert.False(t, status.HasOtp)
	assert.False(t, status.IsValid)

	// A second pass has nothing left to clear.
	cleared, err = svc.PurgeExpiredOtps(ctx)
	require.NoError(t, err)
	assert.Zero(t, cleared)
}

func TestCheckOtpStatus_UnknownUser(t *testing.T) {
	svc, _, _ := setupUserService(t)

	_, err := svc.CheckOtpStatus(context.Background(), "nobody@depot.test")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func parseTestClaims(t *testing.T, tokenString string, secret []byte) jwt.MapClaims {
	t.Helper()
	token, err := jwt.Parse(tokenString, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	require.NoError(t, err)
	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}
