package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"depot-backend/internal/config"
	"depot-backend/internal/mailer"
	"depot-backend/internal/model"
	"depot-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 30 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour

	otpTTL = 10 * time.Minute

	// bcrypt work factors: registration keeps the original cost, a reset
	// re-hashes at a higher one.
	registerHashCost = 8
	resetHashCost    = 12

	minPasswordLength = 8
)

// --- DTOs ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
	Role  *string `json:"role" binding:"omitempty,oneof=admin vendor"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	Otp         string `json:"otp" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type TokenResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserResponse returns a user without sensitive fields. Role is omitted from
// the registration payload on purpose.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type OtpStatusResponse struct {
	Email      string     `json:"email"`
	HasOtp     bool       `json:"has_otp"`
	OtpExpires *time.Time `json:"otp_expires,omitempty"`
	IsValid    bool       `json:"is_valid"`
}

// UserService drives accounts and the credential-reset protocol: register,
// login with lockout awareness, token refresh, and the OTP lifecycle.
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error

	RequestPasswordReset(ctx context.Context, req ForgotPasswordRequest) error
	ConfirmPasswordReset(ctx context.Context, req ResetPasswordRequest) error
	PurgeExpiredOtps(ctx context.Context) (int64, error)
	CheckOtpStatus(ctx context.Context, email string) (*OtpStatusResponse, error)
}

type userService struct {
	repo   repository.UserRepository
	mailer mailer.Mailer
	cfg    *config.Config
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, m mailer.Mailer, cfg *config.Config) UserService {
	return &userService{repo: repo, mailer: m, cfg: cfg}
}

func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// Register creates a new account. The configured admin email is the only
// address granted the admin role; everyone else registers as vendor.
func (s *userService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), registerHashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := model.RoleVendor
	if req.Email == s.cfg.AdminEmail {
		role = model.RoleAdmin
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     role,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	res := mapToResponse(user)
	res.Role = "" // registration response omits the role
	return res, nil
}

// Login authenticates credentials and issues the access/refresh token pair.
// The role claim comes from the persisted role, the single source of truth.
func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)

	// Dummy hash keeps bcrypt running when the email is unknown, so response
	// timing does not reveal which addresses exist.
	passwordHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
	if err == nil {
		passwordHash = user.Password
	}

	compareErr := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password))
	if err != nil || compareErr != nil {
		return nil, ErrInvalidCredentials
	}

	if user.AccountLockedUntil != nil && time.Now().Before(*user.AccountLockedUntil) {
		remaining := int(math.Ceil(time.Until(*user.AccountLockedUntil).Minutes()))
		return nil, &AccountLockedError{RemainingMinutes: remaining}
	}

	accessToken, err := s.signToken(user, s.cfg.JWTSecret, accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.signToken(user, s.cfg.JWTRefreshSecret, refreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenResponse{
		Message:      "login successful",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh validates a refresh token and issues a fresh pair for the user, who
// must still exist.
func (s *userService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	token, err := jwt.Parse(req.RefreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.cfg.JWTRefreshSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidCredentials
	}
	sub, _ := claims["sub"].(string)

	user, err := s.repo.GetByID(ctx, sub)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.signToken(user, s.cfg.JWTSecret, accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.signToken(user, s.cfg.JWTRefreshSecret, refreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenResponse{
		Message:      "token refreshed",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *userService) signToken(user *model.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, *mapToResponse(&u))
	}
	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, *req.Email); err == nil {
			return nil, ErrEmailTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("database error: %w", err)
		}
		user.Email = *req.Email
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Role != nil {
		// The admin role stays pinned to the configured admin address.
		if *req.Role == model.RoleAdmin && user.Email != s.cfg.AdminEmail {
			return nil, ErrRoleNotAllowed
		}
		user.Role = *req.Role
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}
	return s.repo.Delete(ctx, id)
}

// generateOtp produces a 6-digit numeric code from crypto/rand.
func generateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// RequestPasswordReset issues a 6-digit code valid for 10 minutes and emails
// it to the account. Non-admin accounts get their last-reset timestamp
// updated; admin resets are not tracked.
func (s *userService) RequestPasswordReset(ctx context.Context, req ForgotPasswordRequest) error {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	otp, err := generateOtp()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}
	expiresAt := time.Now().Add(otpTTL)

	stampLastReset := user.Role != model.RoleAdmin
	if err := s.repo.SetOtp(ctx, user.Email, otp, expiresAt, stampLastReset); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	if err := s.mailer.SendOtp(user.Email, user.Name, otp); err != nil {
		return ErrDeliveryFailed
	}

	return nil
}

// ConfirmPasswordReset verifies the code and swaps in the new password hash.
// The code and its expiry are cleared in the same write as the new hash.
func (s *userService) ConfirmPasswordReset(ctx context.Context, req ResetPasswordRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	otp := strings.TrimSpace(req.Otp)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if user.Otp == nil || user.OtpExpiresAt == nil {
		return ErrNoOtp
	}
	if user.OtpExpiresAt.Before(time.Now()) {
		return ErrOtpExpired
	}
	if strings.TrimSpace(*user.Otp) != otp {
		return ErrOtpMismatch
	}
	if len(req.NewPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), resetHashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.ConsumeOtp(ctx, user.Email, string(hashed)); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// PurgeExpiredOtps clears OTP pairs whose expiry has passed. Idempotent; meant
// to be hit by an external periodic trigger.
func (s *userService) PurgeExpiredOtps(ctx context.Context) (int64, error) {
	return s.repo.ClearExpiredOtps(ctx, time.Now())
}

// CheckOtpStatus is a debug read reporting whether a code is set and valid.
func (s *userService) CheckOtpStatus(ctx context.Context, email string) (*OtpStatusResponse, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	hasOtp := user.Otp != nil
	isValid := hasOtp && user.OtpExpiresAt != nil && user.OtpExpiresAt.After(time.Now())

	return &OtpStatusResponse{
		Email:      user.Email,
		HasOtp:     hasOtp,
		OtpExpires: user.OtpExpiresAt,
		IsValid:    isValid,
	}, nil
}
