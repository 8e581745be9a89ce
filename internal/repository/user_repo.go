package repository

import (
	"context"
	"time"

	"depot-backend/internal/model"

	"gorm.io/gorm"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, page, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error

	// SetOtp stores a reset code and its expiry, optionally stamping the last
	// reset time. The three columns are written in one UPDATE.
	SetOtp(ctx context.Context, email, otp string, expiresAt time.Time, stampLastReset bool) error
	// ConsumeOtp writes the new password hash and clears the OTP pair in one
	// UPDATE, so a code can never survive a successful reset.
	ConsumeOtp(ctx context.Context, email, passwordHash string) error
	// ClearExpiredOtps removes OTP pairs whose expiry is before now and
	// reports how many rows were affected.
	ClearExpiredOtps(ctx context.Context, now time.Time) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db).Model(&model.User{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.User{}).Error
}

func (r *userRepository) SetOtp(ctx context.Context, email, otp string, expiresAt time.Time, stampLastReset bool) error {
	updates := map[string]interface{}{
		"otp":            otp,
		"otp_expires_at": expiresAt,
	}
	if stampLastReset {
		updates["last_password_reset_at"] = time.Now()
	}
	return GetDB(ctx, r.db).Model(&model.User{}).Where("email = ?", email).Updates(updates).Error
}

func (r *userRepository) ConsumeOtp(ctx context.Context, email, passwordHash string) error {
	return GetDB(ctx, r.db).Model(&model.User{}).Where("email = ?", email).Updates(map[string]interface{}{
		"password":       passwordHash,
		"otp":            nil,
		"otp_expires_at": nil,
	}).Error
}

func (r *userRepository) ClearExpiredOtps(ctx context.Context, now time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.User{}).
		Where("otp_expires_at IS NOT NULL AND otp_expires_at < ?", now).
		Updates(map[string]interface{}{
			"otp":            nil,
			"otp_expires_at": nil,
		})
	return res.RowsAffected, res.Error
}
