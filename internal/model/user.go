package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role constants for User.Role
const (
	RoleAdmin  = "admin"
	RoleVendor = "vendor"
)

// User represents a staff account (admin or vendor).
// Otp and OtpExpiresAt are always set and cleared together: at most one
// active reset code exists per user at any time.
type User struct {
	ID                  uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                string         `gorm:"type:varchar(255);not null" json:"name"`
	Email               string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password            string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Role                string         `gorm:"type:varchar(50);not null;default:'vendor'" json:"role"`
	Otp                 *string        `gorm:"type:varchar(10)" json:"-"`
	OtpExpiresAt        *time.Time     `json:"-"`
	AccountLockedUntil  *time.Time     `json:"-"`
	LastPasswordResetAt *time.Time     `json:"last_password_reset_at,omitempty"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// BeforeCreate assigns a UUID when the database does not (e.g. SQLite in tests).
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
