package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product represents a catalog item. Stock is the authoritative live count:
// it is only ever mutated by stock entry creation (atomic SQL increment),
// never by sales.
type Product struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Type          string         `gorm:"type:varchar(100)" json:"type"`
	PurchasePrice float64        `gorm:"type:decimal(10,2);not null" json:"purchase_price"`
	SalePrice     float64        `gorm:"type:decimal(10,2);not null" json:"sale_price"`
	Stock         int            `gorm:"type:int;default:0;not null" json:"stock"`
	AlertLevel    int            `gorm:"type:int;default:0;not null" json:"alert_level"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUID when the database does not (e.g. SQLite in tests).
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
