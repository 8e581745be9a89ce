package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentStatus constants for Sale.PaymentStatus
const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// StockEntry records an incoming stock replenishment. It is an immutable
// business fact once created except for administrative corrections; creating
// one increments the owning product's stock by Quantity.
type StockEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int       `gorm:"type:int;not null" json:"quantity"`
	TotalCost float64   `gorm:"type:decimal(10,2);not null" json:"total_cost"`
	Supplier  string    `gorm:"type:varchar(255);not null" json:"supplier"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *StockEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Sale records an outgoing transaction. TotalPrice is a snapshot of
// quantity x product sale price as of the last write.
type Sale struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product       Product   `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity      int       `gorm:"type:int;not null" json:"quantity"`
	TotalPrice    float64   `gorm:"type:decimal(10,2);not null" json:"total_price"`
	Client        string    `gorm:"type:varchar(255);not null" json:"client"`
	PaymentStatus string    `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
