package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sale is one sale record from the distributor's store, read by the sales and
// financial fetchers.
type Sale struct {
	ID           string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerName string          `json:"customer_name"`
	SaleDate     time.Time       `json:"sale_date" gorm:"index;not null"`
	Total        decimal.Decimal `json:"total" gorm:"type:decimal(12,2)"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (Sale) TableName() string {
	return "sales"
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Product is one catalog product, read by the inventory fetcher.
type Product struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name           string          `json:"name" gorm:"index;not null"`
	Category       string          `json:"category"`
	Supplier       string          `json:"supplier"`
	Price          decimal.Decimal `json:"price" gorm:"type:decimal(12,2)"`
	AvailableStock int             `json:"available_stock"`
	MinStock       int             `json:"min_stock"`
	Active         bool            `json:"active" gorm:"default:true;index"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// LowStock reports whether available stock has fallen to or below the
// configured minimum.
func (p *Product) LowStock() bool {
	return p.AvailableStock <= p.MinStock
}
