package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Product keeps price and inventory of the first variant only.
type Product struct {
	TenantID    string          `gorm:"primaryKey;type:text;comment:owning tenant"`
	ID          string          `gorm:"primaryKey;type:text;comment:shopify product id"`
	Title       string          `gorm:"type:text;not null;default:'';comment:title"`
	Price       decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0;comment:first variant price"`
	Inventory   int             `gorm:"not null;default:0;comment:first variant inventory"`
	Status      *string         `gorm:"type:text;comment:active|draft|archived"`
	Vendor      *string         `gorm:"type:text;comment:vendor"`
	ProductType *string         `gorm:"type:text;comment:product type"`
	RawJSON     datatypes.JSON  `gorm:"type:jsonb;comment:latest remote payload"`
	CreatedAt   time.Time       `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	UpdatedAt   time.Time       `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
}

func (Product) TableName() string {
	return "products"
}
