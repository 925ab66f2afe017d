package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	OrderStatusOpen      = "open"
	OrderStatusClosed    = "closed"
	OrderStatusCancelled = "cancelled"
)

// Order mirrors a Shopify order. CustomerID may be nil; it is a soft
// reference within the same tenant and carries no foreign key so an order
// can land before its customer does.
type Order struct {
	TenantID          string          `gorm:"primaryKey;type:text;comment:owning tenant"`
	ID                string          `gorm:"primaryKey;type:text;comment:shopify order id"`
	CustomerID        *string         `gorm:"type:text;index;comment:shopify customer id"`
	OrderNumber       int64           `gorm:"not null;default:0;comment:shop-facing order number"`
	TotalPrice        decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	SubtotalPrice     decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	TaxPrice          decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`
	OrderDate         time.Time       `gorm:"type:timestamptz;index;not null;comment:remote created_at"`
	Status            string          `gorm:"type:text;index;not null;comment:open|closed|cancelled"`
	FulfillmentStatus string          `gorm:"type:text;not null;default:'unfulfilled'"`
	FinancialStatus   string          `gorm:"type:text;not null;default:'pending'"`
	RawJSON           datatypes.JSON  `gorm:"type:jsonb;comment:latest remote payload"`
	CreatedAt         time.Time       `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	UpdatedAt         time.Time       `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
}

func (Order) TableName() string {
	return "orders"
}
