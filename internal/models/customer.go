package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Customer mirrors a Shopify customer. TotalSpent and OrdersCount are taken
// from the remote record as-is on every write.
type Customer struct {
	TenantID    string          `gorm:"primaryKey;type:text;comment:owning tenant"`
	ID          string          `gorm:"primaryKey;type:text;comment:shopify customer id"`
	Email       *string         `gorm:"type:text;index;comment:email"`
	FirstName   *string         `gorm:"type:text;comment:first name"`
	LastName    *string         `gorm:"type:text;comment:last name"`
	Phone       *string         `gorm:"type:text;comment:phone"`
	TotalSpent  decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0;comment:lifetime spend"`
	OrdersCount int             `gorm:"not null;default:0;comment:lifetime order count"`
	RawJSON     datatypes.JSON  `gorm:"type:jsonb;comment:latest remote payload"`
	CreatedAt   time.Time       `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	UpdatedAt   time.Time       `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
}

func (Customer) TableName() string {
	return "customers"
}
