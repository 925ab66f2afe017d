package models

import "time"

const (
	SyncTypeCustomers = "customers"
	SyncTypeProducts  = "products"
	SyncTypeOrders    = "orders"

	SyncStatusSuccess = "success"
	SyncStatusFailed  = "failed"
)

// SyncLog is the append-only ledger row written once per sync attempt.
type SyncLog struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID     string    `gorm:"type:text;index:idx_sync_logs_tenant_created,priority:1;not null" json:"tenant_id"`
	SyncType     string    `gorm:"type:text;not null;comment:customers|products|orders" json:"sync_type"`
	Status       string    `gorm:"type:text;not null;comment:success|failed" json:"status"`
	RecordsCount int       `gorm:"not null;default:0" json:"records_count"`
	ErrorMessage *string   `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time `gorm:"type:timestamptz;index:idx_sync_logs_tenant_created,priority:2;not null" json:"created_at"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}
