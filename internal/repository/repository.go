package repository

import (
	"context"

	"shopmirror/internal/models"
)

// TenantRepository is the read/write surface the sync core and the thin
// auth layer need on tenants. Lookups return (nil, nil) when nothing matches.
type TenantRepository interface {
	CreateTenant(ctx context.Context, item *models.Tenant) error
	GetTenantByID(ctx context.Context, id string) (*models.Tenant, error)
	GetTenantByEmail(ctx context.Context, email string) (*models.Tenant, error)
	FindTenantByShopDomain(ctx context.Context, shopDomain string) (*models.Tenant, error)
	ListTenantsWithAccessToken(ctx context.Context) ([]models.Tenant, error)
	UpdateTenantCredentials(ctx context.Context, id string, update CredentialsUpdate) (*models.Tenant, error)
}

// MirrorRepository writes remote records keyed by (tenant, external id).
// Upserts insert with the record's own created_at and, on conflict,
// overwrite every mutable column; created_at is never rewritten.
type MirrorRepository interface {
	UpsertCustomer(ctx context.Context, item *models.Customer) error
	UpsertProduct(ctx context.Context, item *models.Product) error
	UpsertOrder(ctx context.Context, item *models.Order) error
	GetCustomer(ctx context.Context, tenantID, id string) (*models.Customer, error)
	GetProduct(ctx context.Context, tenantID, id string) (*models.Product, error)
	GetOrder(ctx context.Context, tenantID, id string) (*models.Order, error)
}

// SyncLogRepository is append-only: there is no update or delete.
type SyncLogRepository interface {
	InsertSyncLog(ctx context.Context, item *models.SyncLog) error
	ListRecentSyncLogs(ctx context.Context, tenantID string, limit int) ([]models.SyncLog, error)
	SummarizeSyncLogs(ctx context.Context, tenantID string) ([]SyncLogSummary, error)
}

type Repository interface {
	TenantRepository
	MirrorRepository
	SyncLogRepository
	Ping(ctx context.Context) error
}

type CredentialsUpdate struct {
	StoreURL    string
	AccessToken string
	// APIKey is left untouched when nil.
	APIKey *string
}

type SyncLogSummary struct {
	SyncType string `json:"sync_type"`
	Status   string `json:"status"`
	Count    int64  `json:"count"`
}
