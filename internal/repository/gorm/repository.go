package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shopmirror/internal/models"
	"shopmirror/internal/repository"
)

var errNoDB = errors.New("store: database not configured")

type Store struct {
	db *gorm.DB
}

var _ repository.Repository = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	sqldb, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqldb.PingContext(ctx)
}

// --- tenants ----------------------------------------------------------------

func (s *Store) CreateTenant(ctx context.Context, item *models.Tenant) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	if item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetTenantByID(ctx context.Context, id string) (*models.Tenant, error) {
	return s.firstTenant(ctx, "id = ?", strings.TrimSpace(id))
}

func (s *Store) GetTenantByEmail(ctx context.Context, email string) (*models.Tenant, error) {
	return s.firstTenant(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

// FindTenantByShopDomain matches the first tenant whose store URL contains
// the domain, case-insensitively. Oldest tenant wins when several match.
func (s *Store) FindTenantByShopDomain(ctx context.Context, shopDomain string) (*models.Tenant, error) {
	domain := strings.ToLower(strings.TrimSpace(shopDomain))
	if domain == "" {
		return nil, nil
	}
	return s.firstTenant(ctx, "LOWER(shopify_store_url) LIKE ?", "%"+escapeLike(domain)+"%")
}

func (s *Store) firstTenant(ctx context.Context, where string, arg any) (*models.Tenant, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Tenant
	err := s.db.WithContext(ctx).
		Where(where, arg).
		Order("created_at asc").
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListTenantsWithAccessToken(ctx context.Context) ([]models.Tenant, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Tenant
	if err := s.db.WithContext(ctx).
		Where("shopify_access_token IS NOT NULL").
		Where("shopify_access_token <> ''").
		Order("created_at asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateTenantCredentials(ctx context.Context, id string, update repository.CredentialsUpdate) (*models.Tenant, error) {
	if s == nil || s.db == nil {
		return nil, errNoDB
	}
	updates := map[string]any{
		"shopify_store_url":    strings.TrimSpace(update.StoreURL),
		"shopify_access_token": strings.TrimSpace(update.AccessToken),
		"updated_at":           time.Now().UTC(),
	}
	if update.APIKey != nil {
		updates["shopify_api_key"] = strings.TrimSpace(*update.APIKey)
	}
	res := s.db.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return s.GetTenantByID(ctx, id)
}

// --- mirror -----------------------------------------------------------------

var mirrorKey = []clause.Column{{Name: "tenant_id"}, {Name: "id"}}

func (s *Store) UpsertCustomer(ctx context.Context, item *models.Customer) error {
	return s.upsert(ctx, item, []string{
		"email",
		"first_name",
		"last_name",
		"phone",
		"total_spent",
		"orders_count",
		"raw_json",
		"updated_at",
	})
}

func (s *Store) UpsertProduct(ctx context.Context, item *models.Product) error {
	return s.upsert(ctx, item, []string{
		"title",
		"price",
		"inventory",
		"status",
		"vendor",
		"product_type",
		"raw_json",
		"updated_at",
	})
}

func (s *Store) UpsertOrder(ctx context.Context, item *models.Order) error {
	return s.upsert(ctx, item, []string{
		"customer_id",
		"order_number",
		"total_price",
		"subtotal_price",
		"tax_price",
		"order_date",
		"status",
		"fulfillment_status",
		"financial_status",
		"raw_json",
		"updated_at",
	})
}

func (s *Store) upsert(ctx context.Context, item any, columns []string) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	if item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   mirrorKey,
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(item).Error
}

func (s *Store) GetCustomer(ctx context.Context, tenantID, id string) (*models.Customer, error) {
	var item models.Customer
	ok, err := s.getMirror(ctx, &item, tenantID, id)
	if !ok {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetProduct(ctx context.Context, tenantID, id string) (*models.Product, error) {
	var item models.Product
	ok, err := s.getMirror(ctx, &item, tenantID, id)
	if !ok {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetOrder(ctx context.Context, tenantID, id string) (*models.Order, error) {
	var item models.Order
	ok, err := s.getMirror(ctx, &item, tenantID, id)
	if !ok {
		return nil, err
	}
	return &item, nil
}

func (s *Store) getMirror(ctx context.Context, dest any, tenantID, id string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(dest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// --- sync ledger ------------------------------------------------------------

func (s *Store) InsertSyncLog(ctx context.Context, item *models.SyncLog) error {
	if s == nil || s.db == nil {
		return errNoDB
	}
	if item == nil {
		return nil
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListRecentSyncLogs(ctx context.Context, tenantID string, limit int) ([]models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	limit = normalizeLimit(limit, 20)
	var items []models.SyncLog
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) SummarizeSyncLogs(ctx context.Context, tenantID string) ([]repository.SyncLogSummary, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.SyncLogSummary
	if err := s.db.WithContext(ctx).
		Model(&models.SyncLog{}).
		Select("sync_type, status, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group("sync_type, status").
		Order("sync_type asc, status asc").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func normalizeLimit(limit int, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
