package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"shopmirror/internal/client/shopify"
	"shopmirror/internal/config"
	"shopmirror/internal/logger"
	"shopmirror/internal/metrics"
	"shopmirror/internal/models"
	"shopmirror/internal/repository"
)

var (
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrCredentialsMissing = errors.New("shopify credentials not configured")
)

// Source is one tenant's remote store.
type Source interface {
	Fetch(ctx context.Context, kind shopify.Kind, limit int) ([]json.RawMessage, error)
}

// ClientFactory builds the Source used for one sync attempt.
type ClientFactory func(tenant *models.Tenant, kind shopify.Kind) Source

// NewClientFactory returns the production factory: a shopify.Client per
// tenant sharing one http.Client, with 429 backoffs counted in m.
func NewClientFactory(cfg config.ShopifyConfig, httpClient *http.Client, m *metrics.Metrics) ClientFactory {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return func(tenant *models.Tenant, kind shopify.Kind) Source {
		opts := []shopify.Option{
			shopify.WithAPIVersion(cfg.APIVersion),
			shopify.WithMaxPages(cfg.MaxPages),
			shopify.WithRetry(cfg.MaxRetries, cfg.BaseDelay),
			shopify.WithOnRetry(func(int, time.Duration) { m.IncRetry(string(kind)) }),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, shopify.WithHost(cfg.BaseURL))
		}
		return shopify.NewClient(httpClient, tenant.ShopifyStoreURL, tenant.AccessToken(), opts...)
	}
}

type Result struct {
	Succeeded bool `json:"success"`
	Count     int  `json:"count"`
}

type AllResult struct {
	Customers Result `json:"customers"`
	Products  Result `json:"products"`
	Orders    Result `json:"orders"`
}

// Reconciler pulls one kind of record for one tenant and upserts it locally.
type Reconciler struct {
	Tenants   repository.TenantRepository
	Mirror    repository.MirrorRepository
	Ledger    *Ledger
	Clients   ClientFactory
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	PageLimit int
	Now       func() time.Time
}

// Reconcile runs one sync attempt. Every attempt against an existing tenant
// leaves exactly one ledger row. Remote failures are reported through the
// ledger and Result, not the error; the error is reserved for tenant
// resolution, missing credentials and local failures.
func (r *Reconciler) Reconcile(ctx context.Context, tenantID string, kind shopify.Kind) (Result, error) {
	if !kind.Valid() {
		return Result{}, fmt.Errorf("unsupported sync kind %q", kind)
	}
	tenant, err := r.Tenants.GetTenantByID(ctx, tenantID)
	if err != nil {
		return Result{}, fmt.Errorf("load tenant: %w", err)
	}
	if tenant == nil {
		return Result{}, ErrTenantNotFound
	}
	log := logger.FromContext(ctx, r.Logger).With(zap.String("tenant_id", tenantID), zap.String("kind", string(kind)))
	// Ledger rows must land even if the caller's context is cancelled mid-run.
	ledgerCtx := context.WithoutCancel(ctx)
	start := time.Now()

	if !tenant.HasAccessToken() {
		log.Warn("sync rejected, credentials missing")
		r.Metrics.ObserveSync(string(kind), models.SyncStatusFailed, 0, 0, time.Since(start))
		if _, err := r.Ledger.Record(ledgerCtx, tenantID, kind, models.SyncStatusFailed, 0, ErrCredentialsMissing.Error()); err != nil {
			return Result{}, errors.Join(ErrCredentialsMissing, err)
		}
		return Result{}, ErrCredentialsMissing
	}

	records, err := r.Clients(tenant, kind).Fetch(ctx, kind, r.pageLimit())
	if err != nil {
		log.Warn("sync fetch failed", zap.Error(err))
		r.Metrics.ObserveSync(string(kind), models.SyncStatusFailed, 0, 0, time.Since(start))
		if _, lerr := r.Ledger.Record(ledgerCtx, tenantID, kind, models.SyncStatusFailed, 0, err.Error()); lerr != nil {
			return Result{}, lerr
		}
		return Result{}, nil
	}

	now := r.now()
	count, failures := 0, 0
	for _, raw := range records {
		if ctx.Err() != nil {
			break
		}
		id, err := writeRecord(ctx, r.Mirror, kind, tenantID, raw, now)
		if err != nil {
			failures++
			log.Warn("sync record skipped", zap.String("external_id", id), zap.Error(err))
			continue
		}
		count++
	}

	if err := ctx.Err(); err != nil {
		msg := fmt.Sprintf("sync interrupted after %d of %d records: %v", count, len(records), err)
		log.Warn("sync interrupted", zap.Int("count", count), zap.Error(err))
		r.Metrics.ObserveSync(string(kind), models.SyncStatusFailed, count, failures, time.Since(start))
		if _, lerr := r.Ledger.Record(ledgerCtx, tenantID, kind, models.SyncStatusFailed, count, msg); lerr != nil {
			return Result{Count: count}, lerr
		}
		return Result{Count: count}, nil
	}

	r.Metrics.ObserveSync(string(kind), models.SyncStatusSuccess, count, failures, time.Since(start))
	if _, err := r.Ledger.Record(ledgerCtx, tenantID, kind, models.SyncStatusSuccess, count, ""); err != nil {
		return Result{Count: count}, err
	}
	log.Info("sync completed",
		zap.Int("fetched", len(records)),
		zap.Int("count", count),
		zap.Int("failures", failures),
		zap.Duration("elapsed", time.Since(start)),
	)
	return Result{Succeeded: true, Count: count}, nil
}

// ReconcileAll syncs customers, products then orders. Each kind gets its own
// attempt; a remote failure in one does not stop the next. Tenant and
// credential rejections stop the run at the first kind.
func (r *Reconciler) ReconcileAll(ctx context.Context, tenantID string) (AllResult, error) {
	var out AllResult
	slots := map[shopify.Kind]*Result{
		shopify.KindCustomers: &out.Customers,
		shopify.KindProducts:  &out.Products,
		shopify.KindOrders:    &out.Orders,
	}
	for _, kind := range shopify.Kinds {
		res, err := r.Reconcile(ctx, tenantID, kind)
		*slots[kind] = res
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

// writeRecord maps one remote record and upserts it. The returned id is
// best effort so callers can log failures against it.
func writeRecord(ctx context.Context, repo repository.MirrorRepository, kind shopify.Kind, tenantID string, raw []byte, now time.Time) (string, error) {
	item, id, err := mapRecord(kind, tenantID, raw, now)
	if err != nil {
		return recordID(raw), err
	}
	if err := upsertItem(ctx, repo, item); err != nil {
		return id, fmt.Errorf("upsert %s %s: %w", kind, id, err)
	}
	return id, nil
}

func upsertItem(ctx context.Context, repo repository.MirrorRepository, item any) error {
	switch m := item.(type) {
	case *models.Customer:
		return repo.UpsertCustomer(ctx, m)
	case *models.Product:
		return repo.UpsertProduct(ctx, m)
	case *models.Order:
		return repo.UpsertOrder(ctx, m)
	default:
		return fmt.Errorf("unexpected record type %T", item)
	}
}

func (r *Reconciler) pageLimit() int {
	if r.PageLimit <= 0 {
		return shopify.MaxPageLimit
	}
	return r.PageLimit
}

func (r *Reconciler) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}
