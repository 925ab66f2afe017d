package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"shopmirror/internal/client/shopify"
	"shopmirror/internal/models"
	"shopmirror/internal/repository"
)

type mirrorKey struct{ tenant, id string }

type stubRepo struct {
	mu        sync.Mutex
	tenants   map[string]*models.Tenant
	customers map[mirrorKey]models.Customer
	products  map[mirrorKey]models.Product
	orders    map[mirrorKey]models.Order
	logs      []models.SyncLog

	failUpsert   map[string]bool
	failLedger   error
	listTenantsN int
}

var _ repository.Repository = (*stubRepo)(nil)

func newStubRepo() *stubRepo {
	return &stubRepo{
		tenants:    map[string]*models.Tenant{},
		customers:  map[mirrorKey]models.Customer{},
		products:   map[mirrorKey]models.Product{},
		orders:     map[mirrorKey]models.Order{},
		failUpsert: map[string]bool{},
	}
}

func (s *stubRepo) addTenant(id, storeURL, token string) *models.Tenant {
	t := &models.Tenant{ID: id, Email: id + "@example.com", ShopName: id, ShopifyStoreURL: storeURL}
	if token != "" {
		t.ShopifyAccessToken = &token
	}
	s.tenants[id] = t
	return t
}

func (s *stubRepo) Ping(context.Context) error { return nil }

func (s *stubRepo) CreateTenant(_ context.Context, item *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[item.ID] = item
	return nil
}

func (s *stubRepo) GetTenantByID(_ context.Context, id string) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tenants[id], nil
}

func (s *stubRepo) GetTenantByEmail(_ context.Context, email string) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if strings.EqualFold(t.Email, email) {
			return t, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) FindTenantByShopDomain(_ context.Context, domain string) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	domain = strings.ToLower(domain)
	for _, t := range s.tenants {
		if strings.Contains(strings.ToLower(t.ShopifyStoreURL), domain) {
			return t, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListTenantsWithAccessToken(context.Context) ([]models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listTenantsN++
	var out []models.Tenant
	for _, t := range s.tenants {
		if t.ShopifyAccessToken != nil {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *stubRepo) UpdateTenantCredentials(_ context.Context, id string, u repository.CredentialsUpdate) (*models.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tenants[id]
	if t == nil {
		return nil, nil
	}
	tok := u.AccessToken
	t.ShopifyStoreURL = u.StoreURL
	t.ShopifyAccessToken = &tok
	if u.APIKey != nil {
		t.ShopifyAPIKey = u.APIKey
	}
	return t, nil
}

// upsert keeps created_at of an existing row, like ON CONFLICT DO UPDATE
// without created_at in the assignment list.
func (s *stubRepo) UpsertCustomer(_ context.Context, item *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpsert[item.ID] {
		return errors.New("write failed")
	}
	k := mirrorKey{item.TenantID, item.ID}
	next := *item
	if prev, ok := s.customers[k]; ok {
		next.CreatedAt = prev.CreatedAt
	}
	s.customers[k] = next
	return nil
}

func (s *stubRepo) UpsertProduct(_ context.Context, item *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpsert[item.ID] {
		return errors.New("write failed")
	}
	k := mirrorKey{item.TenantID, item.ID}
	next := *item
	if prev, ok := s.products[k]; ok {
		next.CreatedAt = prev.CreatedAt
	}
	s.products[k] = next
	return nil
}

func (s *stubRepo) UpsertOrder(_ context.Context, item *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpsert[item.ID] {
		return errors.New("write failed")
	}
	k := mirrorKey{item.TenantID, item.ID}
	next := *item
	if prev, ok := s.orders[k]; ok {
		next.CreatedAt = prev.CreatedAt
	}
	s.orders[k] = next
	return nil
}

func (s *stubRepo) GetCustomer(_ context.Context, tenantID, id string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.customers[mirrorKey{tenantID, id}]; ok {
		return &v, nil
	}
	return nil, nil
}

func (s *stubRepo) GetProduct(_ context.Context, tenantID, id string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.products[mirrorKey{tenantID, id}]; ok {
		return &v, nil
	}
	return nil, nil
}

func (s *stubRepo) GetOrder(_ context.Context, tenantID, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.orders[mirrorKey{tenantID, id}]; ok {
		return &v, nil
	}
	return nil, nil
}

func (s *stubRepo) InsertSyncLog(_ context.Context, item *models.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLedger != nil {
		return s.failLedger
	}
	item.ID = uint64(len(s.logs) + 1)
	s.logs = append(s.logs, *item)
	return nil
}

func (s *stubRepo) ListRecentSyncLogs(_ context.Context, tenantID string, limit int) ([]models.SyncLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SyncLog
	for i := len(s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if s.logs[i].TenantID == tenantID {
			out = append(out, s.logs[i])
		}
	}
	return out, nil
}

func (s *stubRepo) SummarizeSyncLogs(_ context.Context, tenantID string) ([]repository.SyncLogSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[[2]string]int64{}
	for _, l := range s.logs {
		if l.TenantID == tenantID {
			counts[[2]string{l.SyncType, l.Status}]++
		}
	}
	var out []repository.SyncLogSummary
	for k, n := range counts {
		out = append(out, repository.SyncLogSummary{SyncType: k[0], Status: k[1], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SyncType != out[j].SyncType {
			return out[i].SyncType < out[j].SyncType
		}
		return out[i].Status < out[j].Status
	})
	return out, nil
}

func (s *stubRepo) logsFor(tenantID string) []models.SyncLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SyncLog
	for _, l := range s.logs {
		if l.TenantID == tenantID {
			out = append(out, l)
		}
	}
	return out
}

// stubSource serves canned pages per kind.
type stubSource struct {
	records map[shopify.Kind][]string
	err     map[shopify.Kind]error
	calls   []shopify.Kind
	limit   int
	hook    func(shopify.Kind)
}

func (f *stubSource) Fetch(_ context.Context, kind shopify.Kind, limit int) ([]json.RawMessage, error) {
	f.calls = append(f.calls, kind)
	f.limit = limit
	if f.hook != nil {
		f.hook(kind)
	}
	if err := f.err[kind]; err != nil {
		return nil, err
	}
	out := make([]json.RawMessage, 0, len(f.records[kind]))
	for _, r := range f.records[kind] {
		out = append(out, json.RawMessage(r))
	}
	return out, nil
}

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestReconciler(repo *stubRepo, sources map[string]*stubSource) *Reconciler {
	return &Reconciler{
		Tenants: repo,
		Mirror:  repo,
		Ledger:  &Ledger{Repo: repo, Now: func() time.Time { return fixedNow }},
		Clients: func(t *models.Tenant, _ shopify.Kind) Source {
			return sources[t.ID]
		},
		Now: func() time.Time { return fixedNow },
	}
}

const (
	timeoutShort = 2 * time.Second
	tick         = 5 * time.Millisecond
)
