package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopmirror/internal/client/shopify"
	"shopmirror/internal/models"
)

func newTestIngestor(repo *stubRepo) *WebhookIngestor {
	return &WebhookIngestor{Tenants: repo, Mirror: repo, Now: func() time.Time { return fixedNow }}
}

func TestIngestOrderCreate(t *testing.T) {
	repo := newStubRepo()
	repo.addTenant("t1", "https://acme.myshopify.com", "tok")
	w := newTestIngestor(repo)

	payload := []byte(`{"id":820982911946154508,"customer":{"id":115310627314723954},"total_price":"12.00","closed_at":"2024-01-01T00:00:00Z"}`)
	require.NoError(t, w.Ingest(context.Background(), shopify.KindOrders, payload, "ACME.myshopify.com"))

	o, _ := repo.GetOrder(context.Background(), "t1", "820982911946154508")
	require.NotNil(t, o)
	assert.Equal(t, "closed", o.Status)
	require.NotNil(t, o.CustomerID)
	assert.Equal(t, "115310627314723954", *o.CustomerID)
	assert.Empty(t, repo.logs)
}

func TestIngestDistinctRejections(t *testing.T) {
	repo := newStubRepo()
	repo.addTenant("t1", "acme.myshopify.com", "tok")
	w := newTestIngestor(repo)
	ctx := context.Background()

	err := w.Ingest(ctx, shopify.KindOrders, []byte(`{"id":1,"customer":{"id":2}}`), "  ")
	assert.ErrorIs(t, err, ErrMissingShopDomain)

	err = w.Ingest(ctx, shopify.KindOrders, []byte(`{"id":1,"customer":{"id":2}}`), "other.myshopify.com")
	assert.ErrorIs(t, err, ErrUnknownShop)

	for _, body := range []string{
		`{"id":1}`,
		`{"id":1,"customer":null}`,
		`{"id":1,"customer":{}}`,
		`{"id":9,"customer":{"id":"   "}}`,
		`{"id":9,"customer":{"id":""}}`,
		`not json`,
	} {
		err = w.Ingest(ctx, shopify.KindOrders, []byte(body), "acme.myshopify.com")
		var rejected *RejectedError
		assert.True(t, errors.As(err, &rejected), body)
	}

	err = w.Ingest(ctx, shopify.KindCustomers, []byte(`{"id":3,"total_spent":"??"}`), "acme.myshopify.com")
	var rejected *RejectedError
	assert.True(t, errors.As(err, &rejected))
	assert.Empty(t, repo.orders)
	assert.Empty(t, repo.customers)
}

func TestWebhookAndSyncConverge(t *testing.T) {
	repo := newStubRepo()
	repo.addTenant("t1", "acme.myshopify.com", "tok")
	raw := `{"id":55,"title":"Lamp","vendor":"Acme","variants":[{"price":"20.00","inventory_quantity":4}],"updated_at":"2024-05-01T00:00:00Z"}`

	w := newTestIngestor(repo)
	require.NoError(t, w.Ingest(context.Background(), shopify.KindProducts, []byte(raw), "acme.myshopify.com"))
	viaWebhook, _ := repo.GetProduct(context.Background(), "t1", "55")
	require.NotNil(t, viaWebhook)
	fromHook := *viaWebhook

	r := newTestReconciler(repo, map[string]*stubSource{
		"t1": {records: map[shopify.Kind][]string{shopify.KindProducts: {raw}}},
	})
	_, err := r.Reconcile(context.Background(), "t1", shopify.KindProducts)
	require.NoError(t, err)
	viaSync, _ := repo.GetProduct(context.Background(), "t1", "55")

	assert.Equal(t, fromHook, *viaSync)
	assert.Len(t, repo.products, 1)
}

func TestWebhookOrderThenSyncedUpdateKeepsOneRow(t *testing.T) {
	repo := newStubRepo()
	repo.addTenant("t1", "acme.myshopify.com", "tok")
	ctx := context.Background()

	created := `{"id":1001,"customer":{"id":7},"total_price":"40.00","created_at":"2024-03-01T10:00:00Z","updated_at":"2024-03-01T10:00:00Z"}`
	require.NoError(t, newTestIngestor(repo).Ingest(ctx, shopify.KindOrders, []byte(created), "acme.myshopify.com"))

	updated := `{"id":"1001","customer":{"id":"7"},"total_price":"55.50","created_at":"2024-03-01T10:00:00Z","updated_at":"2024-03-02T08:00:00Z","cancelled_at":"2024-03-02T08:00:00Z"}`
	r := newTestReconciler(repo, map[string]*stubSource{
		"t1": {records: map[shopify.Kind][]string{shopify.KindOrders: {updated}}},
	})
	res, err := r.Reconcile(ctx, "t1", shopify.KindOrders)
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	want, err := MapOrder("t1", []byte(updated), fixedNow)
	require.NoError(t, err)
	got, _ := repo.GetOrder(ctx, "t1", "1001")
	require.NotNil(t, got)
	assert.Len(t, repo.orders, 1)
	assert.Equal(t, *want, *got)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	assert.Equal(t, "55.5", got.TotalPrice.String())
}

func TestWebhookTopics(t *testing.T) {
	assert.Equal(t, shopify.KindOrders, WebhookTopics["orders/updated"])
	assert.Equal(t, shopify.KindCustomers, WebhookTopics["customers/update"])
	_, ok := WebhookTopics["refunds/create"]
	assert.False(t, ok)
}
