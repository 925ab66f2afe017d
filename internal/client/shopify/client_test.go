package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordSleeps(delays *[]time.Duration) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestFetchSendsTokenAndClampsLimit(t *testing.T) {
	var gotToken, gotLimit, gotStatus, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		gotLimit = r.URL.Query().Get("limit")
		gotStatus = r.URL.Query().Get("status")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"orders":[{"id":1},{"id":2}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "acme.myshopify.com", "shpat_123", WithHost(srv.URL))
	records, err := c.Fetch(context.Background(), KindOrders, 1000)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, "shpat_123", gotToken)
	assert.Equal(t, "250", gotLimit)
	assert.Equal(t, "any", gotStatus)
	assert.Equal(t, "/admin/api/2024-01/orders.json", gotPath)
}

func TestFetchRateLimitExhaustsRetriesWithDoublingDelay(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errors":"Exceeded 2 calls per second"}`))
	}))
	defer srv.Close()

	var delays []time.Duration
	var hooks int
	c := NewClient(srv.Client(), "acme", "tok",
		WithHost(srv.URL),
		WithRetry(3, 100*time.Millisecond),
		WithSleep(recordSleeps(&delays)),
		WithOnRetry(func(int, time.Duration) { hooks++ }),
	)
	_, err := c.Fetch(context.Background(), KindCustomers, 250)
	require.Error(t, err)

	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 4, rl.Attempts)
	assert.True(t, IsRateLimited(err))
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}, delays)
	assert.Equal(t, 3, hooks)
	for i := 1; i < len(delays); i++ {
		assert.Greater(t, delays[i], delays[i-1])
	}
}

func TestFetchDoesNotRetryOtherErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":"[API] Invalid API key or access token"}`))
	}))
	defer srv.Close()

	var delays []time.Duration
	c := NewClient(srv.Client(), "acme", "bad", WithHost(srv.URL), WithSleep(recordSleeps(&delays)))
	_, err := c.Fetch(context.Background(), KindProducts, 50)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, delays)
}

func TestFetchRecoversAfterRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"products":[{"id":10,"title":"Mug"}]}`))
	}))
	defer srv.Close()

	var delays []time.Duration
	c := NewClient(srv.Client(), "acme", "tok", WithHost(srv.URL), WithSleep(recordSleeps(&delays)))
	records, err := c.Fetch(context.Background(), KindProducts, 250)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []time.Duration{DefaultBaseDelay}, delays)
}

func TestFetchFollowsNextLinkUpToMaxPages(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page_info")
		next := fmt.Sprintf(`<%s/admin/api/2024-01/customers.json?limit=2&page_info=p%d>; rel="next"`, srv.URL, len(page)+1)
		w.Header().Set("Link", next)
		_, _ = w.Write([]byte(fmt.Sprintf(`{"customers":[{"id":"%s-a"},{"id":"%s-b"}]}`, page, page)))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "acme", "tok", WithHost(srv.URL), WithMaxPages(2))
	records, err := c.Fetch(context.Background(), KindCustomers, 2)
	require.NoError(t, err)
	require.Len(t, records, 4)

	var first Customer
	require.NoError(t, json.Unmarshal(records[0], &first))
	assert.Equal(t, "-a", first.ID.String())
}

func TestFetchStopsOnCanceledContextDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(srv.Client(), "acme", "tok", WithHost(srv.URL), WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))
	_, err := c.Fetch(ctx, KindOrders, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShopHandle(t *testing.T) {
	cases := map[string]string{
		"acme":                            "acme",
		"acme.myshopify.com":              "acme",
		"https://Acme.myshopify.com/":     "acme",
		"http://acme.myshopify.com/admin": "acme",
	}
	for in, want := range cases {
		assert.Equal(t, want, ShopHandle(in), in)
	}
	c := NewClient(nil, "https://acme.myshopify.com", "tok", WithAPIVersion("2024-04"))
	assert.Equal(t, "https://acme.myshopify.com/admin/api/2024-04", c.BaseURL())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Orders ")
	require.NoError(t, err)
	assert.Equal(t, KindOrders, k)

	_, err = ParseKind("refunds")
	assert.Error(t, err)
}

func TestNumberLenientDecode(t *testing.T) {
	var v struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"19.99","b":7,"c":null,"d":"abc"}`), &v))

	a, err := v.A.Decimal()
	require.NoError(t, err)
	assert.Equal(t, "19.99", a.String())

	b, err := v.B.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(7), b)

	c, err := v.C.Decimal()
	require.NoError(t, err)
	assert.True(t, c.IsZero())

	_, err = v.D.Decimal()
	assert.Error(t, err)
}
