package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxPageLimit is the largest page size the Admin REST API accepts.
	MaxPageLimit = 250

	DefaultAPIVersion = "2024-01"
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second

	accessTokenHeader = "X-Shopify-Access-Token"
)

type Kind string

const (
	KindCustomers Kind = "customers"
	KindProducts  Kind = "products"
	KindOrders    Kind = "orders"
)

// Kinds lists entity kinds in full-sync order.
var Kinds = []Kind{KindCustomers, KindProducts, KindOrders}

func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if !k.Valid() {
		return "", fmt.Errorf("unsupported entity kind: %q", raw)
	}
	return k, nil
}

func (k Kind) Valid() bool {
	switch k {
	case KindCustomers, KindProducts, KindOrders:
		return true
	default:
		return false
	}
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify api error (%d): %s", e.Status, e.Body)
}

// RateLimitError is returned once every retry of a 429 response is used up.
type RateLimitError struct {
	Attempts int
	Last     *APIError
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("shopify rate limited after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RateLimitError) Unwrap() error {
	return e.Last
}

func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client

	host       string
	apiVersion string
	maxPages   int
	maxRetries int
	baseDelay  time.Duration
	sleep      SleepFunc
	onRetry    func(attempt int, delay time.Duration)
}

type Option func(*Client)

// WithHost replaces https://{shop}.myshopify.com, mainly for tests and proxies.
func WithHost(host string) Option {
	return func(c *Client) { c.host = strings.TrimRight(strings.TrimSpace(host), "/") }
}

func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if v := strings.TrimSpace(version); v != "" {
			c.apiVersion = v
		}
	}
}

func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if baseDelay > 0 {
			c.baseDelay = baseDelay
		}
	}
}

func WithSleep(fn SleepFunc) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// WithOnRetry registers a hook called before each backoff wait.
func WithOnRetry(fn func(attempt int, delay time.Duration)) Option {
	return func(c *Client) { c.onRetry = fn }
}

func NewClient(httpClient *http.Client, storeURL, accessToken string, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	c := &Client{
		accessToken: strings.TrimSpace(accessToken),
		httpClient:  httpClient,
		apiVersion:  DefaultAPIVersion,
		maxPages:    1,
		maxRetries:  DefaultMaxRetries,
		baseDelay:   DefaultBaseDelay,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	host := c.host
	if host == "" {
		host = "https://" + ShopHandle(storeURL) + ".myshopify.com"
	}
	c.baseURL = host + "/admin/api/" + c.apiVersion
	return c
}

// ShopHandle reduces any accepted store URL form to the bare shop handle:
// "https://acme.myshopify.com/" and "acme" both yield "acme".
func ShopHandle(storeURL string) string {
	s := strings.ToLower(strings.TrimSpace(storeURL))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSuffix(s, ".myshopify.com")
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Fetch returns the raw records of one entity kind in the order Shopify
// produced them, following Link rel="next" cursors for up to maxPages pages.
func (c *Client) Fetch(ctx context.Context, kind Kind, limit int) ([]json.RawMessage, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unsupported entity kind: %q", kind)
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(clampLimit(limit)))
	if kind == KindOrders {
		query.Set("status", "any")
	}
	next := c.baseURL + "/" + string(kind) + ".json?" + query.Encode()

	var out []json.RawMessage
	for page := 0; page < c.maxPages && next != ""; page++ {
		body, header, err := c.get(ctx, next)
		if err != nil {
			return nil, err
		}
		records, err := decodePage(body, string(kind))
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
		next = nextPageURL(header.Get("Link"))
	}
	return out, nil
}

// get issues one logical GET. A 429 is retried maxRetries times, the wait
// doubling from baseDelay; anything else is returned on first sight.
func (c *Client) get(ctx context.Context, fullURL string) ([]byte, http.Header, error) {
	delay := c.baseDelay
	for attempt := 0; ; attempt++ {
		body, header, err := c.doRequest(ctx, fullURL)
		if err == nil {
			return body, header, nil
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusTooManyRequests {
			return nil, nil, err
		}
		if attempt >= c.maxRetries {
			return nil, nil, &RateLimitError{Attempts: attempt + 1, Last: apiErr}
		}
		if c.onRetry != nil {
			c.onRetry(attempt+1, delay)
		}
		if err := c.sleep(ctx, delay); err != nil {
			return nil, nil, err
		}
		delay *= 2
	}
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(accessTokenHeader, c.accessToken)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, &APIError{Status: resp.StatusCode, Body: truncate(strings.TrimSpace(string(body)), 512)}
	}
	return body, resp.Header, nil
}

func decodePage(body []byte, key string) ([]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s page: %w", key, err)
	}
	raw, ok := envelope[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode %s page: %w", key, err)
	}
	return records, nil
}

// nextPageURL extracts the rel="next" target from a Link header.
func nextPageURL(link string) string {
	for _, part := range strings.Split(link, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, `rel="next"`) {
			continue
		}
		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}
	return ""
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxPageLimit {
		return MaxPageLimit
	}
	return limit
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
