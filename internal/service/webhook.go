package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"

	"shopmirror/internal/client/shopify"
	"shopmirror/internal/logger"
	"shopmirror/internal/metrics"
	"shopmirror/internal/models"
	"shopmirror/internal/repository"
)

var (
	ErrMissingShopDomain = errors.New("missing shop domain")
	ErrUnknownShop       = errors.New("no tenant for shop domain")
)

// RejectedError is a webhook payload that cannot be applied.
type RejectedError struct {
	Kind   shopify.Kind
	Reason string
	Err    error
}

func (e *RejectedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s webhook rejected: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s webhook rejected: %s", e.Kind, e.Reason)
}

func (e *RejectedError) Unwrap() error {
	return e.Err
}

// WebhookTopics maps the accepted Shopify topics to the kind they carry.
var WebhookTopics = map[string]shopify.Kind{
	"customers/create": shopify.KindCustomers,
	"customers/update": shopify.KindCustomers,
	"products/create":  shopify.KindProducts,
	"products/update":  shopify.KindProducts,
	"orders/create":    shopify.KindOrders,
	"orders/updated":   shopify.KindOrders,
}

const schemaBase = "https://shopmirror.local/schemas/"

const idSchema = `{"anyOf":[{"type":"integer"},{"type":"string","pattern":"\\S"}]}`

var payloadSchemas = map[shopify.Kind]string{
	shopify.KindCustomers: `{
		"type": "object",
		"required": ["id"],
		"properties": {"id": ` + idSchema + `}
	}`,
	shopify.KindProducts: `{
		"type": "object",
		"required": ["id"],
		"properties": {
			"id": ` + idSchema + `,
			"variants": {"type": ["array", "null"]}
		}
	}`,
	shopify.KindOrders: `{
		"type": "object",
		"required": ["id", "customer"],
		"properties": {
			"id": ` + idSchema + `,
			"customer": {
				"type": "object",
				"required": ["id"],
				"properties": {"id": ` + idSchema + `}
			}
		}
	}`,
}

var (
	compileOnce sync.Once
	compiled    map[shopify.Kind]*jsonschema.Schema
	compileErr  error
)

func payloadValidators() (map[shopify.Kind]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		c := jsonschema.NewCompiler()
		out := make(map[shopify.Kind]*jsonschema.Schema, len(payloadSchemas))
		for kind, text := range payloadSchemas {
			doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
			if err != nil {
				compileErr = fmt.Errorf("parse %s schema: %w", kind, err)
				return
			}
			url := schemaBase + string(kind) + ".json"
			if err := c.AddResource(url, doc); err != nil {
				compileErr = fmt.Errorf("add %s schema: %w", kind, err)
				return
			}
			sch, err := c.Compile(url)
			if err != nil {
				compileErr = fmt.Errorf("compile %s schema: %w", kind, err)
				return
			}
			out[kind] = sch
		}
		compiled = out
	})
	return compiled, compileErr
}

// WebhookIngestor applies single change events through the same mapping and
// upsert path as the reconciler.
type WebhookIngestor struct {
	Tenants repository.TenantRepository
	Mirror  repository.MirrorRepository
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

func (w *WebhookIngestor) Ingest(ctx context.Context, kind shopify.Kind, payload []byte, shopDomain string) error {
	err := w.ingest(ctx, kind, payload, shopDomain)
	w.Metrics.IncWebhook(string(kind), webhookOutcome(err))
	return err
}

func (w *WebhookIngestor) ingest(ctx context.Context, kind shopify.Kind, payload []byte, shopDomain string) error {
	domain := strings.TrimSpace(shopDomain)
	if domain == "" {
		return ErrMissingShopDomain
	}
	if !kind.Valid() {
		return &RejectedError{Kind: kind, Reason: "unsupported kind"}
	}
	tenant, err := w.Tenants.FindTenantByShopDomain(ctx, domain)
	if err != nil {
		return fmt.Errorf("resolve shop %s: %w", domain, err)
	}
	if tenant == nil {
		return ErrUnknownShop
	}

	validators, err := payloadValidators()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return &RejectedError{Kind: kind, Reason: "payload is not valid json", Err: err}
	}
	if err := validators[kind].Validate(inst); err != nil {
		return &RejectedError{Kind: kind, Reason: rejectionReason(kind), Err: err}
	}

	item, id, err := mapRecord(kind, tenant.ID, payload, w.now())
	if err != nil {
		return &RejectedError{Kind: kind, Reason: "payload could not be mapped", Err: err}
	}
	if order, ok := item.(*models.Order); ok && order.CustomerID == nil {
		return &RejectedError{Kind: kind, Reason: rejectionReason(kind)}
	}
	if err := upsertItem(ctx, w.Mirror, item); err != nil {
		return fmt.Errorf("upsert %s %s: %w", kind, id, err)
	}
	logger.FromContext(ctx, w.Logger).Info("webhook applied",
		zap.String("tenant_id", tenant.ID),
		zap.String("kind", string(kind)),
		zap.String("external_id", id),
	)
	return nil
}

func rejectionReason(kind shopify.Kind) string {
	if kind == shopify.KindOrders {
		return "missing id or customer id"
	}
	return "missing id"
}

func webhookOutcome(err error) string {
	var rejected *RejectedError
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrMissingShopDomain), errors.As(err, &rejected):
		return "rejected"
	case errors.Is(err, ErrUnknownShop):
		return "unknown_shop"
	default:
		return "error"
	}
}

func (w *WebhookIngestor) now() time.Time {
	if w.Now != nil {
		return w.Now().UTC()
	}
	return time.Now().UTC()
}
