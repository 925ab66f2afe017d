package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopmirror/internal/auth"
	"shopmirror/internal/client/shopify"
	"shopmirror/internal/logger"
	"shopmirror/internal/service"
)

const (
	shopDomainHeader = "X-Shopify-Shop-Domain"
	hmacHeader       = "X-Shopify-Hmac-Sha256"
	maxWebhookBody   = 2 << 20
)

type Ingestor interface {
	Ingest(ctx context.Context, kind shopify.Kind, payload []byte, shopDomain string) error
}

// WebhookHandler is public; when Secret is set every delivery must carry a
// valid Shopify HMAC signature.
type WebhookHandler struct {
	Ingestor Ingestor
	Secret   string
	Logger   *zap.Logger
}

func (h *WebhookHandler) Register(r *gin.Engine) {
	group := r.Group("/api/webhooks")
	for topic, kind := range service.WebhookTopics {
		group.POST("/"+topic, h.receive(kind))
	}
}

// @Summary Receive a Shopify webhook
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Shopify-Shop-Domain header string true "shop domain"
// @Param X-Shopify-Hmac-Sha256 header string false "base64 HMAC of the body"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 401 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Failure 413 {object} map[string]any
// @Router /api/webhooks/{resource}/{event} [post]
func (h *WebhookHandler) receive(kind shopify.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.FromContext(c.Request.Context(), h.Logger)
		if h.Ingestor == nil {
			Error(c, http.StatusInternalServerError, "webhooks unavailable", nil)
			return
		}
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil {
			Error(c, http.StatusBadRequest, "unreadable body", nil)
			return
		}
		if len(body) > maxWebhookBody {
			log.Warn("webhook body too large", zap.String("kind", string(kind)))
			Error(c, http.StatusRequestEntityTooLarge, "payload too large", nil)
			return
		}
		if h.Secret != "" && !auth.VerifyWebhook(h.Secret, body, c.GetHeader(hmacHeader)) {
			log.Warn("webhook signature mismatch", zap.String("kind", string(kind)))
			Error(c, http.StatusUnauthorized, "invalid webhook signature", nil)
			return
		}

		err = h.Ingestor.Ingest(c.Request.Context(), kind, body, c.GetHeader(shopDomainHeader))
		var rejected *service.RejectedError
		switch {
		case err == nil:
			Ok(c, gin.H{"received": true}, nil)
		case errors.Is(err, service.ErrMissingShopDomain):
			Error(c, http.StatusBadRequest, err.Error(), nil)
		case errors.Is(err, service.ErrUnknownShop):
			Error(c, http.StatusNotFound, err.Error(), nil)
		case errors.As(err, &rejected):
			log.Warn("webhook rejected", zap.Error(err))
			Error(c, http.StatusBadRequest, rejected.Reason, nil)
		default:
			log.Error("webhook failed", zap.String("kind", string(kind)), zap.Error(err))
			Error(c, http.StatusInternalServerError, "webhook processing failed", nil)
		}
	}
}
