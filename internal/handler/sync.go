package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"shopmirror/internal/client/shopify"
	"shopmirror/internal/logger"
	"shopmirror/internal/models"
	"shopmirror/internal/service"
)

type Syncer interface {
	Reconcile(ctx context.Context, tenantID string, kind shopify.Kind) (service.Result, error)
	ReconcileAll(ctx context.Context, tenantID string) (service.AllResult, error)
}

type SyncLedger interface {
	Status(ctx context.Context, tenantID string, limit int) (service.SyncStatus, error)
	Subscribe(tenantID string) (<-chan models.SyncLog, func())
}

type SyncHandler struct {
	Syncer Syncer
	Ledger SyncLedger
	Auth   gin.HandlerFunc
	Logger *zap.Logger
	// OriginPatterns is passed to the websocket upgrade; empty means same origin only.
	OriginPatterns []string
}

func (h *SyncHandler) Register(r *gin.Engine) {
	group := r.Group("/api/sync", withAuth(h.Auth)...)
	group.POST("/start", h.startAll)
	for _, kind := range shopify.Kinds {
		group.POST("/"+string(kind), h.startKind(kind))
	}
	group.GET("/status", h.status)
	group.GET("/stream", h.stream)
}

// @Summary Sync customers, products and orders
// @Tags sync
// @Produce json
// @Success 200 {object} service.AllResult
// @Failure 400 {object} map[string]any
// @Failure 404 {object} map[string]any
// @Router /api/sync/start [post]
func (h *SyncHandler) startAll(c *gin.Context) {
	if h.Syncer == nil {
		Error(c, http.StatusInternalServerError, "sync unavailable", nil)
		return
	}
	res, err := h.Syncer.ReconcileAll(c.Request.Context(), tenantID(c))
	if err != nil {
		h.syncError(c, err)
		return
	}
	Ok(c, res, nil)
}

// @Summary Sync one entity kind
// @Tags sync
// @Produce json
// @Param kind path string true "customers, products or orders"
// @Success 200 {object} service.Result
// @Failure 400 {object} map[string]any
// @Router /api/sync/{kind} [post]
func (h *SyncHandler) startKind(kind shopify.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.Syncer == nil {
			Error(c, http.StatusInternalServerError, "sync unavailable", nil)
			return
		}
		res, err := h.Syncer.Reconcile(c.Request.Context(), tenantID(c), kind)
		if err != nil {
			h.syncError(c, err)
			return
		}
		Ok(c, res, nil)
	}
}

func (h *SyncHandler) syncError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTenantNotFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrCredentialsMissing):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		logger.FromContext(c.Request.Context(), h.Logger).Error("sync request failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "sync failed", nil)
	}
}

// @Summary Recent sync attempts and per kind/status counts
// @Tags sync
// @Produce json
// @Param limit query int false "number of recent rows (default 20)"
// @Success 200 {object} service.SyncStatus
// @Router /api/sync/status [get]
func (h *SyncHandler) status(c *gin.Context) {
	if h.Ledger == nil {
		Error(c, http.StatusInternalServerError, "ledger unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 20)
	st, err := h.Ledger.Status(c.Request.Context(), tenantID(c), limit)
	if err != nil {
		logger.FromContext(c.Request.Context(), h.Logger).Error("sync status failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, "status unavailable", nil)
		return
	}
	Ok(c, st, map[string]any{"limit": limit})
}

// @Summary Live feed of sync ledger rows (websocket)
// @Tags sync
// @Router /api/sync/stream [get]
func (h *SyncHandler) stream(c *gin.Context) {
	if h.Ledger == nil {
		Error(c, http.StatusInternalServerError, "ledger unavailable", nil)
		return
	}
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: h.OriginPatterns,
	})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	rows, cancel := h.Ledger.Subscribe(tenantID(c))
	defer cancel()
	ctx := conn.CloseRead(c.Request.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case row, ok := <-rows:
			if !ok {
				conn.Close(websocket.StatusTryAgainLater, "subscriber too slow")
				return
			}
			b, err := json.Marshal(row)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, b); err != nil {
				return
			}
		}
	}
}
