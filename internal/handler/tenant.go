package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopmirror/internal/repository"
)

type TenantHandler struct {
	Tenants repository.TenantRepository
	Auth    gin.HandlerFunc
	Logger  *zap.Logger
}

type credentialsRequest struct {
	ShopifyStoreURL    string  `json:"shopify_store_url" binding:"required"`
	ShopifyAccessToken string  `json:"shopify_access_token" binding:"required"`
	ShopifyAPIKey      *string `json:"shopify_api_key"`
}

func (h *TenantHandler) Register(r *gin.Engine) {
	group := r.Group("/api/tenant", withAuth(h.Auth)...)
	group.PUT("/credentials", h.updateCredentials)
}

// @Summary Set the Shopify store URL and access token
// @Tags tenant
// @Accept json
// @Produce json
// @Param body body credentialsRequest true "credentials"
// @Success 200 {object} tenantView
// @Failure 400 {object} map[string]any
// @Router /api/tenant/credentials [put]
func (h *TenantHandler) updateCredentials(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if strings.TrimSpace(req.ShopifyStoreURL) == "" || strings.TrimSpace(req.ShopifyAccessToken) == "" {
		Error(c, http.StatusBadRequest, "store url and access token are required", nil)
		return
	}
	tenant, err := h.Tenants.UpdateTenantCredentials(c.Request.Context(), tenantID(c), repository.CredentialsUpdate{
		StoreURL:    req.ShopifyStoreURL,
		AccessToken: req.ShopifyAccessToken,
		APIKey:      req.ShopifyAPIKey,
	})
	if err != nil {
		internalError(c.Request.Context(), h.Logger, "update credentials failed", err)
		Error(c, http.StatusInternalServerError, "update credentials failed", nil)
		return
	}
	if tenant == nil {
		Error(c, http.StatusNotFound, "tenant not found", nil)
		return
	}
	Ok(c, viewTenant(tenant), nil)
}
