package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shopmirror/internal/auth"
	"shopmirror/internal/logger"
	"shopmirror/internal/models"
	"shopmirror/internal/repository"
)

type AuthHandler struct {
	Tenants      repository.TenantRepository
	JWT          auth.JWT
	Blacklist    *auth.Blacklist
	Auth         gin.HandlerFunc
	CookieName   string
	CookieSecure bool
	Logger       *zap.Logger
}

type registerRequest struct {
	Email              string `json:"email" binding:"required,email"`
	Password           string `json:"password" binding:"required,min=8"`
	ShopName           string `json:"shop_name" binding:"required"`
	ShopifyStoreURL    string `json:"shopify_store_url" binding:"required"`
	ShopifyAccessToken string `json:"shopify_access_token"`
	ShopifyAPIKey      string `json:"shopify_api_key"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tenantView struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	ShopName        string    `json:"shop_name"`
	ShopifyStoreURL string    `json:"shopify_store_url"`
	HasShopifyToken bool      `json:"has_shopify_token"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type sessionView struct {
	Token     string     `json:"token"`
	ExpiresAt string     `json:"expires_at"`
	Tenant    tenantView `json:"tenant"`
}

func viewTenant(t *models.Tenant) tenantView {
	return tenantView{
		ID:              t.ID,
		Email:           t.Email,
		ShopName:        t.ShopName,
		ShopifyStoreURL: t.ShopifyStoreURL,
		HasShopifyToken: t.HasAccessToken(),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func (h *AuthHandler) Register(r *gin.Engine) {
	group := r.Group("/api/auth")
	group.POST("/register", h.register)
	group.POST("/login", h.login)
	protected := group.Group("", withAuth(h.Auth)...)
	protected.POST("/logout", h.logout)
	protected.GET("/profile", h.profile)
}

// @Summary Register a tenant
// @Tags auth
// @Accept json
// @Produce json
// @Param body body registerRequest true "tenant"
// @Success 200 {object} sessionView
// @Failure 409 {object} map[string]any
// @Router /api/auth/register [post]
func (h *AuthHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	ctx := c.Request.Context()
	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := h.Tenants.GetTenantByEmail(ctx, email)
	if err != nil {
		h.internal(c, "lookup tenant failed", err)
		return
	}
	if existing != nil {
		Error(c, http.StatusConflict, "email already registered", nil)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internal(c, "hash password failed", err)
		return
	}
	now := time.Now().UTC()
	tenant := &models.Tenant{
		ID:              uuid.NewString(),
		Email:           email,
		PasswordHash:    hash,
		ShopName:        strings.TrimSpace(req.ShopName),
		ShopifyStoreURL: strings.TrimSpace(req.ShopifyStoreURL),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if tok := strings.TrimSpace(req.ShopifyAccessToken); tok != "" {
		tenant.ShopifyAccessToken = &tok
	}
	if key := strings.TrimSpace(req.ShopifyAPIKey); key != "" {
		tenant.ShopifyAPIKey = &key
	}
	if err := h.Tenants.CreateTenant(ctx, tenant); err != nil {
		h.internal(c, "create tenant failed", err)
		return
	}
	h.startSession(c, tenant)
}

// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "credentials"
// @Success 200 {object} sessionView
// @Failure 401 {object} map[string]any
// @Router /api/auth/login [post]
func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	tenant, err := h.Tenants.GetTenantByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.internal(c, "lookup tenant failed", err)
		return
	}
	if tenant == nil || !auth.CheckPassword(tenant.PasswordHash, req.Password) {
		Error(c, http.StatusUnauthorized, "invalid email or password", nil)
		return
	}
	h.startSession(c, tenant)
}

func (h *AuthHandler) startSession(c *gin.Context, tenant *models.Tenant) {
	tok, exp, err := h.JWT.Sign(auth.Claims{TenantID: tenant.ID, Email: tenant.Email})
	if err != nil {
		h.internal(c, "sign token failed", err)
		return
	}
	if h.CookieName != "" {
		maxAge := int(time.Until(exp).Seconds())
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(h.CookieName, tok, maxAge, "/", "", h.CookieSecure, true)
	}
	Ok(c, sessionView{
		Token:     tok,
		ExpiresAt: exp.UTC().Format(time.RFC3339),
		Tenant:    viewTenant(tenant),
	}, nil)
}

// @Summary Log out and revoke the current token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/auth/logout [post]
func (h *AuthHandler) logout(c *gin.Context) {
	tok := c.GetString(ctxToken)
	if claims, ok := c.Get(ctxClaims); ok {
		if cl, ok := claims.(auth.Claims); ok && cl.ExpiresAt != nil {
			if err := h.Blacklist.Revoke(c.Request.Context(), tok, cl.ExpiresAt.Time); err != nil {
				h.internal(c, "revoke token failed", err)
				return
			}
		}
	}
	if h.CookieName != "" {
		c.SetCookie(h.CookieName, "", -1, "/", "", h.CookieSecure, true)
	}
	Ok(c, gin.H{"logged_out": true}, nil)
}

// @Summary Current tenant profile
// @Tags auth
// @Produce json
// @Success 200 {object} tenantView
// @Router /api/auth/profile [get]
func (h *AuthHandler) profile(c *gin.Context) {
	tenant, err := h.Tenants.GetTenantByID(c.Request.Context(), tenantID(c))
	if err != nil {
		h.internal(c, "load tenant failed", err)
		return
	}
	if tenant == nil {
		Error(c, http.StatusNotFound, "tenant not found", nil)
		return
	}
	Ok(c, viewTenant(tenant), nil)
}

func (h *AuthHandler) internal(c *gin.Context, msg string, err error) {
	internalError(c.Request.Context(), h.Logger, msg, err)
	Error(c, http.StatusInternalServerError, msg, nil)
}

func internalError(ctx context.Context, fallback *zap.Logger, msg string, err error) {
	logger.FromContext(ctx, fallback).Error(msg, zap.Error(err))
}
