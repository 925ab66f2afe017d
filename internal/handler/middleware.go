package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shopmirror/internal/auth"
	"shopmirror/internal/logger"
)

const (
	requestIDHeader = "X-Request-ID"

	ctxTenantID = "tenant_id"
	ctxToken    = "auth_token"
	ctxClaims   = "auth_claims"
)

// RequestLogger tags each request with a request id, stores a scoped logger
// in the request context and writes one access line when the handler is
// done.
func RequestLogger(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		rid := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(requestIDHeader, rid)
		l := base.With(zap.String("request_id", rid))
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), l))

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		}
		if tid := c.GetString(ctxTenantID); tid != "" {
			fields = append(fields, zap.String("tenant_id", tid))
		}
		switch levelFromStatus(status) {
		case "error":
			l.Error("http request", fields...)
		case "warn":
			l.Warn("http request", fields...)
		default:
			l.Info("http request", fields...)
		}
	}
}

func levelFromStatus(status int) string {
	if status >= 500 {
		return "error"
	}
	if status >= 400 {
		return "warn"
	}
	return "info"
}

// TokenAuth accepts a bearer token or the session cookie, rejects tokens
// revoked by logout and exposes the tenant id to handlers.
func TokenAuth(j auth.JWT, blacklist *auth.Blacklist, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearerToken(c.GetHeader("Authorization"))
		if tok == "" && cookieName != "" {
			if v, err := c.Cookie(cookieName); err == nil {
				tok = strings.TrimSpace(v)
			}
		}
		if tok == "" {
			Abort(c, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := j.Verify(tok)
		if err != nil {
			Abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		revoked, err := blacklist.IsRevoked(c.Request.Context(), tok)
		if err != nil {
			logger.FromContext(c.Request.Context(), nil).Error("blacklist lookup failed", zap.Error(err))
			Abort(c, http.StatusServiceUnavailable, "auth backend unavailable")
			return
		}
		if revoked {
			Abort(c, http.StatusUnauthorized, "token revoked")
			return
		}
		c.Set(ctxTenantID, claims.TenantID)
		c.Set(ctxToken, tok)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func tenantID(c *gin.Context) string {
	return c.GetString(ctxTenantID)
}

func bearerToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	parts := strings.SplitN(v, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func withAuth(mw gin.HandlerFunc) []gin.HandlerFunc {
	if mw == nil {
		return nil
	}
	return []gin.HandlerFunc{mw}
}
