package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# shopmirror

Mirrors each tenant's Shopify customers, products and orders into Postgres.

## Auth

Routes under /api/sync and /api/tenant, plus /api/auth/logout and
/api/auth/profile, need a token from /api/auth/login, sent as a Bearer
header or in the session cookie. Webhooks are public and checked with
X-Shopify-Hmac-Sha256 when a webhook secret is configured.

## Routes

- GET /healthz
- GET /readyz
- GET /metrics
- GET /swagger/index.html
- POST /api/auth/register
- POST /api/auth/login
- POST /api/auth/logout
- GET /api/auth/profile
- PUT /api/tenant/credentials
- POST /api/sync/start
- POST /api/sync/customers
- POST /api/sync/products
- POST /api/sync/orders
- GET /api/sync/status?limit=20
- GET /api/sync/stream (websocket)
- POST /api/webhooks/customers/create
- POST /api/webhooks/customers/update
- POST /api/webhooks/products/create
- POST /api/webhooks/products/update
- POST /api/webhooks/orders/create
- POST /api/webhooks/orders/updated
`)
	})
}
