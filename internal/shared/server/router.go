package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vault-backend/internal/documents"
	"vault-backend/internal/grants"
	"vault-backend/internal/identity"
	"vault-backend/internal/shared/config"
	"vault-backend/internal/shared/server/middleware"
	"vault-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config          config.Config
	DocumentHandler *documents.Handler
	GrantHandler    *grants.Handler
	IdentityHandler *identity.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"OTP": {Rate: 0.2, Burst: 3},
			},
			GroupFor: func(c *gin.Context) string {
				if strings.HasSuffix(c.Request.URL.Path, "/otp/request") ||
					strings.HasSuffix(c.Request.URL.Path, "/me/phone/code") {
					return "OTP"
				}
				return ""
			},
		}),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.IdentityHandler != nil {
		deps.IdentityHandler.RegisterPublicRoutes(api)
		deps.IdentityHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.GrantHandler != nil {
		deps.GrantHandler.RegisterRoutes(api)
		deps.GrantHandler.RegisterPublicRoutes(api)
	}

	if deps.Config.ObjectStoreType == "local" && deps.Config.LocalStoreDir != "" {
		r.Static("/files", deps.Config.LocalStoreDir)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
