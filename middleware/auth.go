package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"code-review-market/models"
	"code-review-market/services"
	"code-review-market/utils"
)

const userKey = "user"

// TokenResolver turns a bearer token into the active user it belongs to.
// services.AuthService satisfies it.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware requires an "Authorization: Bearer <token>" header and
// stores the resolved user in the context.
func AuthMiddleware(auth TokenResolver, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, string(services.KindUnauthorized), "authorization header required")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, string(services.KindUnauthorized), "token must be in format: Bearer <token>")
			return
		}
		authenticate(c, auth, log, token)
	}
}

// WebSocketAuthMiddleware reads the token from the "token" query parameter,
// since browsers cannot set headers on a websocket handshake.
func WebSocketAuthMiddleware(auth TokenResolver, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, string(services.KindUnauthorized), "token query parameter required")
			return
		}
		authenticate(c, auth, log, token)
	}
}

func authenticate(c *gin.Context, auth TokenResolver, log *zap.Logger, token string) {
	user, err := auth.Resolve(c.Request.Context(), token)
	if err != nil {
		switch services.KindOf(err) {
		case services.KindUnauthorized:
			utils.AbortWithError(c, http.StatusUnauthorized, string(services.KindUnauthorized), "token is invalid or expired")
		case services.KindForbidden:
			utils.AbortWithError(c, http.StatusForbidden, string(services.KindForbidden), "account is deactivated")
		default:
			log.Error("failed to resolve token", zap.Error(err), zap.String("path", c.FullPath()))
			utils.AbortWithError(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
		}
		return
	}
	c.Set(userKey, user)
	c.Next()
}

// CurrentUser returns the authenticated user, or nil on unauthenticated routes.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// RequireRole rejects callers whose role differs. It must run after AuthMiddleware.
func RequireRole(role models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			utils.AbortWithError(c, http.StatusUnauthorized, string(services.KindUnauthorized), "authentication required")
			return
		}
		if user.Role != role {
			utils.AbortWithError(c, http.StatusForbidden, string(services.KindForbidden), "only a "+string(role)+" can do this")
			return
		}
		c.Next()
	}
}
