package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/graph-api/internal/http/response"
	"github.com/yungbote/graph-api/internal/platform/logger"
	"github.com/yungbote/graph-api/internal/services"
)

const authzContextKey = "authorization"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

// RequireAuth resolves the bearer credential to an AuthorizationContext and
// attaches it to the request. Rejections short-circuit before any query runs.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractToken(c)
		if raw == "" {
			response.RespondError(c, 401, "unauthenticated", errMissingToken)
			c.Abort()
			return
		}
		ctx, authz, err := am.authService.ContextFromToken(c.Request.Context(), raw)
		if err != nil {
			response.RespondAPIError(c, err)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Set(authzContextKey, authz)
		c.Next()
	}
}

// RequireScopes is the declarative per-route policy: the route states what it
// needs, the one generic gate evaluates it. Identities holding the admin
// scope pass unconditionally.
func (am *AuthMiddleware) RequireScopes(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := AuthorizationFrom(c)
		if err := am.authService.RequireScopes(authz, required...); err != nil {
			response.RespondAPIError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func AuthorizationFrom(c *gin.Context) *services.AuthorizationContext {
	if v, ok := c.Get(authzContextKey); ok {
		if authz, ok := v.(*services.AuthorizationContext); ok {
			return authz
		}
	}
	return services.AuthorizationFrom(c.Request.Context())
}

var errMissingToken = errors.New("missing or invalid token")

func extractToken(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
