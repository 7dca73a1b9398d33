package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/tokenforge/internal/domain/service"
	"github.com/turtacn/tokenforge/pkg/logger"
)

// ClaimsContextKey is the gin context key under which verified claims are
// stored by RequireToken.
const ClaimsContextKey = "token_claims"

// extractBearer pulls the token out of an Authorization header.
func extractBearer(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// RequireToken protects routes behind a valid bearer token. Verified claims
// are stored under ClaimsContextKey for downstream handlers.
func RequireToken(tokens service.TokenService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractBearer(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := tokens.VerifyToken(c.Request.Context(), raw)
		if err != nil {
			log.Warn(c.Request.Context(), "Token verification failed", logger.Err(err))
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}

// RequestID assigns each request a request ID, honoring an inbound
// X-Request-ID header when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
