package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medidesk/clinic-api/internal/handler"
	"github.com/medidesk/clinic-api/internal/model"
	"github.com/medidesk/clinic-api/internal/repository"
	"github.com/medidesk/clinic-api/pkg/auth"
)

const contextClaims = "claims"

type AuthMiddleware struct {
	jwtSvc auth.JWTService
	tokens repository.TokenRepository
}

func NewAuthMiddleware(jwtSvc auth.JWTService, tokens repository.TokenRepository) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc, tokens: tokens}
}

// Authenticate verifies the bearer token and sets the session claims in
// the request context. Revoked tokens are treated the same as missing
// ones.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims, err := m.jwtSvc.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			return
		}

		revoked, err := m.tokens.IsSessionRevoked(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, handler.NewErrorResponse("session store unavailable"))
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("session has been signed out"))
			return
		}

		c.Set(contextClaims, claims)
		c.Next()
	}
}

// RequireRole gates a route group to one of the two staff roles.
func (m *AuthMiddleware) RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFrom(c)
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, handler.NewErrorResponse("missing session"))
			return
		}
		if claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, handler.NewErrorResponse("insufficient role"))
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the authenticated session claims, or nil outside an
// authenticated route.
func ClaimsFrom(c *gin.Context) *model.TokenClaims {
	if v, exists := c.Get(contextClaims); exists {
		if claims, ok := v.(*model.TokenClaims); ok {
			return claims
		}
	}
	return nil
}
