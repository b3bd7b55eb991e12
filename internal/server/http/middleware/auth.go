package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/quickserve/dispatch/internal/pkg/auth"
)

const (
	// ActorIDContextKey is a gin context key for the authenticated actor id.
	ActorIDContextKey = "actorID"
	// RoleContextKey is a gin context key for the authenticated actor role.
	RoleContextKey = "actorRole"
)

// TokenParser validates device tokens.
type TokenParser interface {
	ParseToken(token string) (int64, pkgAuth.Role, error)
}

// AuthRequired ensures the request carries a valid device token with one of
// the allowed roles. No roles means any authenticated actor.
func AuthRequired(parser TokenParser, roles ...pkgAuth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		actorID, role, err := parser.ParseToken(token)
		if err != nil {
			if errors.Is(err, pkgAuth.ErrInvalidToken) {
				c.AbortWithStatus(http.StatusUnauthorized)
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		if len(roles) > 0 && !roleAllowed(role, roles) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		c.Set(ActorIDContextKey, actorID)
		c.Set(RoleContextKey, role)
		c.Next()
	}
}

func roleAllowed(role pkgAuth.Role, allowed []pkgAuth.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	// Browsers cannot set headers on websocket upgrades.
	return c.Query("token")
}
