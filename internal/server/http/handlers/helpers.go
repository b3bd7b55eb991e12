package handlers

import (
	"github.com/gin-gonic/gin"

	pkgAuth "github.com/quickserve/dispatch/internal/pkg/auth"
	"github.com/quickserve/dispatch/internal/server/http/middleware"
)

// CurrentActorID extracts the authenticated actor identifier from context.
func CurrentActorID(c *gin.Context) int64 {
	val, ok := c.Get(middleware.ActorIDContextKey)
	if !ok {
		return 0
	}
	id, _ := val.(int64)
	return id
}

// CurrentRole extracts the authenticated actor role from context.
func CurrentRole(c *gin.Context) pkgAuth.Role {
	val, ok := c.Get(middleware.RoleContextKey)
	if !ok {
		return ""
	}
	role, _ := val.(pkgAuth.Role)
	return role
}
