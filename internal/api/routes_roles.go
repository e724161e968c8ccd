package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careerhub/careerhub/internal/handlers"
	"github.com/careerhub/careerhub/internal/middleware"
	"github.com/careerhub/careerhub/internal/permissions"
)

func registerRoleRoutes(api *gin.RouterGroup, handler *handlers.RoleHandler, resolver *permissions.Resolver) {
	roles := api.Group("/roles")
	{
		roles.GET("", middleware.RequirePermission(resolver, "ROLES", "R"), handler.List)
		roles.GET("/:id", middleware.RequirePermission(resolver, "ROLES", "R"), handler.Get)
		roles.POST("", middleware.RequirePermission(resolver, "ROLES", "C"), handler.Create)
		roles.PUT("/:id", middleware.RequirePermission(resolver, "ROLES", "U"), handler.Update)
		roles.DELETE("/:id", middleware.RequirePermission(resolver, "ROLES", "D"), handler.Delete)
		roles.PUT("/:id/permissions", middleware.RequirePermission(resolver, "ROLES", "M"), handler.UpdatePermissions)
	}
}
