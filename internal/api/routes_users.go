package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careerhub/careerhub/internal/handlers"
	"github.com/careerhub/careerhub/internal/middleware"
	"github.com/careerhub/careerhub/internal/permissions"
)

func registerUserRoutes(api *gin.RouterGroup, assignments *handlers.AssignmentHandler, overrides *handlers.OverrideHandler, perms *handlers.PermissionHandler, resolver *permissions.Resolver) {
	users := api.Group("/users")
	{
		users.GET("/:id/roles", middleware.RequirePermission(resolver, "USERS", "R"), assignments.ListForUser)
		users.POST("/:id/roles", middleware.RequirePermission(resolver, "USERS", "M"), assignments.Assign)
		users.DELETE("/:id/roles/:roleID", middleware.RequirePermission(resolver, "USERS", "M"), assignments.Remove)

		users.GET("/:id/overrides", middleware.RequirePermission(resolver, "USERS", "R"), overrides.ListForUser)
		users.POST("/:id/overrides", middleware.RequirePermission(resolver, "USERS", "M"), overrides.Create)
		users.DELETE("/:id/overrides/:module/:type", middleware.RequirePermission(resolver, "USERS", "M"), overrides.Delete)

		users.GET("/:id/permissions", middleware.RequirePermission(resolver, "USERS", "R"), perms.Matrix)
		users.GET("/:id/permissions/check", middleware.RequirePermission(resolver, "USERS", "R"), perms.Check)
	}
}
