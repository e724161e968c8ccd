package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careerhub/careerhub/internal/handlers"
	"github.com/careerhub/careerhub/internal/middleware"
	"github.com/careerhub/careerhub/internal/permissions"
)

func registerAuditRoutes(api *gin.RouterGroup, handler *handlers.AuditHandler, resolver *permissions.Resolver) {
	audit := api.Group("/audit")
	{
		audit.GET("", middleware.RequirePermission(resolver, "AUDIT", "R"), handler.List)
		audit.GET("/export", middleware.RequirePermission(resolver, "AUDIT", "M"), handler.Export)
	}
}
