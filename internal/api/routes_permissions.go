package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careerhub/careerhub/internal/handlers"
)

func registerPermissionRoutes(api *gin.RouterGroup, handler *handlers.PermissionHandler) {
	// The catalog is static and the personal matrix is scoped to the caller,
	// so neither needs more than an authenticated session.
	api.GET("/permissions/catalog", handler.Catalog)
	api.GET("/me/permissions", handler.MyPermissions)
}
