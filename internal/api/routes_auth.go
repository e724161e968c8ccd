package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careerhub/careerhub/internal/handlers"
)

func registerPublicAuthRoutes(api *gin.RouterGroup, handler *handlers.AuthHandler) {
	auth := api.Group("/auth")
	{
		auth.POST("/login", handler.Login)
		auth.GET("/sso", handler.BeginSSO)
		auth.GET("/sso/callback", handler.SSOCallback)
	}
}

func registerAuthRoutes(api *gin.RouterGroup, handler *handlers.AuthHandler) {
	api.GET("/auth/me", handler.Me)
}
