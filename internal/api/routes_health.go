package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careerhub/careerhub/internal/handlers"
)

func registerHealthRoutes(r *gin.Engine) {
	r.GET("/health", handlers.Health())
}
