package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/careerhub/careerhub/internal/permissions"
	"github.com/careerhub/careerhub/pkg/errors"
	"github.com/careerhub/careerhub/pkg/metrics"
	"github.com/careerhub/careerhub/pkg/response"
)

// RequirePermission checks that the authenticated user holds the permission
// identified by the module and type codes. A denied verdict yields 403 and
// never an error.
func RequirePermission(resolver *permissions.Resolver, moduleCode, typeCode string) gin.HandlerFunc {
	permissionName := permissions.PermissionName(moduleCode, typeCode)

	return func(c *gin.Context) {
		v, ok := c.Get(CtxUserIDKey)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}
		userID, _ := v.(string)

		verdict, err := resolver.Resolve(c.Request.Context(), userID, moduleCode, typeCode)
		if err != nil {
			metrics.PermissionChecks.WithLabelValues(permissionName, "error").Inc()
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error":   gin.H{"code": errors.ErrInternalServer.Code, "message": "permission check failed"},
			})
			return
		}
		if !verdict.Granted {
			metrics.PermissionChecks.WithLabelValues(permissionName, "denied").Inc()
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		metrics.PermissionChecks.WithLabelValues(permissionName, "granted").Inc()
		c.Next()
	}
}
