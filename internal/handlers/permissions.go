package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/cache"
	"github.com/careerhub/careerhub/internal/middleware"
	"github.com/careerhub/careerhub/internal/permissions"
	"github.com/careerhub/careerhub/internal/services"
	"github.com/careerhub/careerhub/pkg/errors"
	"github.com/careerhub/careerhub/pkg/response"
)

// snapshotCacheTTL bounds how long a cached permission matrix may serve the
// "my permissions" view. The cache is advisory: every mutation drops the
// affected user's entry, and enforcement always goes through the resolver.
const snapshotCacheTTL = 24 * time.Hour

type PermissionHandler struct {
	resolver *permissions.Resolver
	store    cache.Store
}

func NewPermissionHandler(db *gorm.DB, store cache.Store) (*PermissionHandler, error) {
	resolver, err := permissions.NewResolver(db)
	if err != nil {
		return nil, err
	}
	return &PermissionHandler{resolver: resolver, store: store}, nil
}

// GET /api/permissions/catalog
func (h *PermissionHandler) Catalog(c *gin.Context) {
	response.Success(c, http.StatusOK, permissions.BuildCatalog())
}

// GET /api/users/:id/permissions/check?module=EMPLOYEES&type=R
func (h *PermissionHandler) Check(c *gin.Context) {
	moduleCode := c.Query("module")
	typeCode := c.Query("type")
	if moduleCode == "" || typeCode == "" {
		response.Error(c, errors.NewBadRequest("module and type query parameters are required"))
		return
	}

	verdict, err := h.resolver.Resolve(requestContext(c), c.Param("id"), moduleCode, typeCode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, verdict)
}

// GET /api/users/:id/permissions
func (h *PermissionHandler) Matrix(c *gin.Context) {
	matrix, err := h.resolver.ResolveAll(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, matrix)
}

// GET /api/me/permissions
//
// Serves the caller's own matrix through the advisory cache when one is
// configured. Stale entries cannot outlive a permission change: mutations
// invalidate them and the TTL caps drift in the worst case.
func (h *PermissionHandler) MyPermissions(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	ctx := requestContext(c)
	key := services.PermissionCacheKey(userID)

	if h.store != nil {
		if raw, ok, err := h.store.Get(ctx, key); err == nil && ok {
			var cached []permissions.ResolvedPermission
			if json.Unmarshal(raw, &cached) == nil {
				response.Success(c, http.StatusOK, cached)
				return
			}
		}
	}

	matrix, err := h.resolver.ResolveAll(ctx, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if h.store != nil {
		if raw, err := json.Marshal(matrix); err == nil {
			_ = h.store.Set(ctx, key, raw, snapshotCacheTTL)
		}
	}

	response.Success(c, http.StatusOK, matrix)
}
