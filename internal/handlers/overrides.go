package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/cache"
	"github.com/careerhub/careerhub/internal/services"
	"github.com/careerhub/careerhub/pkg/errors"
	"github.com/careerhub/careerhub/pkg/response"
)

type OverrideHandler struct {
	svc *services.OverrideService
}

func NewOverrideHandler(db *gorm.DB, store cache.Store) (*OverrideHandler, error) {
	svc, err := services.NewOverrideService(db, store)
	if err != nil {
		return nil, err
	}
	return &OverrideHandler{svc: svc}, nil
}

type createOverrideRequest struct {
	Module         string     `json:"module" validate:"required"`
	PermissionType string     `json:"permission_type" validate:"required,len=1"`
	IsGranted      *bool      `json:"is_granted" validate:"required"`
	Reason         string     `json:"reason" validate:"required,min=3,max=512"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

type deleteOverrideRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=512"`
}

// GET /api/users/:id/overrides
func (h *OverrideHandler) ListForUser(c *gin.Context) {
	overrides, err := h.svc.ListForUser(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, overrides)
}

// POST /api/users/:id/overrides
func (h *OverrideHandler) Create(c *gin.Context) {
	var req createOverrideRequest
	if !bindAndValidate(c, &req) {
		return
	}

	override, err := h.svc.CreateOverride(requestContext(c), services.CreateOverrideInput{
		UserID:         c.Param("id"),
		ModuleCode:     req.Module,
		PermissionType: req.PermissionType,
		IsGranted:      *req.IsGranted,
		Reason:         req.Reason,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, override)
}

// DELETE /api/users/:id/overrides/:module/:type
func (h *OverrideHandler) Delete(c *gin.Context) {
	var req deleteOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errors.NewBadRequest("invalid JSON payload"))
		return
	}

	err := h.svc.DeleteOverride(requestContext(c), c.Param("id"), c.Param("module"), c.Param("type"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
