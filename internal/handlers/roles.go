package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/cache"
	"github.com/careerhub/careerhub/internal/services"
	"github.com/careerhub/careerhub/pkg/response"
)

type RoleHandler struct {
	svc *services.RoleService
}

func NewRoleHandler(db *gorm.DB, store cache.Store) (*RoleHandler, error) {
	svc, err := services.NewRoleService(db, store)
	if err != nil {
		return nil, err
	}
	return &RoleHandler{svc: svc}, nil
}

type createRoleRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=128"`
	Code         string  `json:"code" validate:"required,min=2,max=64"`
	Description  string  `json:"description" validate:"max=512"`
	CompanyID    *string `json:"company_id"`
	DepartmentID *string `json:"department_id"`
}

type updateRoleRequest struct {
	Name        string `json:"name" validate:"omitempty,min=2,max=128"`
	Description string `json:"description" validate:"max=512"`
}

type updateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids"`
}

type deleteRoleRequest struct {
	Reason string `json:"reason" validate:"max=512"`
}

// GET /api/roles
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.svc.ListRoles(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}

// GET /api/roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	role, err := h.svc.GetRole(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, role)
}

// POST /api/roles
func (h *RoleHandler) Create(c *gin.Context) {
	var req createRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	role, err := h.svc.CreateRole(requestContext(c), services.CreateRoleInput{
		Name:         req.Name,
		Code:         req.Code,
		Description:  req.Description,
		CompanyID:    req.CompanyID,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, role)
}

// PUT /api/roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	var req updateRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	role, err := h.svc.UpdateRole(requestContext(c), c.Param("id"), services.UpdateRoleInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, role)
}

// DELETE /api/roles/:id
func (h *RoleHandler) Delete(c *gin.Context) {
	var req deleteRoleRequest
	// The body is optional; a missing reason is allowed for role deletion.
	_ = c.ShouldBindJSON(&req)

	if err := h.svc.DeleteRole(requestContext(c), c.Param("id"), req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// PUT /api/roles/:id/permissions
func (h *RoleHandler) UpdatePermissions(c *gin.Context) {
	var req updateRolePermissionsRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.svc.UpdateRolePermissions(requestContext(c), c.Param("id"), req.PermissionIDs); err != nil {
		response.Error(c, err)
		return
	}

	role, err := h.svc.GetRole(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, role)
}
