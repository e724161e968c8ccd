package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/cache"
	"github.com/careerhub/careerhub/internal/services"
	"github.com/careerhub/careerhub/pkg/response"
)

type AssignmentHandler struct {
	svc *services.AssignmentService
}

func NewAssignmentHandler(db *gorm.DB, store cache.Store) (*AssignmentHandler, error) {
	svc, err := services.NewAssignmentService(db, store)
	if err != nil {
		return nil, err
	}
	return &AssignmentHandler{svc: svc}, nil
}

type assignRoleRequest struct {
	RoleID    string     `json:"role_id" validate:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
	Reason    string     `json:"reason" validate:"max=512"`
}

type removeRoleRequest struct {
	Reason string `json:"reason" validate:"max=512"`
}

// GET /api/users/:id/roles
func (h *AssignmentHandler) ListForUser(c *gin.Context) {
	assignments, err := h.svc.ListForUser(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, assignments)
}

// POST /api/users/:id/roles
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var req assignRoleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	assignment, err := h.svc.AssignRole(requestContext(c), services.AssignRoleInput{
		UserID:    c.Param("id"),
		RoleID:    req.RoleID,
		ExpiresAt: req.ExpiresAt,
		Reason:    req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, assignment)
}

// DELETE /api/users/:id/roles/:roleID
func (h *AssignmentHandler) Remove(c *gin.Context) {
	var req removeRoleRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.svc.RemoveRole(requestContext(c), c.Param("id"), c.Param("roleID"), req.Reason); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}
