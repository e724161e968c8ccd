package models

import (
	"time"

	"gorm.io/gorm"
)

// RolePermission is the join row granting a permission to a role. Registered
// as the custom join table for Role.Permissions so the grant timestamp and
// grantor survive association writes.
type RolePermission struct {
	RoleID       string `gorm:"primaryKey;type:uuid" json:"role_id"`
	PermissionID string `gorm:"primaryKey;type:uuid" json:"permission_id"`

	GrantedAt time.Time `json:"granted_at"`
	GrantedBy string    `json:"granted_by"`
}

// BeforeCreate stamps the grant time when the association layer inserts rows.
func (rp *RolePermission) BeforeCreate(tx *gorm.DB) error {
	if rp.GrantedAt.IsZero() {
		rp.GrantedAt = time.Now()
	}
	return nil
}
