package models

import "time"

// UserRole assigns a role to a user. A user may hold several roles
// concurrently; an assignment contributes to resolution only while it is
// active and unexpired.
type UserRole struct {
	BaseModel

	UserID string `gorm:"type:uuid;not null;index:idx_user_roles_user" json:"user_id"`
	User   *User  `json:"user,omitempty"`

	RoleID string `gorm:"type:uuid;not null;index" json:"role_id"`
	Role   *Role  `json:"role,omitempty"`

	AssignedAt time.Time  `gorm:"not null" json:"assigned_at"`
	AssignedBy string     `json:"assigned_by"`
	ExpiresAt  *time.Time `json:"expires_at"`
	Reason     string     `json:"reason"`

	IsActive bool `gorm:"default:true;index:idx_user_roles_user" json:"is_active"`
}

// ActiveAt reports whether the assignment participates in permission
// resolution at the given instant.
func (ur *UserRole) ActiveAt(now time.Time) bool {
	if !ur.IsActive {
		return false
	}
	return ur.ExpiresAt == nil || ur.ExpiresAt.After(now)
}
