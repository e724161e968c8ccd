package models

import "time"

// PermissionOverride is an explicit per-user grant or denial of a single
// permission. An active override takes precedence over any role grant. An
// expired override is treated as absent, never as an active denial.
type PermissionOverride struct {
	BaseModel

	UserID string `gorm:"type:uuid;not null;index:idx_overrides_user_permission" json:"user_id"`
	User   *User  `json:"user,omitempty"`

	PermissionID string      `gorm:"type:uuid;not null;index:idx_overrides_user_permission" json:"permission_id"`
	Permission   *Permission `json:"permission,omitempty"`

	IsGranted bool   `gorm:"not null" json:"is_granted"`
	Reason    string `gorm:"not null" json:"reason"`

	ExpiresAt *time.Time `json:"expires_at"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`

	CreatedBy string `gorm:"not null" json:"created_by"`
}

// ActiveAt reports whether the override is authoritative at the given instant.
func (o *PermissionOverride) ActiveAt(now time.Time) bool {
	if !o.IsActive {
		return false
	}
	return o.ExpiresAt == nil || o.ExpiresAt.After(now)
}
