package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PermissionAuditLog is an append-only record of a mutation against roles,
// assignments or overrides. Rows are never updated or deleted.
type PermissionAuditLog struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`

	Action     string `gorm:"not null;index" json:"action"`
	TargetType string `gorm:"not null;index" json:"target_type"`
	TargetID   string `gorm:"index" json:"target_id"`

	OldValue datatypes.JSON `json:"old_value"`
	NewValue datatypes.JSON `json:"new_value"`

	Reason string `json:"reason"`

	ActorID   *string `gorm:"type:uuid;index" json:"actor_id"`
	Actor     *User   `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	ActorName string  `json:"actor_name"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (a *PermissionAuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
