package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the account attached to exactly one employee. It carries the
// administrator flag the resolver honours before any role or override lookup,
// plus the lockout state maintained by the local authenticator.
type User struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`

	EmployeeID string    `gorm:"type:uuid;uniqueIndex;not null" json:"employee_id"`
	Employee   *Employee `json:"employee,omitempty"`

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	IsAdmin  bool `gorm:"default:false" json:"is_admin"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	FailedAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil    *time.Time `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`

	RoleAssignments []UserRole           `gorm:"foreignKey:UserID" json:"role_assignments,omitempty"`
	Overrides       []PermissionOverride `gorm:"foreignKey:UserID" json:"overrides,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Locked reports whether the account is currently locked out.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}
