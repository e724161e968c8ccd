package models

// Module identifies a functional area permissions are scoped to, such as
// EMPLOYEES or DEVELOPMENT_PLANS. Rows are synced from the static catalog and
// immutable once permissions reference them.
type Module struct {
	BaseModel

	Code string `gorm:"uniqueIndex;not null" json:"code"`
	Name string `gorm:"not null" json:"name"`

	Permissions []Permission `gorm:"foreignKey:ModuleID" json:"permissions,omitempty"`
}
