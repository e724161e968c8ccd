package models

// PermissionType is the action kind: C, R, U, D, A or M.
type PermissionType struct {
	BaseModel

	Code string `gorm:"uniqueIndex;size:1;not null" json:"code"`
	Name string `gorm:"not null" json:"name"`
}
