package models

// Role is a named bundle of permissions. System roles cannot be deleted or
// have their permission set edited through the standard administration path.
// A role may be scoped to a company or department, or be global when both are nil.
type Role struct {
	BaseModel

	Name        string `gorm:"not null" json:"name"`
	Code        string `gorm:"uniqueIndex;not null" json:"code"`
	Description string `json:"description"`

	IsSystem bool `gorm:"default:false" json:"is_system"`
	IsActive bool `gorm:"default:true" json:"is_active"`

	CompanyID    *string     `gorm:"type:uuid;index" json:"company_id"`
	Company      *Company    `json:"company,omitempty"`
	DepartmentID *string     `gorm:"type:uuid;index" json:"department_id"`
	Department   *Department `json:"department,omitempty"`

	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
	Assignments []UserRole   `gorm:"foreignKey:RoleID" json:"assignments,omitempty"`
}
