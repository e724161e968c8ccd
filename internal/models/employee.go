package models

import "time"

// Employee is the HR record a platform user account wraps. The identity
// provider supplies an email which is matched against this table.
type Employee struct {
	BaseModel

	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`

	PositionID   *string     `gorm:"type:uuid;index" json:"position_id"`
	Position     *Position   `json:"position,omitempty"`
	DepartmentID *string     `gorm:"type:uuid;index" json:"department_id"`
	Department   *Department `json:"department,omitempty"`

	HireDate *time.Time `json:"hire_date"`
	IsActive bool       `gorm:"default:true" json:"is_active"`
}
