package models

// Position describes a job position within a department.
type Position struct {
	BaseModel

	DepartmentID string      `gorm:"type:uuid;not null;index" json:"department_id"`
	Department   *Department `json:"department,omitempty"`

	Title string `gorm:"not null" json:"title"`
	Level int    `gorm:"default:0" json:"level"`
}
