package models

// Department groups positions and employees within a company.
type Department struct {
	BaseModel

	CompanyID string   `gorm:"type:uuid;not null;index" json:"company_id"`
	Company   *Company `json:"company,omitempty"`

	Name string `gorm:"not null" json:"name"`
	Code string `gorm:"uniqueIndex;not null" json:"code"`

	Positions []Position `gorm:"foreignKey:DepartmentID" json:"positions,omitempty"`
}
