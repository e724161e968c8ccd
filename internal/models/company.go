package models

// Company is the top-level organisational unit that roles may be scoped to.
type Company struct {
	BaseModel

	Name string `gorm:"not null" json:"name"`
	Code string `gorm:"uniqueIndex;not null" json:"code"`

	Departments []Department `gorm:"foreignKey:CompanyID" json:"departments,omitempty"`
}
