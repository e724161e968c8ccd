package models

// Permission is one (module, permission type) pair. Name is the canonical
// {ModuleCode}_{TypeCode} identifier, e.g. EMPLOYEES_R.
type Permission struct {
	BaseModel

	Name string `gorm:"uniqueIndex;not null" json:"name"`

	ModuleID string  `gorm:"type:uuid;not null;uniqueIndex:idx_permissions_module_type" json:"module_id"`
	Module   *Module `json:"module,omitempty"`

	PermissionTypeID string          `gorm:"type:uuid;not null;uniqueIndex:idx_permissions_module_type" json:"permission_type_id"`
	PermissionType   *PermissionType `json:"permission_type,omitempty"`

	Roles []Role `gorm:"many2many:role_permissions;" json:"roles,omitempty"`
}
