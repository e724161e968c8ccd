package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/models"
	"github.com/careerhub/careerhub/internal/permissions"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Role{}, "Permissions", &models.RolePermission{}); err != nil {
		return err
	}

	return db.AutoMigrate(
		&models.Company{},
		&models.Department{},
		&models.Position{},
		&models.Employee{},
		&models.User{},
		&models.Module{},
		&models.PermissionType{},
		&models.Permission{},
		&models.Role{},
		&models.RolePermission{},
		&models.UserRole{},
		&models.PermissionOverride{},
		&models.PermissionAuditLog{},
		&models.CacheEntry{},
	)
}

// SeedData syncs the static permission catalog and ensures the protected
// system roles exist. Safe to run on every start-up.
func SeedData(db *gorm.DB) error {
	if err := permissions.Sync(context.Background(), db); err != nil {
		return err
	}

	roles := []models.Role{
		{
			BaseModel:   models.BaseModel{ID: "system-admin"},
			Name:        "System Administrator",
			Code:        "SYSTEM_ADMIN",
			Description: "Full system access",
			IsSystem:    true,
		},
		{
			BaseModel:   models.BaseModel{ID: "employee"},
			Name:        "Employee",
			Code:        "EMPLOYEE",
			Description: "Standard self-service access",
			IsSystem:    true,
		},
	}

	for _, role := range roles {
		if err := db.Where(models.Role{Code: role.Code}).Attrs(role).FirstOrCreate(&models.Role{}).Error; err != nil {
			return err
		}
	}

	// The SYSTEM_ADMIN role carries every catalog permission; the resolver
	// grants admins unconditionally, but the role keeps the matrix honest for
	// non-admin holders.
	var adminRole models.Role
	if err := db.Where("code = ?", "SYSTEM_ADMIN").First(&adminRole).Error; err != nil {
		return err
	}

	var perms []models.Permission
	if err := db.Find(&perms).Error; err != nil {
		return err
	}

	return attachMissingPermissions(db, &adminRole, perms)
}

func attachMissingPermissions(db *gorm.DB, role *models.Role, perms []models.Permission) error {
	var existing []models.Permission
	if err := db.Model(role).Association("Permissions").Find(&existing); err != nil {
		return err
	}

	current := make(map[string]struct{}, len(existing))
	for _, perm := range existing {
		current[perm.ID] = struct{}{}
	}

	toAttach := make([]models.Permission, 0, len(perms))
	for _, perm := range perms {
		if _, ok := current[perm.ID]; !ok {
			toAttach = append(toAttach, perm)
		}
	}
	if len(toAttach) == 0 {
		return nil
	}

	return db.Model(role).Association("Permissions").Append(toAttach)
}
