package permissions

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/careerhub/careerhub/internal/models"
)

// Sync persists the static catalog to the backing database: every registered
// module, permission type, and the permission cross product. Existing rows are
// updated in place so catalog renames propagate without duplicating rows.
func Sync(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("permission catalog: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx := db.WithContext(ctx)

	for _, def := range Modules() {
		record := models.Module{Code: def.Code, Name: def.Name}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&record).Error; err != nil {
			return fmt.Errorf("permission catalog: sync module %s: %w", def.Code, err)
		}
	}

	for _, def := range Types() {
		record := models.PermissionType{Code: def.Code, Name: def.Name}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}).Create(&record).Error; err != nil {
			return fmt.Errorf("permission catalog: sync type %s: %w", def.Code, err)
		}
	}

	var modules []models.Module
	if err := tx.Find(&modules).Error; err != nil {
		return fmt.Errorf("permission catalog: load modules: %w", err)
	}
	var types []models.PermissionType
	if err := tx.Find(&types).Error; err != nil {
		return fmt.Errorf("permission catalog: load types: %w", err)
	}

	moduleIDs := make(map[string]string, len(modules))
	for _, m := range modules {
		moduleIDs[m.Code] = m.ID
	}
	typeIDs := make(map[string]string, len(types))
	for _, t := range types {
		typeIDs[t.Code] = t.ID
	}

	for _, def := range Modules() {
		moduleID, ok := moduleIDs[def.Code]
		if !ok {
			return fmt.Errorf("permission catalog: module %s missing after sync", def.Code)
		}
		for _, typeDef := range Types() {
			typeID, ok := typeIDs[typeDef.Code]
			if !ok {
				return fmt.Errorf("permission catalog: type %s missing after sync", typeDef.Code)
			}

			record := models.Permission{
				Name:             PermissionName(def.Code, typeDef.Code),
				ModuleID:         moduleID,
				PermissionTypeID: typeID,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "name"}},
				DoUpdates: clause.AssignmentColumns([]string{"module_id", "permission_type_id"}),
			}).Create(&record).Error; err != nil {
				return fmt.Errorf("permission catalog: sync permission %s: %w", record.Name, err)
			}
		}
	}

	return nil
}
