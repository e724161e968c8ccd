package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/cache"
	"github.com/careerhub/careerhub/internal/models"
	apperrors "github.com/careerhub/careerhub/pkg/errors"
)

// RoleService manages roles and their permission sets. Every mutation appends
// an audit entry inside the same transaction.
type RoleService struct {
	db    *gorm.DB
	cache cache.Store
}

// NewRoleService constructs a RoleService using the provided database handle.
// The cache store is optional and only used to drop stale permission snapshots.
func NewRoleService(db *gorm.DB, store cache.Store) (*RoleService, error) {
	if db == nil {
		return nil, errors.New("role service: db is required")
	}
	return &RoleService{db: db, cache: store}, nil
}

// CreateRoleInput describes the payload accepted by CreateRole.
type CreateRoleInput struct {
	Name         string
	Code         string
	Description  string
	IsSystem     bool
	CompanyID    *string
	DepartmentID *string
}

// UpdateRoleInput describes mutable fields on a role.
type UpdateRoleInput struct {
	Name        string
	Description string
}

// CreateRole registers a new role.
func (s *RoleService) CreateRole(ctx context.Context, input CreateRoleInput) (*models.Role, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidation("role name is required")
	}
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, apperrors.NewValidation("role code is required")
	}

	role := &models.Role{
		Name:         name,
		Code:         code,
		Description:  strings.TrimSpace(input.Description),
		IsSystem:     input.IsSystem,
		IsActive:     true,
		CompanyID:    input.CompanyID,
		DepartmentID: input.DepartmentID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			if isUniqueConstraintError(err) {
				return apperrors.ErrConflict.WithMessage("role code already exists")
			}
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("role service: create role: %w", err))
		}

		return appendAudit(ctx, tx, AuditEntry{
			Action:     AuditRoleCreated,
			TargetType: TargetRole,
			TargetID:   role.ID,
			NewValue: map[string]any{
				"name":      role.Name,
				"code":      role.Code,
				"is_system": role.IsSystem,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	return role, nil
}

// UpdateRole modifies role metadata. System role names are immutable.
func (s *RoleService) UpdateRole(ctx context.Context, roleID string, input UpdateRoleInput) (*models.Role, error) {
	ctx = ensureContext(ctx)

	var role models.Role
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&role, "id = ?", roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("role service: load role: %w", err))
		}

		name := strings.TrimSpace(input.Name)
		if role.IsSystem && name != "" && name != role.Name {
			return ErrSystemRoleImmutable
		}

		old := map[string]any{"name": role.Name, "description": role.Description}

		updates := map[string]any{}
		if name != "" && name != role.Name {
			updates["name"] = name
		}
		if desc := strings.TrimSpace(input.Description); desc != role.Description {
			updates["description"] = desc
		}

		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&role).Updates(updates).Error; err != nil {
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("role service: update role: %w", err))
		}

		return appendAudit(ctx, tx, AuditEntry{
			Action:     AuditRoleUpdated,
			TargetType: TargetRole,
			TargetID:   role.ID,
			OldValue:   old,
			NewValue:   updates,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("role service: reload role: %w", err))
	}
	return &role, nil
}

// DeleteRole removes non-system roles. A role with active user assignments
// cannot be deleted; assignments must be removed or reassigned first.
func (s *RoleService) DeleteRole(ctx context.Context, roleID, reason string) error {
	ctx = ensureContext(ctx)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, "id = ?", roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("role service: load role: %w", err))
		}

		if role.IsSystem {
			return ErrSystemRoleImmutable
		}

		var activeAssignments int64
		if err := tx.Model(&models.UserRole{}).
			Where("role_id = ? AND is_active = ?", role.ID, true).
			Count(&activeAssignments).Error; err != nil {
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("role service: count assignments: %w", err))
		}
		if activeAssignments > 0 {
			return ErrRoleInUse
		}

		// Role deletion cascades to its permission grants.
		if err := tx.Model(&role).Association("Permissions").Clear(); err != nil {
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("role service: clear role permissions: %w", err))
		}

		if err := tx.Delete(&role).Error; err != nil {
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("role service: delete role: %w", err))
		}

		return appendAudit(ctx, tx, AuditEntry{
			Action:     AuditRoleDeleted,
			TargetType: TargetRole,
			TargetID:   role.ID,
			OldValue:   map[string]any{"name": role.Name, "code": role.Code},
			Reason:     reason,
		})
	})
}

// GetRole loads a role with its permission set.
func (s *RoleService) GetRole(ctx context.Context, roleID string) (*models.Role, error) {
	ctx = ensureContext(ctx)

	var role models.Role
	if err := s.db.WithContext(ctx).
		Preload("Permissions.Module").
		Preload("Permissions.PermissionType").
		First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("role service: load role: %w", err))
	}
	return &role, nil
}

// ListRoles returns all roles ordered by creation date.
func (s *RoleService) ListRoles(ctx context.Context) ([]models.Role, error) {
	ctx = ensureContext(ctx)

	var roles []models.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").Order("created_at ASC").Find(&roles).Error; err != nil {
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("role service: list roles: %w", err))
	}
	return roles, nil
}

// UpdateRolePermissions replaces the role's permission set. The audit entry
// records the full before and after sets so the change is reconstructable.
func (s *RoleService) UpdateRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	ctx = ensureContext(ctx)

	affected, err := s.replacePermissions(ctx, roleID, normaliseIDs(permissionIDs))
	if err != nil {
		return err
	}

	for _, userID := range affected {
		invalidateSnapshot(ctx, s.cache, userID)
	}
	return nil
}

func (s *RoleService) replacePermissions(ctx context.Context, roleID string, permissionIDs []string) ([]string, error) {
	var affected []string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.Preload("Permissions").First(&role, "id = ?", roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("role service: load role: %w", err))
		}

		if role.IsSystem {
			return ErrSystemRoleImmutable
		}

		var next []models.Permission
		if len(permissionIDs) > 0 {
			if err := tx.Where("id IN ?", permissionIDs).Find(&next).Error; err != nil {
				return apperrors.ErrStorage.WithInternal(fmt.Errorf("role service: load permissions: %w", err))
			}
			if len(next) != len(permissionIDs) {
				return ErrPermissionNotFound
			}
		}

		before := permissionNames(role.Permissions)
		after := permissionNames(next)
		added, removed := diffSets(before, after)
		if len(added) == 0 && len(removed) == 0 {
			return nil
		}

		if err := tx.Model(&role).Association("Permissions").Replace(next); err != nil {
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("role service: replace permissions: %w", err))
		}

		if err := appendAudit(ctx, tx, AuditEntry{
			Action:     AuditRolePermsUpdated,
			TargetType: TargetRole,
			TargetID:   role.ID,
			OldValue:   map[string]any{"permissions": before},
			NewValue:   map[string]any{"permissions": after, "added": added, "removed": removed},
		}); err != nil {
			return err
		}

		// Holders of this role resolve differently from now on.
		return tx.Model(&models.UserRole{}).
			Where("role_id = ? AND is_active = ?", role.ID, true).
			Distinct().
			Pluck("user_id", &affected).Error
	})
	if err != nil {
		return nil, err
	}

	return affected, nil
}

func permissionNames(perms []models.Permission) []string {
	names := make([]string, 0, len(perms))
	for _, perm := range perms {
		names = append(names, perm.Name)
	}
	sort.Strings(names)
	return names
}

func diffSets(before, after []string) (added, removed []string) {
	beforeSet := make(map[string]struct{}, len(before))
	for _, name := range before {
		beforeSet[name] = struct{}{}
	}
	afterSet := make(map[string]struct{}, len(after))
	for _, name := range after {
		afterSet[name] = struct{}{}
	}

	for _, name := range after {
		if _, ok := beforeSet[name]; !ok {
			added = append(added, name)
		}
	}
	for _, name := range before {
		if _, ok := afterSet[name]; !ok {
			removed = append(removed, name)
		}
	}
	return added, removed
}
