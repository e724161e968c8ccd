package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/auditctx"
	"github.com/careerhub/careerhub/internal/cache"
	"github.com/careerhub/careerhub/internal/models"
	"github.com/careerhub/careerhub/internal/permissions"
	apperrors "github.com/careerhub/careerhub/pkg/errors"
)

// OverrideService manages per-user permission overrides. At most one active
// override exists per user and permission; creating a new one deactivates the
// previous, and both steps ride the same transaction as the audit entry.
type OverrideService struct {
	db    *gorm.DB
	cache cache.Store
	now   func() time.Time
}

// NewOverrideService constructs an OverrideService.
func NewOverrideService(db *gorm.DB, store cache.Store) (*OverrideService, error) {
	if db == nil {
		return nil, errors.New("override service: db is required")
	}
	return &OverrideService{db: db, cache: store, now: time.Now}, nil
}

// WithClock overrides the time source. Intended for tests.
func (s *OverrideService) WithClock(now func() time.Time) *OverrideService {
	s.now = now
	return s
}

// CreateOverrideInput describes the payload accepted by CreateOverride.
type CreateOverrideInput struct {
	UserID         string
	ModuleCode     string
	PermissionType string
	IsGranted      bool
	Reason         string
	ExpiresAt      *time.Time
}

// CreateOverride records an explicit grant or denial of a single permission
// for a user. The reason is mandatory; overrides are exceptional by nature
// and each one must be explainable later.
func (s *OverrideService) CreateOverride(ctx context.Context, input CreateOverrideInput) (*models.PermissionOverride, error) {
	ctx = ensureContext(ctx)
	now := s.now()

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if err := validateExpiry(input.ExpiresAt, now); err != nil {
		return nil, err
	}

	permissionName, err := catalogPermissionName(input.ModuleCode, input.PermissionType)
	if err != nil {
		return nil, err
	}

	override := &models.PermissionOverride{
		UserID:    input.UserID,
		IsGranted: input.IsGranted,
		Reason:    reason,
		ExpiresAt: input.ExpiresAt,
		IsActive:  true,
	}
	if actor, ok := auditctx.FromContext(ctx); ok {
		override.CreatedBy = actor.UserID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", input.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("override service: load user: %w", err))
		}

		var permission models.Permission
		if err := tx.First(&permission, "name = ?", permissionName).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPermissionNotFound
			}
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("override service: load permission: %w", err))
		}
		override.PermissionID = permission.ID

		// Supersede any earlier active override for the same permission.
		var prior []models.PermissionOverride
		if err := tx.Where("user_id = ? AND permission_id = ? AND is_active = ?", input.UserID, permission.ID, true).
			Find(&prior).Error; err != nil {
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("override service: load prior overrides: %w", err))
		}

		var oldValue map[string]any
		for i := range prior {
			if prior[i].ActiveAt(now) && oldValue == nil {
				oldValue = map[string]any{
					"is_granted": prior[i].IsGranted,
					"reason":     prior[i].Reason,
					"expires_at": prior[i].ExpiresAt,
				}
			}
			if err := tx.Model(&prior[i]).Update("is_active", false).Error; err != nil {
				return apperrors.ErrStorage.WithInternal(fmt.Errorf("override service: supersede override: %w", err))
			}
		}

		if err := tx.Create(override).Error; err != nil {
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("override service: create override: %w", err))
		}

		return appendAudit(ctx, tx, AuditEntry{
			Action:     AuditOverrideCreated,
			TargetType: TargetOverride,
			TargetID:   override.ID,
			OldValue:   oldValue,
			NewValue: map[string]any{
				"user_id":    input.UserID,
				"permission": permissionName,
				"is_granted": input.IsGranted,
				"expires_at": input.ExpiresAt,
			},
			Reason: reason,
		})
	})
	if err != nil {
		return nil, err
	}

	invalidateSnapshot(ctx, s.cache, input.UserID)
	return override, nil
}

// DeleteOverride deactivates the user's active override for the permission.
// The row stays in place for history; resolution falls back to roles.
func (s *OverrideService) DeleteOverride(ctx context.Context, userID, moduleCode, permissionType, reason string) error {
	ctx = ensureContext(ctx)
	now := s.now()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}

	permissionName, err := catalogPermissionName(moduleCode, permissionType)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var permission models.Permission
		if err := tx.First(&permission, "name = ?", permissionName).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPermissionNotFound
			}
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("override service: load permission: %w", err))
		}

		var overrides []models.PermissionOverride
		if err := tx.Where("user_id = ? AND permission_id = ? AND is_active = ?", userID, permission.ID, true).
			Find(&overrides).Error; err != nil {
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("override service: load overrides: %w", err))
		}

		var target *models.PermissionOverride
		for i := range overrides {
			if overrides[i].ActiveAt(now) {
				target = &overrides[i]
				break
			}
		}
		if target == nil {
			return ErrOverrideNotFound
		}

		if err := tx.Model(target).Update("is_active", false).Error; err != nil {
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("override service: deactivate override: %w", err))
		}

		return appendAudit(ctx, tx, AuditEntry{
			Action:     AuditOverrideDeleted,
			TargetType: TargetOverride,
			TargetID:   target.ID,
			OldValue: map[string]any{
				"user_id":    userID,
				"permission": permissionName,
				"is_granted": target.IsGranted,
				"expires_at": target.ExpiresAt,
			},
			Reason: reason,
		})
	})
	if err != nil {
		return err
	}

	invalidateSnapshot(ctx, s.cache, userID)
	return nil
}

// catalogPermissionName validates both codes against the catalog before
// composing the canonical permission name.
func catalogPermissionName(moduleCode, typeCode string) (string, error) {
	if _, ok := permissions.GetModule(moduleCode); !ok {
		return "", apperrors.ErrNotFound.WithMessage(fmt.Sprintf("unknown module %q", moduleCode))
	}
	if _, ok := permissions.GetType(typeCode); !ok {
		return "", apperrors.ErrNotFound.WithMessage(fmt.Sprintf("unknown permission type %q", typeCode))
	}
	return permissions.PermissionName(moduleCode, typeCode), nil
}

// ListForUser returns the user's overrides, active ones first.
func (s *OverrideService) ListForUser(ctx context.Context, userID string) ([]models.PermissionOverride, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("override service: check user: %w", err))
	}
	if count == 0 {
		return nil, ErrUserNotFound
	}

	var overrides []models.PermissionOverride
	if err := s.db.WithContext(ctx).
		Preload("Permission.Module").
		Preload("Permission.PermissionType").
		Where("user_id = ?", userID).
		Order("is_active DESC, created_at DESC").
		Find(&overrides).Error; err != nil {
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("override service: list overrides: %w", err))
	}
	return overrides, nil
}
