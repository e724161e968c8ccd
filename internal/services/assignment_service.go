package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/auditctx"
	"github.com/careerhub/careerhub/internal/cache"
	"github.com/careerhub/careerhub/internal/models"
	apperrors "github.com/careerhub/careerhub/pkg/errors"
)

// AssignmentService manages which roles a user holds. Assignments are never
// hard-deleted; removal deactivates the row so the history stays queryable.
type AssignmentService struct {
	db    *gorm.DB
	cache cache.Store
	now   func() time.Time
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(db *gorm.DB, store cache.Store) (*AssignmentService, error) {
	if db == nil {
		return nil, errors.New("assignment service: db is required")
	}
	return &AssignmentService{db: db, cache: store, now: time.Now}, nil
}

// WithClock overrides the time source. Intended for tests.
func (s *AssignmentService) WithClock(now func() time.Time) *AssignmentService {
	s.now = now
	return s
}

// AssignRoleInput describes the payload accepted by AssignRole.
type AssignRoleInput struct {
	UserID    string
	RoleID    string
	ExpiresAt *time.Time
	Reason    string
}

// AssignRole grants a role to a user. A user cannot hold two active
// assignments of the same role; an expired or deactivated one does not count.
func (s *AssignmentService) AssignRole(ctx context.Context, input AssignRoleInput) (*models.UserRole, error) {
	ctx = ensureContext(ctx)
	now := s.now()

	if err := validateExpiry(input.ExpiresAt, now); err != nil {
		return nil, err
	}

	assignment := &models.UserRole{
		UserID:     input.UserID,
		RoleID:     input.RoleID,
		AssignedAt: now,
		ExpiresAt:  input.ExpiresAt,
		Reason:     input.Reason,
		IsActive:   true,
	}
	if actor, ok := auditctx.FromContext(ctx); ok {
		assignment.AssignedBy = actor.UserID
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", input.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("assignment service: load user: %w", err))
		}

		var role models.Role
		if err := tx.First(&role, "id = ?", input.RoleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("assignment service: load role: %w", err))
		}

		var existing []models.UserRole
		if err := tx.Where("user_id = ? AND role_id = ? AND is_active = ?", input.UserID, input.RoleID, true).
			Find(&existing).Error; err != nil {
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("assignment service: check existing: %w", err))
		}
		for i := range existing {
			if existing[i].ActiveAt(now) {
				return ErrDuplicateAssignment
			}
		}

		if err := tx.Create(assignment).Error; err != nil {
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("assignment service: create assignment: %w", err))
		}

		return appendAudit(ctx, tx, AuditEntry{
			Action:     AuditRoleAssigned,
			TargetType: TargetUserRole,
			TargetID:   assignment.ID,
			NewValue: map[string]any{
				"user_id":    input.UserID,
				"role_id":    input.RoleID,
				"role_code":  role.Code,
				"expires_at": input.ExpiresAt,
			},
			Reason: input.Reason,
		})
	})
	if err != nil {
		return nil, err
	}

	invalidateSnapshot(ctx, s.cache, input.UserID)
	return assignment, nil
}

// RemoveRole deactivates the user's active assignment of the role.
func (s *AssignmentService) RemoveRole(ctx context.Context, userID, roleID, reason string) error {
	ctx = ensureContext(ctx)
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var assignments []models.UserRole
		if err := tx.Where("user_id = ? AND role_id = ? AND is_active = ?", userID, roleID, true).
			Find(&assignments).Error; err != nil {
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("assignment service: load assignments: %w", err))
		}

		var target *models.UserRole
		for i := range assignments {
			if assignments[i].ActiveAt(now) {
				target = &assignments[i]
				break
			}
		}
		if target == nil {
			return ErrAssignmentNotFound
		}

		if err := tx.Model(target).Update("is_active", false).Error; err != nil {
			return apperrors.ErrStorage.WithInternal(fmt.Errorf("assignment service: deactivate assignment: %w", err))
		}

		return appendAudit(ctx, tx, AuditEntry{
			Action:     AuditRoleRemoved,
			TargetType: TargetUserRole,
			TargetID:   target.ID,
			OldValue: map[string]any{
				"user_id":     userID,
				"role_id":     roleID,
				"assigned_at": target.AssignedAt,
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

// ListForUser returns the user's role assignments, active ones first.
// Inactive history is included so the change trail is visible alongside the
// audit log.
func (s *AssignmentService) ListForUser(ctx context.Context, userID string) ([]models.UserRole, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("assignment service: check user: %w", err))
	}
	if count == 0 {
		return nil, ErrUserNotFound
	}

	var assignments []models.UserRole
	if err := s.db.WithContext(ctx).
		Preload("Role").
		Where("user_id = ?", userID).
		Order("is_active DESC, assigned_at DESC").
		Find(&assignments).Error; err != nil {
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("assignment service: list assignments: %w", err))
	}
	return assignments, nil
}
