package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/auditctx"
	"github.com/careerhub/careerhub/internal/models"
	"github.com/careerhub/careerhub/pkg/metrics"
)

// Audit actions recorded by the mutation services.
const (
	AuditRoleCreated      = "ROLE_CREATED"
	AuditRoleUpdated      = "ROLE_UPDATED"
	AuditRoleDeleted      = "ROLE_DELETED"
	AuditRolePermsUpdated = "ROLE_PERMISSIONS_UPDATED"
	AuditRoleAssigned     = "ROLE_ASSIGNED"
	AuditRoleRemoved      = "ROLE_REMOVED"
	AuditOverrideCreated  = "PERMISSION_OVERRIDE_CREATED"
	AuditOverrideDeleted  = "PERMISSION_OVERRIDE_DELETED"
)

// Audit target types.
const (
	TargetRole     = "ROLE"
	TargetUserRole = "USER_ROLE"
	TargetOverride = "PERMISSION_OVERRIDE"
)

// AuditEntry captures a single audit event to persist.
type AuditEntry struct {
	Action     string
	TargetType string
	TargetID   string
	OldValue   any
	NewValue   any
	Reason     string
}

// appendAudit writes the entry through the supplied handle, typically the
// transaction performing the mutation it records. An error here must abort
// the surrounding transaction: no permission change without a trail.
func appendAudit(ctx context.Context, tx *gorm.DB, entry AuditEntry) error {
	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("audit: action is required")
	}
	if strings.TrimSpace(entry.TargetType) == "" {
		return errors.New("audit: target type is required")
	}

	record := models.PermissionAuditLog{
		Action:     strings.TrimSpace(entry.Action),
		TargetType: strings.TrimSpace(entry.TargetType),
		TargetID:   strings.TrimSpace(entry.TargetID),
		Reason:     strings.TrimSpace(entry.Reason),
	}

	if entry.OldValue != nil {
		encoded, err := json.Marshal(entry.OldValue)
		if err != nil {
			return fmt.Errorf("audit: marshal old value: %w", err)
		}
		record.OldValue = encoded
	}
	if entry.NewValue != nil {
		encoded, err := json.Marshal(entry.NewValue)
		if err != nil {
			return fmt.Errorf("audit: marshal new value: %w", err)
		}
		record.NewValue = encoded
	}

	if actor, ok := auditctx.FromContext(ctx); ok {
		if actor.UserID != "" {
			id := actor.UserID
			record.ActorID = &id
		}
		record.ActorName = actor.Username
	}

	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("audit: append entry: %w", err)
	}

	metrics.AuditWrites.WithLabelValues(record.Action).Inc()
	return nil
}

// AuditFilters encapsulates optional filters when querying audit logs.
type AuditFilters struct {
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Since      *time.Time
	Until      *time.Time
}

// AuditListOptions controls pagination and filtering for audit queries.
type AuditListOptions struct {
	Page     int
	PageSize int
	Filters  AuditFilters
}

// AuditService retrieves audit log entries. The log is append-only: entries
// are written by the mutation services and never updated or deleted.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db}, nil
}

// List returns paginated audit logs ordered by creation time descending.
func (s *AuditService) List(ctx context.Context, opts AuditListOptions) ([]models.PermissionAuditLog, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	var (
		results []models.PermissionAuditLog
		total   int64
	)

	query := s.db.WithContext(ctx).Model(&models.PermissionAuditLog{})
	query = applyAuditFilters(query, opts.Filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}

	if err := query.
		Preload("Actor").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}

	return results, total, nil
}

// Export returns audit logs that match the provided filters without pagination.
func (s *AuditService) Export(ctx context.Context, filters AuditFilters) ([]models.PermissionAuditLog, error) {
	ctx = ensureContext(ctx)

	var logs []models.PermissionAuditLog
	query := s.db.WithContext(ctx).Model(&models.PermissionAuditLog{})
	query = applyAuditFilters(query, filters)

	if err := query.
		Preload("Actor").
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("audit service: export logs: %w", err)
	}

	return logs, nil
}

func applyAuditFilters(query *gorm.DB, filters AuditFilters) *gorm.DB {
	if filters.ActorID != "" {
		query = query.Where("actor_id = ?", filters.ActorID)
	}
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if filters.TargetType != "" {
		query = query.Where("target_type = ?", filters.TargetType)
	}
	if filters.TargetID != "" {
		query = query.Where("target_id = ?", filters.TargetID)
	}
	if filters.Since != nil {
		query = query.Where("created_at >= ?", *filters.Since)
	}
	if filters.Until != nil {
		query = query.Where("created_at <= ?", *filters.Until)
	}
	return query
}
