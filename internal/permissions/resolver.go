package permissions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/models"
	apperrors "github.com/careerhub/careerhub/pkg/errors"
)

// Verdict is the outcome of a permission check: granted or denied, with the
// reason and the sources that produced it. A denial is a successful
// resolution, not an error.
type Verdict struct {
	Granted bool     `json:"granted"`
	Reason  string   `json:"reason"`
	Sources []string `json:"sources"`
}

// ResolvedPermission is one cell of a user's permission matrix.
type ResolvedPermission struct {
	Module         string     `json:"module"`
	PermissionType string     `json:"permission_type"`
	Name           string     `json:"name"`
	Granted        bool       `json:"granted"`
	Reason         string     `json:"reason"`
	Sources        []string   `json:"sources"`
	EffectiveAt    *time.Time `json:"effective_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

const (
	reasonAdmin       = "System Administrator has all permissions"
	reasonDefaultDeny = "No permission granted"
	reasonOverride    = "Permission override"

	sourceAdmin    = "System Admin"
	sourceOverride = "Override"
	sourceNone     = "None"
)

// Resolver answers permission checks by combining the admin bypass, active
// per-user overrides and active role grants, in that fixed precedence order.
type Resolver struct {
	db  *gorm.DB
	now func() time.Time
}

// NewResolver constructs a resolver backed by the provided database.
func NewResolver(db *gorm.DB) (*Resolver, error) {
	if db == nil {
		return nil, errors.New("permission resolver: db is required")
	}
	return &Resolver{db: db, now: time.Now}, nil
}

// WithClock overrides the resolver clock. Intended for testing expiry rules.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	if now == nil {
		return r
	}
	return &Resolver{db: r.db, now: now}
}

// Resolve determines whether the user holds the permission identified by the
// module and permission type codes.
func (r *Resolver) Resolve(ctx context.Context, userID, moduleCode, typeCode string) (*Verdict, error) {
	ctx = ensureContext(ctx)

	if _, ok := GetModule(moduleCode); !ok {
		return nil, apperrors.ErrNotFound.WithMessage(fmt.Sprintf("Unknown module %q", moduleCode))
	}
	if _, ok := GetType(typeCode); !ok {
		return nil, apperrors.ErrNotFound.WithMessage(fmt.Sprintf("Unknown permission type %q", typeCode))
	}

	snap, err := r.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	verdict := snap.Verdict(PermissionName(moduleCode, typeCode))
	return &verdict, nil
}

// ResolveAll produces the user's full permission matrix from a single
// snapshot, one cell per module and permission type pair.
func (r *Resolver) ResolveAll(ctx context.Context, userID string) ([]ResolvedPermission, error) {
	ctx = ensureContext(ctx)

	snap, err := r.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	mods := Modules()
	types := Types()
	out := make([]ResolvedPermission, 0, len(mods)*len(types))
	for _, m := range mods {
		for _, t := range types {
			out = append(out, snap.Resolved(m, t))
		}
	}
	return out, nil
}

// Snapshot batch-loads the user's active role grants and active overrides so
// repeated lookups within one resolution session hit memory, not the store.
type Snapshot struct {
	user       models.User
	now        time.Time
	overrides  map[string]models.PermissionOverride
	roleGrants map[string][]roleGrant
}

type roleGrant struct {
	roleName   string
	assignedAt time.Time
	expiresAt  *time.Time
}

// Snapshot loads the state needed to resolve any permission for the user.
func (r *Resolver) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user id is required")
	}

	now := r.now()
	snap := &Snapshot{
		now:        now,
		overrides:  make(map[string]models.PermissionOverride),
		roleGrants: make(map[string][]roleGrant),
	}

	if err := r.db.WithContext(ctx).First(&snap.user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound.WithMessage("User not found")
		}
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("permission resolver: load user: %w", err))
	}

	// The admin bypass needs nothing beyond the user row.
	if snap.user.IsAdmin {
		return snap, nil
	}

	var assignments []models.UserRole
	if err := r.db.WithContext(ctx).
		Preload("Role.Permissions").
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&assignments).Error; err != nil {
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("permission resolver: load assignments: %w", err))
	}

	for i := range assignments {
		assignment := assignments[i]
		if !assignment.ActiveAt(now) {
			continue
		}
		if assignment.Role == nil || !assignment.Role.IsActive {
			continue
		}
		for _, perm := range assignment.Role.Permissions {
			snap.roleGrants[perm.Name] = append(snap.roleGrants[perm.Name], roleGrant{
				roleName:   assignment.Role.Name,
				assignedAt: assignment.AssignedAt,
				expiresAt:  assignment.ExpiresAt,
			})
		}
	}

	var overrides []models.PermissionOverride
	if err := r.db.WithContext(ctx).
		Preload("Permission").
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&overrides).Error; err != nil {
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("permission resolver: load overrides: %w", err))
	}

	for i := range overrides {
		override := overrides[i]
		// An expired override is treated as absent, not as an active denial.
		if !override.ActiveAt(now) || override.Permission == nil {
			continue
		}
		snap.overrides[override.Permission.Name] = override
	}

	return snap, nil
}

// Verdict resolves a single permission name against the snapshot.
func (s *Snapshot) Verdict(permissionName string) Verdict {
	if s.user.IsAdmin {
		return Verdict{Granted: true, Reason: reasonAdmin, Sources: []string{sourceAdmin}}
	}

	if override, ok := s.overrides[permissionName]; ok {
		reason := override.Reason
		if reason == "" {
			reason = reasonOverride
		}
		return Verdict{Granted: override.IsGranted, Reason: reason, Sources: []string{sourceOverride}}
	}

	if grants := s.roleGrants[permissionName]; len(grants) > 0 {
		names := make([]string, 0, len(grants))
		seen := make(map[string]struct{}, len(grants))
		for _, grant := range grants {
			if _, dup := seen[grant.roleName]; dup {
				continue
			}
			seen[grant.roleName] = struct{}{}
			names = append(names, grant.roleName)
		}
		sort.Strings(names)
		return Verdict{
			Granted: true,
			Reason:  "Granted by role: " + strings.Join(names, ", "),
			Sources: names,
		}
	}

	return Verdict{Granted: false, Reason: reasonDefaultDeny, Sources: []string{sourceNone}}
}

// Resolved builds the matrix cell for a module and type, including the
// effective and expiry dates of the authoritative source.
func (s *Snapshot) Resolved(module ModuleDef, permType TypeDef) ResolvedPermission {
	name := PermissionName(module.Code, permType.Code)
	verdict := s.Verdict(name)

	cell := ResolvedPermission{
		Module:         module.Code,
		PermissionType: permType.Code,
		Name:           name,
		Granted:        verdict.Granted,
		Reason:         verdict.Reason,
		Sources:        verdict.Sources,
	}

	if s.user.IsAdmin {
		return cell
	}

	if override, ok := s.overrides[name]; ok {
		created := override.CreatedAt
		cell.EffectiveAt = &created
		cell.ExpiresAt = override.ExpiresAt
		return cell
	}

	if grants := s.roleGrants[name]; len(grants) > 0 {
		effective := grants[0].assignedAt
		expiry := grants[0].expiresAt
		for _, grant := range grants[1:] {
			if grant.assignedAt.Before(effective) {
				effective = grant.assignedAt
			}
			// A grant without expiry keeps the permission open-ended.
			if expiry == nil || grant.expiresAt == nil {
				expiry = nil
				continue
			}
			if grant.expiresAt.After(*expiry) {
				expiry = grant.expiresAt
			}
		}
		cell.EffectiveAt = &effective
		cell.ExpiresAt = expiry
	}

	return cell
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
