package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careerhub/careerhub/internal/database/testutil"
	"github.com/careerhub/careerhub/internal/models"
	"github.com/careerhub/careerhub/internal/services"
)

func TestRoleServiceCreateAndAudit(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := services.NewRoleService(db, nil)
	require.NoError(t, err)

	actor := createTestUser(t, db)
	ctx := actorContext(actor.ID, actor.Username)

	role, err := svc.CreateRole(ctx, services.CreateRoleInput{
		Name:        "HR Specialist",
		Code:        "hr_specialist",
		Description: "Day to day employee administration",
	})
	require.NoError(t, err)
	require.NotEmpty(t, role.ID)
	require.Equal(t, "HR_SPECIALIST", role.Code)
	require.True(t, role.IsActive)

	logs := auditLogs(t, db, services.AuditRoleCreated)
	require.Len(t, logs, 1)
	require.Equal(t, services.TargetRole, logs[0].TargetType)
	require.Equal(t, role.ID, logs[0].TargetID)
	require.NotNil(t, logs[0].ActorID)
	require.Equal(t, actor.ID, *logs[0].ActorID)

	_, err = svc.CreateRole(ctx, services.CreateRoleInput{Name: "Duplicate", Code: "HR_SPECIALIST"})
	require.Error(t, err)
}

func TestRoleServiceUpdateSystemRoleRejected(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := services.NewRoleService(db, nil)
	require.NoError(t, err)

	var system models.Role
	require.NoError(t, db.First(&system, "code = ?", "SYSTEM_ADMIN").Error)

	_, err = svc.UpdateRole(context.Background(), system.ID, services.UpdateRoleInput{Name: "Renamed"})
	require.ErrorIs(t, err, services.ErrSystemRoleImmutable)
}

func TestRoleServiceSystemRolePermissionsImmutable(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := services.NewRoleService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()

	var system models.Role
	require.NoError(t, db.First(&system, "code = ?", "SYSTEM_ADMIN").Error)

	before, err := svc.GetRole(ctx, system.ID)
	require.NoError(t, err)
	require.NotEmpty(t, before.Permissions)

	read := permissionByName(t, db, "EMPLOYEES_R")
	err = svc.UpdateRolePermissions(ctx, system.ID, []string{read.ID})
	require.ErrorIs(t, err, services.ErrSystemRoleImmutable)

	// The permission set survives intact and nothing was audited.
	after, err := svc.GetRole(ctx, system.ID)
	require.NoError(t, err)
	require.Len(t, after.Permissions, len(before.Permissions))
	require.Empty(t, auditLogs(t, db, services.AuditRolePermsUpdated))

	err = svc.DeleteRole(ctx, system.ID, "restructure")
	require.ErrorIs(t, err, services.ErrSystemRoleImmutable)

	_, err = svc.GetRole(ctx, system.ID)
	require.NoError(t, err)
	require.Empty(t, auditLogs(t, db, services.AuditRoleDeleted))
}

func TestRoleServiceDeleteBlockedByActiveAssignments(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := services.NewRoleService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	role, err := svc.CreateRole(ctx, services.CreateRoleInput{Name: "Temp", Code: "TEMP"})
	require.NoError(t, err)

	user := createTestUser(t, db)
	require.NoError(t, db.Create(&models.UserRole{
		UserID:     user.ID,
		RoleID:     role.ID,
		AssignedAt: time.Now(),
		IsActive:   true,
	}).Error)

	err = svc.DeleteRole(ctx, role.ID, "cleanup")
	require.ErrorIs(t, err, services.ErrRoleInUse)

	require.NoError(t, db.Model(&models.UserRole{}).
		Where("role_id = ?", role.ID).
		Update("is_active", false).Error)

	require.NoError(t, svc.DeleteRole(ctx, role.ID, "cleanup"))

	_, err = svc.GetRole(ctx, role.ID)
	require.ErrorIs(t, err, services.ErrRoleNotFound)

	logs := auditLogs(t, db, services.AuditRoleDeleted)
	require.Len(t, logs, 1)
	require.Equal(t, "cleanup", logs[0].Reason)
}

func TestRoleServiceUpdatePermissionsRecordsDiff(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := services.NewRoleService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	role, err := svc.CreateRole(ctx, services.CreateRoleInput{Name: "Reader", Code: "READER"})
	require.NoError(t, err)

	read := permissionByName(t, db, "EMPLOYEES_R")
	update := permissionByName(t, db, "EMPLOYEES_U")

	require.NoError(t, svc.UpdateRolePermissions(ctx, role.ID, []string{read.ID, update.ID}))

	reloaded, err := svc.GetRole(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Permissions, 2)

	require.NoError(t, svc.UpdateRolePermissions(ctx, role.ID, []string{read.ID}))

	logs := auditLogs(t, db, services.AuditRolePermsUpdated)
	require.Len(t, logs, 2)

	var payload struct {
		Permissions []string `json:"permissions"`
		Added       []string `json:"added"`
		Removed     []string `json:"removed"`
	}
	require.NoError(t, json.Unmarshal(logs[1].NewValue, &payload))
	require.Equal(t, []string{"EMPLOYEES_R"}, payload.Permissions)
	require.Equal(t, []string{"EMPLOYEES_U"}, payload.Removed)
	require.Empty(t, payload.Added)
}

func TestRoleServiceUpdatePermissionsUnknownID(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := services.NewRoleService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	role, err := svc.CreateRole(ctx, services.CreateRoleInput{Name: "Reader", Code: "READER"})
	require.NoError(t, err)

	err = svc.UpdateRolePermissions(ctx, role.ID, []string{"no-such-permission"})
	require.ErrorIs(t, err, services.ErrPermissionNotFound)

	reloaded, err := svc.GetRole(ctx, role.ID)
	require.NoError(t, err)
	require.Empty(t, reloaded.Permissions)
}

func TestRoleServiceNoAuditWhenPermissionsUnchanged(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := services.NewRoleService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	role, err := svc.CreateRole(ctx, services.CreateRoleInput{Name: "Reader", Code: "READER"})
	require.NoError(t, err)

	read := permissionByName(t, db, "EMPLOYEES_R")
	require.NoError(t, svc.UpdateRolePermissions(ctx, role.ID, []string{read.ID}))
	require.NoError(t, svc.UpdateRolePermissions(ctx, role.ID, []string{read.ID}))

	logs := auditLogs(t, db, services.AuditRolePermsUpdated)
	require.Len(t, logs, 1)
}

func TestRoleServiceListOrdersByCreation(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := services.NewRoleService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.CreateRole(ctx, services.CreateRoleInput{Name: "First", Code: "FIRST"})
	require.NoError(t, err)

	roles, err := svc.ListRoles(ctx)
	require.NoError(t, err)
	// Seeded system roles plus the new one.
	require.GreaterOrEqual(t, len(roles), 3)

	_, err = svc.GetRole(ctx, "missing")
	require.ErrorIs(t, err, services.ErrRoleNotFound)
}
