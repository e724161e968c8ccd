package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/careerhub/careerhub/internal/database/testutil"
	"github.com/careerhub/careerhub/internal/models"
	"github.com/careerhub/careerhub/internal/services"
)

func TestCreateOverrideRequiresReason(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := services.NewOverrideService(db, nil)
	require.NoError(t, err)

	user := createTestUser(t, db)

	_, err = svc.CreateOverride(context.Background(), services.CreateOverrideInput{
		UserID:         user.ID,
		ModuleCode:     "EMPLOYEES",
		PermissionType: "R",
		IsGranted:      true,
		Reason:         "   ",
	})
	require.ErrorIs(t, err, services.ErrReasonRequired)
}

func TestCreateOverrideStampsCreatorAndAudits(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := services.NewOverrideService(db, nil)
	require.NoError(t, err)

	user := createTestUser(t, db)
	actor := createTestUser(t, db)
	ctx := actorContext(actor.ID, actor.Username)

	override, err := svc.CreateOverride(ctx, services.CreateOverrideInput{
		UserID:         user.ID,
		ModuleCode:     "EMPLOYEES",
		PermissionType: "R",
		IsGranted:      false,
		Reason:         "under investigation",
	})
	require.NoError(t, err)
	require.Equal(t, actor.ID, override.CreatedBy)
	require.False(t, override.IsGranted)
	require.True(t, override.IsActive)

	logs := auditLogs(t, db, services.AuditOverrideCreated)
	require.Len(t, logs, 1)
	require.Equal(t, services.TargetOverride, logs[0].TargetType)
	require.Equal(t, override.ID, logs[0].TargetID)
	require.Equal(t, "under investigation", logs[0].Reason)
}

func TestCreateOverrideSupersedesPriorActive(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := services.NewOverrideService(db, nil)
	require.NoError(t, err)

	user := createTestUser(t, db)
	ctx := context.Background()

	first, err := svc.CreateOverride(ctx, services.CreateOverrideInput{
		UserID:         user.ID,
		ModuleCode:     "EMPLOYEES",
		PermissionType: "R",
		IsGranted:      true,
		Reason:         "temporary access",
	})
	require.NoError(t, err)

	second, err := svc.CreateOverride(ctx, services.CreateOverrideInput{
		UserID:         user.ID,
		ModuleCode:     "EMPLOYEES",
		PermissionType: "R",
		IsGranted:      false,
		Reason:         "access revoked",
	})
	require.NoError(t, err)

	var reloaded models.PermissionOverride
	require.NoError(t, db.First(&reloaded, "id = ?", first.ID).Error)
	require.False(t, reloaded.IsActive)

	overrides, err := svc.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, overrides, 2)
	require.Equal(t, second.ID, overrides[0].ID)
	require.True(t, overrides[0].IsActive)

	// A different permission keeps its own independent override.
	_, err = svc.CreateOverride(ctx, services.CreateOverrideInput{
		UserID:         user.ID,
		ModuleCode:     "EMPLOYEES",
		PermissionType: "U",
		IsGranted:      true,
		Reason:         "separate grant",
	})
	require.NoError(t, err)

	var active int64
	require.NoError(t, db.Model(&models.PermissionOverride{}).
		Where("user_id = ? AND is_active = ?", user.ID, true).
		Count(&active).Error)
	require.EqualValues(t, 2, active)
}

func TestCreateOverrideValidations(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := services.NewOverrideService(db, nil)
	require.NoError(t, err)

	user := createTestUser(t, db)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	_, err = svc.CreateOverride(ctx, services.CreateOverrideInput{
		UserID:         user.ID,
		ModuleCode:     "EMPLOYEES",
		PermissionType: "R",
		IsGranted:      true,
		Reason:         "late",
		ExpiresAt:      &past,
	})
	require.ErrorIs(t, err, services.ErrExpiryInPast)

	_, err = svc.CreateOverride(ctx, services.CreateOverrideInput{
		UserID:         user.ID,
		ModuleCode:     "NO_SUCH_MODULE",
		PermissionType: "R",
		IsGranted:      true,
		Reason:         "bad module",
	})
	require.Error(t, err)

	_, err = svc.CreateOverride(ctx, services.CreateOverrideInput{
		UserID:         "missing",
		ModuleCode:     "EMPLOYEES",
		PermissionType: "R",
		IsGranted:      true,
		Reason:         "no user",
	})
	require.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestDeleteOverrideDeactivates(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := services.NewOverrideService(db, nil)
	require.NoError(t, err)

	user := createTestUser(t, db)
	ctx := context.Background()

	created, err := svc.CreateOverride(ctx, services.CreateOverrideInput{
		UserID:         user.ID,
		ModuleCode:     "EMPLOYEES",
		PermissionType: "R",
		IsGranted:      true,
		Reason:         "project access",
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOverride(ctx, user.ID, "EMPLOYEES", "R", "project finished"))

	var reloaded models.PermissionOverride
	require.NoError(t, db.First(&reloaded, "id = ?", created.ID).Error)
	require.False(t, reloaded.IsActive)

	logs := auditLogs(t, db, services.AuditOverrideDeleted)
	require.Len(t, logs, 1)
	require.Equal(t, "project finished", logs[0].Reason)

	err = svc.DeleteOverride(ctx, user.ID, "EMPLOYEES", "R", "again")
	require.ErrorIs(t, err, services.ErrOverrideNotFound)
}

func TestDeleteOverrideIgnoresExpired(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, err := services.NewOverrideService(db, nil)
	require.NoError(t, err)
	svc.WithClock(func() time.Time { return base })

	user := createTestUser(t, db)
	ctx := context.Background()

	expiry := base.Add(time.Hour)
	_, err = svc.CreateOverride(ctx, services.CreateOverrideInput{
		UserID:         user.ID,
		ModuleCode:     "EMPLOYEES",
		PermissionType: "R",
		IsGranted:      true,
		Reason:         "short lived",
		ExpiresAt:      &expiry,
	})
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return base.Add(2 * time.Hour) })
	err = svc.DeleteOverride(ctx, user.ID, "EMPLOYEES", "R", "too late")
	require.ErrorIs(t, err, services.ErrOverrideNotFound)
}
