package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/auditctx"
	"github.com/careerhub/careerhub/internal/models"
)

var employeeSeq int

func createTestUser(t *testing.T, db *gorm.DB, opts ...func(*models.User)) *models.User {
	t.Helper()

	employeeSeq++
	employee := &models.Employee{
		FirstName: "Test",
		LastName:  fmt.Sprintf("Employee%d", employeeSeq),
		Email:     fmt.Sprintf("employee%d@example.test", employeeSeq),
		IsActive:  true,
	}
	require.NoError(t, db.Create(employee).Error)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		EmployeeID: employee.ID,
		Username:   employee.Email,
		Email:      employee.Email,
		Password:   string(hash),
		IsActive:   true,
	}
	for _, opt := range opts {
		opt(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func actorContext(userID, username string) context.Context {
	return auditctx.WithActor(context.Background(), auditctx.Actor{UserID: userID, Username: username})
}

func permissionByName(t *testing.T, db *gorm.DB, name string) *models.Permission {
	t.Helper()

	var perm models.Permission
	require.NoError(t, db.First(&perm, "name = ?", name).Error)
	return &perm
}

func auditLogs(t *testing.T, db *gorm.DB, action string) []models.PermissionAuditLog {
	t.Helper()

	var logs []models.PermissionAuditLog
	require.NoError(t, db.Where("action = ?", action).Order("created_at ASC").Find(&logs).Error)
	return logs
}
