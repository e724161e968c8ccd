package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/database/testutil"
	"github.com/careerhub/careerhub/internal/models"
	"github.com/careerhub/careerhub/internal/permissions"
)

func TestRequirePermissionWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	resolver, err := permissions.NewResolver(db)
	require.NoError(t, err)

	// No Auth middleware installed, so the user ID is absent and the check
	// rejects before touching the resolver.
	r := gin.New()
	r.GET("/secure", RequirePermission(resolver, "EMPLOYEES", "R"), func(c *gin.Context) { c.Status(200) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePermissionDeniedAndGranted(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	resolver, err := permissions.NewResolver(db)
	require.NoError(t, err)

	user := seedMiddlewareUser(t, db, false)
	admin := seedMiddlewareUser(t, db, true)

	r := gin.New()
	r.GET("/secure", func(c *gin.Context) {
		c.Set(CtxUserIDKey, c.Query("as"))
		c.Next()
	}, RequirePermission(resolver, "EMPLOYEES", "R"), func(c *gin.Context) { c.Status(200) })

	// No role, no override: denied.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure?as="+user.ID, nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	// The admin bypass grants everything.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/secure?as="+admin.ID, nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func seedMiddlewareUser(t *testing.T, db *gorm.DB, isAdmin bool) *models.User {
	t.Helper()

	suffix := "member"
	if isAdmin {
		suffix = "admin"
	}

	employee := &models.Employee{
		FirstName: "Mid",
		LastName:  suffix,
		Email:     suffix + "@middleware.test",
		IsActive:  true,
	}
	require.NoError(t, db.Create(employee).Error)

	user := &models.User{
		EmployeeID: employee.ID,
		Username:   employee.Email,
		Email:      employee.Email,
		Password:   "!",
		IsAdmin:    isAdmin,
		IsActive:   true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
