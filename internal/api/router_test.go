package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/api"
	"github.com/careerhub/careerhub/internal/app"
	iauth "github.com/careerhub/careerhub/internal/auth"
	"github.com/careerhub/careerhub/internal/database/testutil"
	"github.com/careerhub/careerhub/internal/models"
)

const routerTestPassword = "orange crane 42"

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())

	cfg, err := app.LoadConfig(t.TempDir())
	require.NoError(t, err)
	_, err = app.ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	router, err := api.NewRouter(api.Dependencies{DB: db, JWT: jwtSvc, Config: cfg})
	require.NoError(t, err)
	return router, db
}

func seedRouterUser(t *testing.T, db *gorm.DB, email string, isAdmin bool) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(routerTestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	employee := &models.Employee{FirstName: "Router", LastName: "Test", Email: email, IsActive: true}
	require.NoError(t, db.Create(employee).Error)

	user := &models.User{
		EmployeeID: employee.ID,
		Username:   email,
		Email:      email,
		Password:   string(hash),
		IsAdmin:    isAdmin,
		IsActive:   true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func loginToken(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()

	body, err := json.Marshal(map[string]string{"login": email, "password": routerTestPassword})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.Token)
	return envelope.Data.Token
}

func doGet(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRouterHealthIsPublic(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doGet(router, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouterRejectsMissingToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doGet(router, "/api/roles", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterEnforcesPermissions(t *testing.T) {
	router, db := newTestRouter(t)

	seedRouterUser(t, db, "plain@router.test", false)
	seedRouterUser(t, db, "admin@router.test", true)

	plainToken := loginToken(t, router, "plain@router.test")
	adminToken := loginToken(t, router, "admin@router.test")

	// Role listing needs a grant the plain user does not have.
	w := doGet(router, "/api/roles", plainToken)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doGet(router, "/api/roles", adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Catalog and the personal matrix only need authentication.
	w = doGet(router, "/api/permissions/catalog", plainToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = doGet(router, "/api/me/permissions", plainToken)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouterAuthMe(t *testing.T) {
	router, db := newTestRouter(t)

	user := seedRouterUser(t, db, "me@router.test", false)
	token := loginToken(t, router, user.Email)

	w := doGet(router, "/api/auth/me", token)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, user.ID, envelope.Data.ID)
	require.Equal(t, user.Email, envelope.Data.Email)
}

func TestRouterSSOWithoutConfiguration(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doGet(router, "/api/auth/sso", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doGet(router, "/definitely-not-here", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
