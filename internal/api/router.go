package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/app"
	iauth "github.com/careerhub/careerhub/internal/auth"
	"github.com/careerhub/careerhub/internal/cache"
	"github.com/careerhub/careerhub/internal/handlers"
	"github.com/careerhub/careerhub/internal/middleware"
	"github.com/careerhub/careerhub/internal/permissions"
)

// Dependencies carries everything the router needs. SSO and StateCodec are
// optional; without them the single sign-on endpoints report not configured.
// Cache and RateStore are optional too: the cache feeds the advisory
// permission snapshot, and a nil rate store falls back to per-process
// counters.
type Dependencies struct {
	DB         *gorm.DB
	JWT        *iauth.JWTService
	Config     *app.Config
	Cache      cache.Store
	RateStore  middleware.RateStore
	SSO        *iauth.OIDCAuthenticator
	StateCodec *iauth.StateCodec
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if deps.Config == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	if rl := deps.Config.Server.RateLimit; rl.Enabled {
		r.Use(middleware.RateLimitWithStore(deps.RateStore, rl.MaxRequests, rl.Window))
	}

	registerHealthRoutes(r)

	resolver, err := permissions.NewResolver(deps.DB)
	if err != nil {
		return nil, err
	}

	authHandler, err := handlers.NewAuthHandler(deps.DB, deps.JWT, deps.Config.Auth.LockoutPolicy())
	if err != nil {
		return nil, err
	}
	if deps.SSO != nil && deps.StateCodec != nil {
		authHandler.WithSSO(deps.SSO, deps.StateCodec)
	}

	api := r.Group("/api")
	registerPublicAuthRoutes(api, authHandler)

	api.Use(middleware.Auth(deps.JWT))
	registerAuthRoutes(api, authHandler)

	permHandler, err := handlers.NewPermissionHandler(deps.DB, deps.Cache)
	if err != nil {
		return nil, err
	}
	registerPermissionRoutes(api, permHandler)

	roleHandler, err := handlers.NewRoleHandler(deps.DB, deps.Cache)
	if err != nil {
		return nil, err
	}
	registerRoleRoutes(api, roleHandler, resolver)

	assignmentHandler, err := handlers.NewAssignmentHandler(deps.DB, deps.Cache)
	if err != nil {
		return nil, err
	}
	overrideHandler, err := handlers.NewOverrideHandler(deps.DB, deps.Cache)
	if err != nil {
		return nil, err
	}
	registerUserRoutes(api, assignmentHandler, overrideHandler, permHandler, resolver)

	auditHandler, err := handlers.NewAuditHandler(deps.DB)
	if err != nil {
		return nil, err
	}
	registerAuditRoutes(api, auditHandler, resolver)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
