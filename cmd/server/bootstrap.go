package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/api"
	"github.com/careerhub/careerhub/internal/app"
	"github.com/careerhub/careerhub/internal/app/maintenance"
	iauth "github.com/careerhub/careerhub/internal/auth"
	"github.com/careerhub/careerhub/internal/cache"
	"github.com/careerhub/careerhub/internal/database"
	"github.com/careerhub/careerhub/internal/middleware"
	"github.com/careerhub/careerhub/pkg/logger"
)

// runtimeStack bundles long-lived components used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Redis   cache.Store
	Sweeper *maintenance.Sweeper
	Router  *gin.Engine
}

// bootstrapRuntime initialises the database, caches, background sweeper and
// the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		return nil, fmt.Errorf("auth.jwt.secret must be configured")
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	store := cache.Store(cache.NewDatabaseStore(stack.DB))
	rateStore := middleware.NewDatabaseRateStore(store)

	if cfg.Cache.Redis.Enabled {
		client, redisErr := cache.NewRedisClient(cfg.Cache.RedisClientConfig())
		if redisErr != nil {
			log.Warn("redis unavailable; falling back to database-backed cache", zap.Error(redisErr))
		} else {
			stack.Redis = client
			store = client
			rateStore = middleware.NewRedisRateStore(client)
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
		}
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	var sso *iauth.OIDCAuthenticator
	var stateCodec *iauth.StateCodec
	if cfg.Auth.OIDC.Enabled {
		sso, err = iauth.NewOIDCAuthenticator(ctx, cfg.Auth.OIDCAuthenticatorConfig())
		if err != nil {
			return nil, fmt.Errorf("initialise oidc: %w", err)
		}

		stateKey, keyErr := cfg.Auth.StateCodecKey()
		if keyErr != nil {
			return nil, fmt.Errorf("initialise oidc: %w", keyErr)
		}
		stateCodec, err = iauth.NewStateCodec(stateKey, cfg.Auth.OIDC.StateTTL, nil)
		if err != nil {
			return nil, fmt.Errorf("initialise oidc state codec: %w", err)
		}
		log.Info("single sign-on enabled", zap.String("issuer", cfg.Auth.OIDC.Issuer))
	}

	if cfg.Maintenance.Enabled {
		stack.Sweeper = maintenance.NewSweeper(stack.DB, maintenance.WithSchedule(cfg.Maintenance.Schedule))
		if err := stack.Sweeper.Start(); err != nil {
			return nil, fmt.Errorf("start maintenance sweeper: %w", err)
		}
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		DB:         stack.DB,
		JWT:        jwtSvc,
		Config:     cfg,
		Cache:      store,
		RateStore:  rateStore,
		SSO:        sso,
		StateCodec: stateCodec,
	})
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Sweeper != nil {
		stopCtx := s.Sweeper.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		if err := s.Sweeper.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown sweep failed", zap.Error(err))
		}
	}

	if rc, ok := s.Redis.(*cache.RedisClient); ok && rc != nil {
		if err := rc.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseOptions()

	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
