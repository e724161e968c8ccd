package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/models"
	"github.com/careerhub/careerhub/pkg/logger"
)

const defaultSweepSpec = "@every 10m"

// Sweeper runs background maintenance: deactivating role assignments and
// permission overrides whose expiry has passed, and purging stale cache
// entries. Expiry already takes effect at resolution time; the sweep only
// normalises the stored rows so list views and queries match. The audit log
// is never touched.
type Sweeper struct {
	db       *gorm.DB
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger
	schedule string
}

// Option customises the Sweeper.
type Option func(*Sweeper)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Sweeper) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSchedule overrides the cron specification for the sweep.
func WithSchedule(spec string) Option {
	return func(s *Sweeper) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// NewSweeper constructs a Sweeper with sensible defaults.
func NewSweeper(db *gorm.DB, opts ...Option) *Sweeper {
	sweeper := &Sweeper{
		db:       db,
		now:      time.Now,
		schedule: defaultSweepSpec,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(sweeper)
	}

	if sweeper.cron == nil {
		sweeper.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return sweeper
}

// Start registers the sweep job with the cron scheduler and launches it.
func (s *Sweeper) Start() error {
	if s.db == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("maintenance sweep failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Sweeper) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes all sweep routines sequentially. Also used during graceful
// shutdown and in tests.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	now := s.now()
	var errs error

	stats, err := SweepExpiredGrants(ctx, s.db, now)
	if err != nil {
		errs = multierr.Append(errs, err)
	} else if stats.Assignments > 0 || stats.Overrides > 0 {
		s.log.Info("deactivated expired grants",
			zap.Int64("assignments", stats.Assignments),
			zap.Int64("overrides", stats.Overrides),
		)
	}

	if err := PurgeExpiredCacheEntries(ctx, s.db, now); err != nil {
		errs = multierr.Append(errs, err)
	}

	return errs
}

// SweepStats captures the number of rows deactivated in a sweep.
type SweepStats struct {
	Assignments int64
	Overrides   int64
}

// SweepExpiredGrants deactivates role assignments and overrides whose expiry
// has passed. The rows are kept for history, matching how explicit removal
// behaves.
func SweepExpiredGrants(ctx context.Context, db *gorm.DB, now time.Time) (SweepStats, error) {
	if db == nil {
		return SweepStats{}, errors.New("maintenance: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stats := SweepStats{}

	result := db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Update("is_active", false)
	if result.Error != nil {
		return stats, fmt.Errorf("maintenance: sweep assignments: %w", result.Error)
	}
	stats.Assignments = result.RowsAffected

	result = db.WithContext(ctx).
		Model(&models.PermissionOverride{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?", true, now).
		Update("is_active", false)
	if result.Error != nil {
		return stats, fmt.Errorf("maintenance: sweep overrides: %w", result.Error)
	}
	stats.Overrides = result.RowsAffected

	return stats, nil
}

// PurgeExpiredCacheEntries removes database cache rows past their expiry.
func PurgeExpiredCacheEntries(ctx context.Context, db *gorm.DB, now time.Time) error {
	if db == nil {
		return errors.New("maintenance: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := db.WithContext(ctx).
		Where("expires_at != ? AND expires_at < ?", time.Time{}, now).
		Delete(&models.CacheEntry{}).Error; err != nil {
		return fmt.Errorf("maintenance: purge cache entries: %w", err)
	}
	return nil
}
