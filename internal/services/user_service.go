package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/careerhub/careerhub/internal/models"
	apperrors "github.com/careerhub/careerhub/pkg/errors"
	"github.com/careerhub/careerhub/pkg/metrics"
)

// LockoutPolicy controls how failed logins lock an account.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy locks an account for fifteen minutes after five
// consecutive failures.
var DefaultLockoutPolicy = LockoutPolicy{Threshold: 5, Duration: 15 * time.Minute}

// UserService manages accounts and local credential checks. Accounts map one
// to one onto employees; provisioning happens lazily on first sign-in.
type UserService struct {
	db      *gorm.DB
	lockout LockoutPolicy
	now     func() time.Time
}

// NewUserService constructs a UserService with the given lockout policy.
// Zero policy fields fall back to the defaults.
func NewUserService(db *gorm.DB, lockout LockoutPolicy) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if lockout.Threshold <= 0 {
		lockout.Threshold = DefaultLockoutPolicy.Threshold
	}
	if lockout.Duration <= 0 {
		lockout.Duration = DefaultLockoutPolicy.Duration
	}
	return &UserService{db: db, lockout: lockout, now: time.Now}, nil
}

// WithClock overrides the time source. Intended for tests.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// Authenticate verifies a username (or email) and password pair. Failed
// attempts count toward the lockout threshold; a success resets the counter.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	ctx = ensureContext(ctx)
	now := s.now()

	login = strings.TrimSpace(strings.ToLower(login))
	if login == "" || password == "" {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, login).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.AuthAttempts.WithLabelValues("failure").Inc()
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("user service: load user: %w", err))
	}

	if !user.IsActive {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if user.Locked(now) {
		metrics.AuthAttempts.WithLabelValues("locked").Inc()
		return nil, apperrors.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if err := s.recordFailure(ctx, &user, now); err != nil {
			return nil, err
		}
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}

	updates := map[string]any{
		"failed_attempts": 0,
		"locked_until":    nil,
		"last_login_at":   now,
	}
	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("user service: record login: %w", err))
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	user.FailedAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	return &user, nil
}

func (s *UserService) recordFailure(ctx context.Context, user *models.User, now time.Time) error {
	attempts := user.FailedAttempts + 1
	updates := map[string]any{"failed_attempts": attempts}
	if attempts >= s.lockout.Threshold {
		lockedUntil := now.Add(s.lockout.Duration)
		updates["locked_until"] = lockedUntil
		updates["failed_attempts"] = 0
	}
	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return apperrors.ErrStorage.WithInternal(fmt.Errorf("user service: record failure: %w", err))
	}
	return nil
}

// ResolveByEmail returns the account for a verified email address,
// provisioning one from the matching employee record when none exists yet.
// Used by the OIDC callback, where the identity provider owns the credential.
func (s *UserService) ResolveByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx = ensureContext(ctx)

	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, apperrors.NewValidation("email is required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		if !user.IsActive {
			return nil, apperrors.ErrForbidden.WithMessage("account is deactivated")
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("user service: load user: %w", err))
	}

	var employee models.Employee
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("user service: load employee: %w", err))
	}

	user = models.User{
		EmployeeID: employee.ID,
		Username:   email,
		Email:      email,
		Password:   "!", // never a valid bcrypt hash, local login stays impossible
		IsActive:   true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueConstraintError(err) {
			// Lost a provisioning race, the winner's row is authoritative.
			if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
				return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("user service: reload user: %w", err))
			}
			return &user, nil
		}
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("user service: provision user: %w", err))
	}

	return &user, nil
}

// GetUser loads an account with its employee record.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).Preload("Employee").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperrors.ErrStorage.WithInternal(fmt.Errorf("user service: load user: %w", err))
	}
	return &user, nil
}

// SetPassword stores a bcrypt hash of the supplied password.
func (s *UserService) SetPassword(ctx context.Context, userID, password string) error {
	ctx = ensureContext(ctx)

	if len(password) < 8 {
		return apperrors.NewValidation("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.ErrInternalServer.WithInternal(fmt.Errorf("user service: hash password: %w", err))
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password", string(hash))
	if result.Error != nil {
		return apperrors.ErrStorage.WithInternal(fmt.Errorf("user service: set password: %w", result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
