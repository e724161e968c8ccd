package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUserRoleActiveAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name       string
		assignment UserRole
		want       bool
	}{
		{"active without expiry", UserRole{IsActive: true}, true},
		{"active with future expiry", UserRole{IsActive: true, ExpiresAt: &future}, true},
		{"expired", UserRole{IsActive: true, ExpiresAt: &past}, false},
		{"deactivated", UserRole{IsActive: false}, false},
		{"deactivated with future expiry", UserRole{IsActive: false, ExpiresAt: &future}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.assignment.ActiveAt(now))
		})
	}
}

func TestPermissionOverrideActiveAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	require.True(t, (&PermissionOverride{IsActive: true}).ActiveAt(now))
	require.True(t, (&PermissionOverride{IsActive: true, ExpiresAt: &future}).ActiveAt(now))
	require.False(t, (&PermissionOverride{IsActive: true, ExpiresAt: &past}).ActiveAt(now))
	require.False(t, (&PermissionOverride{IsActive: false}).ActiveAt(now))
}

func TestUserLocked(t *testing.T) {
	now := time.Now()
	until := now.Add(10 * time.Minute)
	expired := now.Add(-10 * time.Minute)

	require.False(t, (&User{}).Locked(now))
	require.True(t, (&User{LockedUntil: &until}).Locked(now))
	require.False(t, (&User{LockedUntil: &expired}).Locked(now))
}
