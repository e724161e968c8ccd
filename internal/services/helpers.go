package services

import (
	"context"
	"strings"
	"time"

	"github.com/careerhub/careerhub/internal/cache"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func normaliseIDs(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// validateExpiry rejects expiry timestamps that are already in the past.
func validateExpiry(expiresAt *time.Time, now time.Time) error {
	if expiresAt != nil && !expiresAt.After(now) {
		return ErrExpiryInPast
	}
	return nil
}

// PermissionCacheKey names the advisory per-user permission snapshot entry.
// Mutation services delete it so stale snapshots never outlive a change.
func PermissionCacheKey(userID string) string {
	return "permissions:user:" + userID
}

// invalidateSnapshot drops the advisory permission cache for a user. Cache
// failures are tolerated: the cache is never authoritative.
func invalidateSnapshot(ctx context.Context, store cache.Store, userID string) {
	if store == nil || userID == "" {
		return
	}
	_ = store.Delete(ctx, PermissionCacheKey(userID))
}
