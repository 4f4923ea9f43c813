package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateSessionCache invalidates all caches touched by a session update:
// the session record itself plus the user's level stats, which change when a
// session reaches a terminal state.
func InvalidateSessionCache(ctx context.Context, cm *CacheManager, sessionID, userID string) {
	SafeDelete(ctx, cm.Session, fmt.Sprintf("id:%s", sessionID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("user:%s:*", userID))
}

// InvalidateLevelCache invalidates the question pool cache for a level
func InvalidateLevelCache(ctx context.Context, cm *CacheManager, level int) {
	SafeDelete(ctx, cm.Question, fmt.Sprintf("level:%d", level))
}
