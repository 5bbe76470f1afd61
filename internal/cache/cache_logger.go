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

// InvalidateQuestionCache invalidates all question-related caches for a school
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager, questionID, schoolID uint) {
	SafeDelete(ctx, cm.Question, fmt.Sprintf("id:%d", questionID))
	SafeInvalidatePattern(ctx, cm.Question, fmt.Sprintf("school:%d:*", schoolID))
	SafeInvalidatePattern(ctx, cm.Question, "list:*")
}

// InvalidateVideoCache invalidates all video-related caches
func InvalidateVideoCache(ctx context.Context, cm *CacheManager, videoID uint) {
	SafeDelete(ctx, cm.Video,
		fmt.Sprintf("id:%d", videoID),
		fmt.Sprintf("details:%d", videoID))
	SafeInvalidatePattern(ctx, cm.Video, "school:*")
	SafeInvalidatePattern(ctx, cm.Video, "list:*")
}

// InvalidateSchoolCache invalidates school caches together with the dependent
// question and video listings
func InvalidateSchoolCache(ctx context.Context, cm *CacheManager, schoolID uint) {
	SafeDelete(ctx, cm.School, fmt.Sprintf("id:%d", schoolID))
	SafeInvalidatePattern(ctx, cm.School, "list:*")
	SafeInvalidatePattern(ctx, cm.Question, fmt.Sprintf("school:%d:*", schoolID))
	SafeInvalidatePattern(ctx, cm.Video, fmt.Sprintf("school:%d:*", schoolID))
}

// InvalidateUserCache invalidates user caches
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID uint) {
	SafeDelete(ctx, cm.User, fmt.Sprintf("id:%d", userID))
	SafeInvalidatePattern(ctx, cm.User, "email:*")
	SafeInvalidatePattern(ctx, cm.User, "list:*")
}
