package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/bookinfo/internal/logger"
)

// CacheCoverTask fetches a saved book's cover into the local cache.
type CacheCoverTask struct {
	BookID   string `json:"book_id"`
	CoverURL string `json:"cover_url"`
}

// Config returns the queue configuration for cover caching tasks.
func (t CacheCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cache_cover",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CoverWarmer is implemented by covers.Cache.
type CoverWarmer interface {
	Warm(ctx context.Context, bookID, coverURL string) error
}

// CacheCoverProcessor creates a processor function for CacheCoverTask.
func CacheCoverProcessor(cache CoverWarmer) backlite.QueueProcessor[CacheCoverTask] {
	return func(ctx context.Context, task CacheCoverTask) error {
		if cache == nil {
			return fmt.Errorf("cover cache not configured")
		}

		if err := cache.Warm(ctx, task.BookID, task.CoverURL); err != nil {
			return fmt.Errorf("cache cover for %s: %w", task.BookID, err)
		}

		logger.L.Debug("Cached cover", zap.String("book_id", task.BookID))
		return nil
	}
}

// NewCacheCoverQueue creates a backlite queue for cover caching tasks.
func NewCacheCoverQueue(cache CoverWarmer) backlite.Queue {
	return backlite.NewQueue(CacheCoverProcessor(cache))
}
