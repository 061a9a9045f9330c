package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mrlokans/bookinfo/internal/logger"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronSchedule checks a five-field cron expression or a descriptor
// such as "@hourly" or "@every 30m".
func ValidateCronSchedule(schedule string) error {
	_, err := cronParser.Parse(schedule)
	return err
}

// CoverRefSource lists the saved books that still have a cover.
type CoverRefSource interface {
	CoverRefs(ctx context.Context) (map[string]string, error)
}

// CoverPruner removes cached covers for books not in keep.
type CoverPruner interface {
	Prune(keep map[string]bool) (int, error)
}

// CoverPruneScheduler periodically removes cached covers of deleted books.
type CoverPruneScheduler struct {
	refs     CoverRefSource
	cache    CoverPruner
	schedule string

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
	isPruning bool
}

// NewCoverPruneScheduler creates a new scheduler instance
func NewCoverPruneScheduler(refs CoverRefSource, cache CoverPruner, schedule string) *CoverPruneScheduler {
	return &CoverPruneScheduler{
		refs:     refs,
		cache:    cache,
		schedule: schedule,
		cron:     cron.New(cron.WithParser(cronParser)),
	}
}

// Start registers the prune job and starts the cron loop. The scheduler stops
// when ctx is cancelled.
func (s *CoverPruneScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.PruneOnce(runCtx); err != nil {
			logger.L.Error("Cover prune failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cover prune job: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true

	logger.L.Info("Cover prune scheduler started",
		zap.String("schedule", s.schedule),
		zap.Time("next_run", s.cron.Entry(entryID).Next))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron loop and waits for an in-flight prune to finish.
func (s *CoverPruneScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.cron.Remove(s.entryID)
	done := s.cron.Stop().Done()
	s.mu.Unlock()

	// A running prune takes s.mu when it finishes, so wait unlocked.
	<-done
	logger.L.Info("Cover prune scheduler stopped")
}

// IsRunning returns whether the scheduler is active
func (s *CoverPruneScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// PruneOnce runs one prune pass and returns the number of files removed.
// Overlapping calls are skipped.
func (s *CoverPruneScheduler) PruneOnce(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.isPruning {
		s.mu.Unlock()
		logger.L.Info("Cover prune skipped (already running)")
		return 0, nil
	}
	s.isPruning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isPruning = false
		s.mu.Unlock()
	}()

	refs, err := s.refs.CoverRefs(ctx)
	if err != nil {
		return 0, fmt.Errorf("load cover refs: %w", err)
	}

	keep := make(map[string]bool, len(refs))
	for id := range refs {
		keep[id] = true
	}

	removed, err := s.cache.Prune(keep)
	if err != nil {
		return removed, fmt.Errorf("prune covers: %w", err)
	}
	if removed > 0 {
		logger.L.Info("Pruned orphaned covers", zap.Int("removed", removed))
	}
	return removed, nil
}
