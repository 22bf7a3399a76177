package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/database"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	queueSize     = 300
	taskTimeout   = 5 * time.Minute
	maxRetryDelay = 30 * time.Second
)

// Scheduler runs a fixed worker pool over a task queue and enqueues a
// newsroom import for every enabled source when its refresh interval is due.
type Scheduler struct {
	contentRepo      database.ContentRepository
	configCache      *feed.ConfigCache
	fetcher          *Fetcher
	parser           *feed.Parser
	filterer         *feed.Filterer
	contentExtractor *feed.ContentExtractor
	interval         time.Duration
	workerCount      int
	retryBase        time.Duration
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface

	mu      sync.Mutex
	lastRun map[string]time.Time
	now     func() time.Time
}

func NewScheduler(configCache *feed.ConfigCache, contentRepo database.ContentRepository, fetcher *Fetcher,
	parser *feed.Parser, filterer *feed.Filterer, contentExtractor *feed.ContentExtractor,
	interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		contentRepo:      contentRepo,
		configCache:      configCache,
		fetcher:          fetcher,
		parser:           parser,
		filterer:         filterer,
		contentExtractor: contentExtractor,
		interval:         max(interval, time.Second),
		workerCount:      max(workerCount, 1),
		retryBase:        time.Second,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, queueSize),
		lastRun:          make(map[string]time.Time),
		now:              time.Now,
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()

}

// Stop waits for running tasks. Tasks still queued are dropped, except
// that GiveUppers get to record their unfinished work.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()

	for {
		select {
		case task := <-s.taskQueue:
			if g, ok := task.(GiveUpper); ok {
				g.GiveUp(errors.New("scheduler stopped"))
			}
		default:
			return
		}
	}
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueTasks queues an import for every enabled source whose refresh
// interval has passed since its last run.
func (s *Scheduler) enqueueTasks() {
	if s.configCache == nil {
		return
	}

	sources := s.configCache.GetEnabledConfigs()
	if len(sources) == 0 {
		slog.Debug("No enabled source configurations found")
		return
	}

	for _, source := range sources {
		if !s.due(source) {
			slog.Debug("Source not due for refresh yet", "source", source.Name)
			continue
		}

		task := NewImportFeedTask(source, s.fetcher, s.parser, s.filterer, s.contentExtractor, s.contentRepo)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ImportFeedTask", "source", source.Name, "error", err)
		}
	}
}

func (s *Scheduler) due(source *feed.Config) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	refresh := time.Duration(source.Settings.RefreshInterval) * time.Second
	if last, ok := s.lastRun[source.Name]; ok && now.Sub(last) < refresh {
		return false
	}
	s.lastRun[source.Name] = now
	return true
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		if g, ok := task.(GiveUpper); ok {
			g.GiveUp(err)
		}
		return
	}

	task.IncrementRetryCount()
	retryDelay := min(s.retryBase<<uint(task.GetRetryCount()-1), maxRetryDelay)

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
			if g, ok := task.(GiveUpper); ok {
				g.GiveUp(fmt.Errorf("scheduler stopped before retry: %w", err))
			}
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				if g, ok := task.(GiveUpper); ok {
					g.GiveUp(retryErr)
				}
			}
		}
	}()
}
