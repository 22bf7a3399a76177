package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/feed"
)

type scriptedTask struct {
	Task
	mu        sync.Mutex
	runs      int
	failUntil int // runs that fail before the first success
	gaveUp    error
	done      chan struct{}
}

func newScriptedTask(failUntil, maxRetries int) *scriptedTask {
	t := &scriptedTask{Task: NewTask(TaskTypeImportFeed, "test"), failUntil: failUntil, done: make(chan struct{}, 1)}
	t.MaxRetries = maxRetries
	return t
}

func (t *scriptedTask) Execute(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.runs++
	if t.runs <= t.failUntil {
		if t.runs > t.MaxRetries {
			// the final failure is reported through GiveUp
			return errors.New("still failing")
		}
		return errors.New("temporary failure")
	}
	t.done <- struct{}{}
	return nil
}

func (t *scriptedTask) GiveUp(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gaveUp = err
	t.done <- struct{}{}
}

func (t *scriptedTask) snapshot() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs, t.gaveUp
}

func newTestScheduler(cache *feed.ConfigCache) *Scheduler {
	s := NewScheduler(cache, nil, NewFetcher(nil, "test"), feed.NewParser(), feed.NewFilterer(), feed.NewContentExtractor(), time.Hour, 2)
	s.retryBase = time.Millisecond
	return s
}

func waitDone(t *testing.T, task *scriptedTask) {
	t.Helper()
	select {
	case <-task.done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for task")
	}
}

func TestNewScheduler(t *testing.T) {
	s := NewScheduler(nil, nil, nil, nil, nil, nil, 0, 0)

	if s.workerCount != 1 {
		t.Errorf("Expected worker count to default to 1, got %d", s.workerCount)
	}
	if s.interval != time.Second {
		t.Errorf("Expected interval to be at least 1s, got %s", s.interval)
	}
}

func TestScheduler_RetriesUntilSuccess(t *testing.T) {
	s := newTestScheduler(nil)
	s.Start()
	defer s.Stop()

	task := newScriptedTask(2, 3)
	if err := s.EnqueueTask(task); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	waitDone(t, task)

	runs, gaveUp := task.snapshot()
	if runs != 3 {
		t.Errorf("Expected 3 runs, got %d", runs)
	}
	if gaveUp != nil {
		t.Errorf("Expected no give-up, got %v", gaveUp)
	}
	if task.GetRetryCount() != 2 {
		t.Errorf("Expected retry count 2, got %d", task.GetRetryCount())
	}
}

func TestScheduler_GivesUpAfterMaxRetries(t *testing.T) {
	s := newTestScheduler(nil)
	s.Start()
	defer s.Stop()

	task := newScriptedTask(10, 1)
	if err := s.EnqueueTask(task); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	waitDone(t, task)

	runs, gaveUp := task.snapshot()
	if runs != 2 {
		t.Errorf("Expected 2 runs, got %d", runs)
	}
	if gaveUp == nil || gaveUp.Error() != "still failing" {
		t.Errorf("Expected give-up with last error, got %v", gaveUp)
	}
}

func TestScheduler_QueueFull(t *testing.T) {
	s := newTestScheduler(nil)

	for i := 0; i < queueSize; i++ {
		if err := s.EnqueueTask(newScriptedTask(0, 0)); err != nil {
			t.Fatalf("Unexpected error at %d: %v", i, err)
		}
	}
	if err := s.EnqueueTask(newScriptedTask(0, 0)); err == nil {
		t.Error("Expected error when the queue is full")
	}
}

func TestScheduler_StopGivesUpQueuedTasks(t *testing.T) {
	s := newTestScheduler(nil)

	task := newScriptedTask(0, 0)
	if err := s.EnqueueTask(task); err != nil {
		t.Fatalf("Failed to enqueue: %v", err)
	}
	s.Stop()

	if _, gaveUp := task.snapshot(); gaveUp == nil {
		t.Error("Expected queued task to give up on stop")
	}
	if err := s.EnqueueTask(newScriptedTask(0, 0)); err == nil {
		t.Error("Expected error after stop")
	}
}

func TestScheduler_EnqueuesDueSources(t *testing.T) {
	cache := feed.NewConfigCache("")
	if _, err := cache.AddURL("https://britzmedi.com/news/rss"); err != nil {
		t.Fatalf("Failed to add source: %v", err)
	}

	s := newTestScheduler(cache)
	now := time.Date(2025, 4, 15, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.enqueueTasks()
	if len(s.taskQueue) != 1 {
		t.Fatalf("Expected 1 queued import, got %d", len(s.taskQueue))
	}
	queued := <-s.taskQueue
	if queued.GetType() != TaskTypeImportFeed || queued.GetSubject() != "britzmedi.com-news-rss" {
		t.Errorf("Unexpected task %s/%s", queued.GetType(), queued.GetSubject())
	}

	// refresh interval defaults to an hour
	now = now.Add(30 * time.Minute)
	s.enqueueTasks()
	if len(s.taskQueue) != 0 {
		t.Errorf("Expected no import before the refresh interval, got %d", len(s.taskQueue))
	}

	now = now.Add(31 * time.Minute)
	s.enqueueTasks()
	if len(s.taskQueue) != 1 {
		t.Errorf("Expected import after the refresh interval, got %d", len(s.taskQueue))
	}
}
