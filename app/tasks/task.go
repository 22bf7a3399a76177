package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskType string

const (
	TaskTypeImportFeed    TaskType = "import_feed"
	TaskTypeImportURL     TaskType = "import_url"
	TaskTypePersistResult TaskType = "persist_result"
)

const (
	DefaultMaxRetries = 3
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetSubject() string
	GetRetryCount() int
	GetMaxRetries() int
	IncrementRetryCount()
	CanRetry() bool
	Start()
	GetDuration() time.Duration
}

// GiveUpper is implemented by tasks that keep a record of work they could
// not finish once their retries are exhausted.
type GiveUpper interface {
	GiveUp(err error)
}

type Task struct {
	ID         string
	Type       TaskType
	Subject    string // feed name, URL or content id
	RetryCount int
	MaxRetries int
	StartedAt  *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetSubject() string {
	return t.Subject
}

func (t *Task) GetRetryCount() int {
	return t.RetryCount
}

func (t *Task) GetMaxRetries() int {
	return t.MaxRetries
}

func (t *Task) IncrementRetryCount() {
	t.RetryCount++
}

func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, subject string) Task {
	return Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		Subject:    subject,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
	}
}
