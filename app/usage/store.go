package usage

import (
	"context"
	"sync"
	"time"
)

// DailyStore keeps usage aggregates keyed by calendar day.
type DailyStore interface {
	Add(ctx context.Context, day time.Time, step string, u Usage) error
	Get(ctx context.Context, day time.Time) (DailyStats, error)
}

// MemoryDailyStore is the in-process fallback when no Redis is configured.
type MemoryDailyStore struct {
	mu   sync.Mutex
	days map[string]*DailyStats
}

func NewMemoryDailyStore() *MemoryDailyStore {
	return &MemoryDailyStore{days: make(map[string]*DailyStats)}
}

func (s *MemoryDailyStore) Add(_ context.Context, day time.Time, step string, u Usage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dayKey(day)
	stats, ok := s.days[key]
	if !ok {
		stats = &DailyStats{Date: key, ByStep: make(map[string]TokenCounts)}
		s.days[key] = stats
	}
	stats.Total.Add(u)
	addToMap(stats.ByStep, step, u)
	return nil
}

func (s *MemoryDailyStore) Get(_ context.Context, day time.Time) (DailyStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dayKey(day)
	stats, ok := s.days[key]
	if !ok {
		return DailyStats{Date: key, ByStep: make(map[string]TokenCounts)}, nil
	}
	return DailyStats{Date: key, Total: stats.Total, ByStep: copyTokenCountsMap(stats.ByStep)}, nil
}
