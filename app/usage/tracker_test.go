package usage

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
)

type failingStore struct{ calls int }

func (s *failingStore) Add(context.Context, time.Time, string, Usage) error {
	s.calls++
	return errors.New("store unavailable")
}

func (s *failingStore) Get(context.Context, time.Time) (DailyStats, error) {
	return DailyStats{}, errors.New("store unavailable")
}

func TestTracker_Summary(t *testing.T) {
	tracker := NewTracker(Pricing{InputPerMillion: 3, OutputPerMillion: 15}, nil)

	tracker.AddCall("generate:kakao", Usage{InputTokens: 1000, OutputTokens: 200})
	tracker.AddCall("generate:linkedin", Usage{InputTokens: 2000, OutputTokens: 800})
	tracker.AddCall("generate:kakao", Usage{InputTokens: 500, OutputTokens: 100})

	s := tracker.Summary()

	if s.Calls != 3 {
		t.Errorf("Expected 3 calls, got %d", s.Calls)
	}
	want := TokenCounts{Input: 3500, Output: 1100, Total: 4600, Calls: 3}
	if diff := cmp.Diff(want, s.Total); diff != "" {
		t.Errorf("Total mismatch (-want +got):\n%s", diff)
	}
	if kakao := s.ByStep["generate:kakao"]; kakao.Calls != 2 || kakao.Input != 1500 {
		t.Errorf("Expected kakao step with 2 calls and 1500 input, got %+v", kakao)
	}

	wantCost := 3500.0/1e6*3 + 1100.0/1e6*15
	if math.Abs(s.CostUSD-wantCost) > 1e-9 {
		t.Errorf("Expected cost %f, got %f", wantCost, s.CostUSD)
	}

	// the returned map is a copy
	s.ByStep["generate:kakao"] = TokenCounts{}
	if tracker.Summary().ByStep["generate:kakao"].Calls != 2 {
		t.Error("Expected summary maps to be independent copies")
	}
}

func TestTracker_DailyStoreFailureIsSwallowed(t *testing.T) {
	store := &failingStore{}
	tracker := NewTracker(Pricing{}, store)

	tracker.AddCall("review", Usage{InputTokens: 10, OutputTokens: 5})
	tracker.Close()

	if store.calls != 1 {
		t.Errorf("Expected daily store to be called once, got %d", store.calls)
	}
	if tracker.Summary().Calls != 1 {
		t.Error("Expected call to be counted despite store failure")
	}
}

// blockingStore holds every write until its context expires.
type blockingStore struct {
	mu       sync.Mutex
	timeouts int
}

func (s *blockingStore) Add(ctx context.Context, _ time.Time, _ string, _ Usage) error {
	<-ctx.Done()
	s.mu.Lock()
	s.timeouts++
	s.mu.Unlock()
	return ctx.Err()
}

func (s *blockingStore) Get(context.Context, time.Time) (DailyStats, error) {
	return DailyStats{}, nil
}

func TestTracker_SlowDailyStoreDoesNotBlock(t *testing.T) {
	store := &blockingStore{}
	tracker := NewTracker(Pricing{}, store)
	tracker.writeTimeout = 200 * time.Millisecond

	start := time.Now()
	for i := 0; i < 3; i++ {
		tracker.AddCall("generate:kakao", Usage{InputTokens: 10, OutputTokens: 5})
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Expected AddCall to return without waiting for the store, took %s", elapsed)
	}
	if got := tracker.Summary().Calls; got != 3 {
		t.Errorf("Expected 3 calls in memory, got %d", got)
	}

	tracker.Close()
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.timeouts != 3 {
		t.Errorf("Expected 3 timed-out store writes, got %d", store.timeouts)
	}

	// calls after Close still count in memory
	tracker.AddCall("review", Usage{InputTokens: 1})
	if got := tracker.Summary().Calls; got != 4 {
		t.Errorf("Expected 4 calls after close, got %d", got)
	}
}

func TestTracker_EmptyStep(t *testing.T) {
	tracker := NewTracker(Pricing{}, nil)
	tracker.AddCall("", Usage{InputTokens: 1})

	if _, ok := tracker.Summary().ByStep["unknown"]; !ok {
		t.Error("Expected empty step to be recorded as 'unknown'")
	}
}

func TestMemoryDailyStore(t *testing.T) {
	store := NewMemoryDailyStore()
	tracker := NewTracker(Pricing{}, store)
	day := time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return day }

	tracker.AddCall("generate:kakao", Usage{InputTokens: 100, OutputTokens: 50})
	tracker.AddCall("autofix", Usage{InputTokens: 30, OutputTokens: 20})
	tracker.Close()

	stats, err := tracker.Daily(context.Background(), day)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Date != "2026-04-15" {
		t.Errorf("Expected date 2026-04-15, got %s", stats.Date)
	}
	if stats.Total.Calls != 2 || stats.Total.Total != 200 {
		t.Errorf("Expected 2 calls and 200 tokens, got %+v", stats.Total)
	}

	other, _ := store.Get(context.Background(), day.AddDate(0, 0, 1))
	if other.Total.Calls != 0 {
		t.Errorf("Expected empty next day, got %+v", other.Total)
	}
}

func TestRedisDailyStore(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mr.Close()

	store, err := NewRedisDailyStore(mr.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	day := time.Date(2026, 4, 15, 23, 59, 0, 0, time.UTC)

	if err := store.Add(ctx, day, "generate:naver-blog", Usage{InputTokens: 1200, OutputTokens: 900}); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(ctx, day, "generate:naver-blog", Usage{InputTokens: 800, OutputTokens: 100}); err != nil {
		t.Fatal(err)
	}
	if err := store.Add(ctx, day, "review", Usage{InputTokens: 300, OutputTokens: 40}); err != nil {
		t.Fatal(err)
	}

	stats, err := store.Get(ctx, day)
	if err != nil {
		t.Fatal(err)
	}

	want := DailyStats{
		Date:  "2026-04-15",
		Total: TokenCounts{Input: 2300, Output: 1040, Total: 3340, Calls: 3},
		ByStep: map[string]TokenCounts{
			"generate:naver-blog": {Input: 2000, Output: 1000, Total: 3000, Calls: 2},
			"review":              {Input: 300, Output: 40, Total: 340, Calls: 1},
		},
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("Daily stats mismatch (-want +got):\n%s", diff)
	}

	ttl := mr.TTL(GenerateDailyKey(day))
	if ttl <= 0 || ttl > dailyTTL {
		t.Errorf("Expected TTL within (0, %s], got %s", dailyTTL, ttl)
	}

	if key := GenerateDailyKey(day); key != "usage:daily:2026-04-15" {
		t.Errorf("Expected key usage:daily:2026-04-15, got %s", key)
	}
}

func TestNewRedisDailyStore_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	addr := mr.Addr()
	mr.Close()

	if _, err := NewRedisDailyStore(addr); err == nil {
		t.Error("Expected connection error for a closed Redis")
	}
}
