// Package usage tracks token usage and estimated cost per pipeline step.
package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	dailyWriteTimeout = 2 * time.Second
	dailyQueueSize    = 256
)

type dailyWrite struct {
	day  time.Time
	step string
	u    Usage
}

// Tracker accumulates usage for the lifetime of the process and forwards
// every call to an optional daily store. Store writes happen on a
// background worker; AddCall never waits for the store.
type Tracker struct {
	mu           sync.Mutex
	pricing      Pricing
	total        TokenCounts
	byStep       map[string]TokenCounts
	daily        DailyStore
	writes       chan dailyWrite
	done         chan struct{}
	closed       bool
	writeTimeout time.Duration
	now          func() time.Time
}

func NewTracker(pricing Pricing, daily DailyStore) *Tracker {
	t := &Tracker{
		pricing:      pricing,
		byStep:       make(map[string]TokenCounts),
		daily:        daily,
		writeTimeout: dailyWriteTimeout,
		now:          time.Now,
	}
	if daily != nil {
		t.writes = make(chan dailyWrite, dailyQueueSize)
		t.done = make(chan struct{})
		go t.writeDaily()
	}
	return t
}

// AddCall records one call. Daily store failures are logged and dropped.
func (t *Tracker) AddCall(step string, u Usage) {
	if step == "" {
		step = "unknown"
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.total.Add(u)
	addToMap(t.byStep, step, u)

	if t.writes == nil || t.closed {
		return
	}
	select {
	case t.writes <- dailyWrite{day: t.now(), step: step, u: u}:
	default:
		slog.Warn("Daily usage queue full, dropping record", "step", step)
	}
}

// Close flushes queued daily writes and stops the worker. Calls recorded
// afterwards only reach the in-memory totals.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.writes == nil || t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.writes)
	t.mu.Unlock()

	<-t.done
}

func (t *Tracker) writeDaily() {
	defer close(t.done)

	for w := range t.writes {
		ctx, cancel := context.WithTimeout(context.Background(), t.writeTimeout)
		if err := t.daily.Add(ctx, w.day, w.step, w.u); err != nil {
			slog.Warn("Failed to record daily usage", "step", w.step, "error", err)
		}
		cancel()
	}
}

// Summary returns a copy of the aggregated usage.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Summary{
		Total:   t.total,
		ByStep:  copyTokenCountsMap(t.byStep),
		Calls:   t.total.Calls,
		CostUSD: t.pricing.Cost(t.total),
	}
}

// Daily returns the stored aggregate for a day.
func (t *Tracker) Daily(ctx context.Context, day time.Time) (DailyStats, error) {
	if t.daily == nil {
		return DailyStats{Date: dayKey(day), ByStep: map[string]TokenCounts{}}, nil
	}
	return t.daily.Get(ctx, day)
}

func (t *Tracker) Pricing() Pricing {
	return t.pricing
}

func copyTokenCountsMap(src map[string]TokenCounts) map[string]TokenCounts {
	dst := make(map[string]TokenCounts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]TokenCounts, key string, u Usage) {
	entry := m[key]
	entry.Add(u)
	m[key] = entry
}
