package usage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dailyKeyPrefix = "usage:daily:"
	dailyTTL       = 400 * 24 * time.Hour
	stepFieldPre   = "step:"
)

// RedisDailyStore keeps one hash per day with HINCRBY counters.
type RedisDailyStore struct {
	client *redis.Client
}

func NewRedisDailyStore(addr string) (*RedisDailyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)

	return &RedisDailyStore{client: client}, nil
}

// GenerateDailyKey returns the hash key holding a day's counters.
func GenerateDailyKey(day time.Time) string {
	return dailyKeyPrefix + dayKey(day)
}

func (s *RedisDailyStore) Add(ctx context.Context, day time.Time, step string, u Usage) error {
	key := GenerateDailyKey(day)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, "input", u.InputTokens)
		pipe.HIncrBy(ctx, key, "output", u.OutputTokens)
		pipe.HIncrBy(ctx, key, "calls", 1)
		pipe.HIncrBy(ctx, key, stepFieldPre+step+":input", u.InputTokens)
		pipe.HIncrBy(ctx, key, stepFieldPre+step+":output", u.OutputTokens)
		pipe.HIncrBy(ctx, key, stepFieldPre+step+":calls", 1)
		pipe.Expire(ctx, key, dailyTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment key %s: %w", key, err)
	}
	return nil
}

func (s *RedisDailyStore) Get(ctx context.Context, day time.Time) (DailyStats, error) {
	key := GenerateDailyKey(day)

	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return DailyStats{}, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	stats := DailyStats{Date: dayKey(day), ByStep: make(map[string]TokenCounts)}
	for field, raw := range fields {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			slog.Warn("Skipping malformed usage counter", "key", key, "field", field, "value", raw)
			continue
		}

		if !strings.HasPrefix(field, stepFieldPre) {
			setCounter(&stats.Total, field, n)
			continue
		}

		rest := strings.TrimPrefix(field, stepFieldPre)
		idx := strings.LastIndex(rest, ":")
		if idx <= 0 {
			continue
		}
		step, counter := rest[:idx], rest[idx+1:]
		entry := stats.ByStep[step]
		setCounter(&entry, counter, n)
		stats.ByStep[step] = entry
	}
	return stats, nil
}

// Health reports whether Redis answers a ping.
func (s *RedisDailyStore) Health(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"status": "healthy",
		"type":   "redis",
	}
	if err := s.client.Ping(ctx).Err(); err != nil {
		health["status"] = "unhealthy"
		health["error"] = err.Error()
	}
	return health
}

func (s *RedisDailyStore) Close() error {
	return s.client.Close()
}

func setCounter(tc *TokenCounts, field string, n int64) {
	switch field {
	case "input":
		tc.Input = n
	case "output":
		tc.Output = n
	case "calls":
		tc.Calls = n
	default:
		return
	}
	tc.Total = tc.Input + tc.Output
}
