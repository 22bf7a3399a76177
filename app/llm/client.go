// Package llm calls the hosted completion endpoint with bounded retry on
// overload and per-step usage reporting.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/metrics"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/usage"
)

const (
	DefaultMaxTokens   = 2048
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 2 * time.Second
	DefaultConcurrency = 6

	ErrorMarkerPrefix = "⚠️ 생성 실패: "
)

type Request struct {
	Prompt    string
	MaxTokens int
	Step      string // usage label, e.g. "generate:kakao"
}

type Result struct {
	Text  string      `json:"text"`
	Usage usage.Usage `json:"usage"`
	Err   error       `json:"-"`
}

// Completer is the single-call contract the pipeline depends on.
type Completer interface {
	Complete(ctx context.Context, req Request) (Result, error)
}

// Provider performs one raw call against a vendor endpoint.
type Provider interface {
	Name() string
	Check() error
	Send(ctx context.Context, req Request) (Result, error)
}

type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	Concurrency int
	HTTPClient  *http.Client
}

type Client struct {
	provider    Provider
	recorder    usage.Recorder
	maxRetries  int
	retryDelay  time.Duration
	concurrency int
	sleep       func(ctx context.Context, d time.Duration) error
}

type Option func(*Client)

// WithSleep replaces the backoff wait, letting tests skip real delays.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New builds a client for the configured provider. A missing key or model
// is reported as a ConfigError.
func New(cfg Config, recorder usage.Recorder) (*Client, error) {
	var p Provider
	switch strings.ToLower(cfg.Provider) {
	case "", "anthropic":
		p = NewAnthropicProvider(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.HTTPClient)
	case "openai":
		p = NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.HTTPClient)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}

	if err := p.Check(); err != nil {
		return nil, err
	}

	opts := []Option{WithConcurrency(cfg.Concurrency)}
	if cfg.MaxRetries > 0 || cfg.RetryDelay > 0 {
		retries, delay := cfg.MaxRetries, cfg.RetryDelay
		if retries <= 0 {
			retries = DefaultMaxRetries
		}
		if delay <= 0 {
			delay = DefaultRetryDelay
		}
		opts = append(opts, WithRetry(retries, delay))
	}

	return NewWithProvider(p, recorder, opts...), nil
}

func NewWithProvider(p Provider, recorder usage.Recorder, opts ...Option) *Client {
	c := &Client{
		provider:    p,
		recorder:    recorder,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		concurrency: DefaultConcurrency,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ProviderName() string {
	return c.provider.Name()
}

// Complete sends one prompt. Overload responses are retried up to
// maxRetries times with doubling delay; any other failure is returned as is.
func (c *Client) Complete(ctx context.Context, req Request) (Result, error) {
	if err := c.provider.Check(); err != nil {
		return Result{}, err
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	name := c.provider.Name()
	stepKind := stepKind(req.Step)

	for attempt := 1; ; attempt++ {
		start := time.Now()
		res, err := c.provider.Send(ctx, req)
		if err == nil {
			metrics.RecordLLMCall(name, stepKind, "success", time.Since(start))
			metrics.RecordTokens(res.Usage.InputTokens, res.Usage.OutputTokens)
			c.record(req.Step, res.Usage)
			slog.Debug("completion finished", "provider", name, "step", req.Step, "attempt", attempt,
				"input_tokens", res.Usage.InputTokens, "output_tokens", res.Usage.OutputTokens)
			return res, nil
		}

		if !IsOverloaded(err) {
			metrics.RecordLLMCall(name, stepKind, "error", time.Since(start))
			return Result{}, err
		}

		metrics.RecordLLMCall(name, stepKind, "overloaded", time.Since(start))
		if attempt > c.maxRetries {
			return Result{}, &OverloadedError{Attempts: attempt, Last: err}
		}

		delay := c.retryDelay * time.Duration(1<<(attempt-1))
		slog.Warn("LLM endpoint overloaded, retrying", "provider", name, "step", req.Step, "attempt", attempt, "delay", delay)
		metrics.RecordRetry()

		if err := c.sleep(ctx, delay); err != nil {
			return Result{}, fmt.Errorf("retry wait interrupted: %w", err)
		}
	}
}

// CompleteMany runs the requests concurrently and returns results in
// request order. A failed request yields an inline error marker as its text
// and does not affect the others.
func (c *Client) CompleteMany(ctx context.Context, reqs []Request) []Result {
	return CompleteMany(ctx, c, reqs, c.concurrency)
}

// CompleteMany fans out over any Completer.
func CompleteMany(ctx context.Context, comp Completer, reqs []Request, limit int) []Result {
	results := make([]Result, len(reqs))

	g := new(errgroup.Group)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, req := range reqs {
		g.Go(func() error {
			res, err := comp.Complete(ctx, req)
			if err != nil {
				slog.Warn("Completion failed", "step", req.Step, "error", err)
				results[i] = Result{Text: ErrorMarker(err), Err: err}
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// ErrorMarker renders err as the text shown in a channel slot.
func ErrorMarker(err error) string {
	return ErrorMarkerPrefix + userMessage(err)
}

func IsErrorMarker(text string) bool {
	return strings.HasPrefix(text, ErrorMarkerPrefix)
}

func (c *Client) record(step string, u usage.Usage) {
	if c.recorder == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Usage tracking failed", "step", step, "panic", r)
		}
	}()
	c.recorder.AddCall(step, u)
}

// stepKind drops the channel suffix so metric label cardinality stays bounded.
func stepKind(step string) string {
	if kind, _, found := strings.Cut(step, ":"); found {
		return kind
	}
	if step == "" {
		return "unknown"
	}
	return step
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
