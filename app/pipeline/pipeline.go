// Package pipeline repurposes one source into drafts for several channels.
//
// Each channel runs build, generate, sanitize, parse, range check, review
// and auto-fix in sequence. Channels run concurrently and fail independently:
// a failed channel carries an error marker in its own slot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/catalog"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/llm"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/metrics"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/parser"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/prompt"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/render"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/review"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/sanitizer"
)

const (
	StatusOK     = "ok"
	StatusFixed  = "fixed"
	StatusFailed = "failed"

	defaultConcurrency = 6
)

var ErrUnknownChannel = errors.New("unknown channel")

// Hook runs after every channel of a request has finished. Hook errors are
// reported as warnings and never change the generated content.
type Hook func(ctx context.Context, res *Result) error

type Pipeline struct {
	llm         llm.Completer
	catalog     review.Catalog
	prompts     *prompt.Builder
	reviewer    *review.Reviewer
	renderer    *render.Renderer
	hooks       []Hook
	concurrency int
	now         func() time.Time
}

type Option func(*Pipeline)

func WithHooks(hooks ...Hook) Option {
	return func(p *Pipeline) {
		p.hooks = append(p.hooks, hooks...)
	}
}

// WithConcurrency bounds how many channels generate at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func New(completer llm.Completer, c review.Catalog, opts ...Option) *Pipeline {
	prompts := prompt.NewBuilder(c)
	p := &Pipeline{
		llm:         completer,
		catalog:     c,
		prompts:     prompts,
		reviewer:    review.NewReviewer(completer, prompts, c),
		renderer:    render.NewRenderer(),
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Reviewer() *review.Reviewer {
	return p.reviewer
}

func (p *Pipeline) Renderer() *render.Renderer {
	return p.renderer
}

// Run generates every requested channel and returns the results in request
// order. It never fails as a whole.
func (p *Pipeline) Run(ctx context.Context, req Request) *Result {
	if req.Options.Today.IsZero() {
		req.Options.Today = p.now()
	}

	res := &Result{
		ContentID: req.ContentID,
		Source:    req.Source,
		Channels:  make([]ChannelResult, len(req.Channels)),
	}

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)
	for i, channelID := range req.Channels {
		g.Go(func() error {
			res.Channels[i] = p.RunChannel(ctx, channelID, req)
			return nil
		})
	}
	_ = g.Wait()

	for _, h := range p.hooks {
		if err := p.runHook(ctx, h, res); err != nil {
			metrics.RecordHookFailure()
			slog.Warn("Post-generation hook failed", "content_id", res.ContentID, "error", err)
			res.Warnings = append(res.Warnings, err.Error())
		}
	}

	return res
}

func (p *Pipeline) runHook(ctx context.Context, h Hook, res *Result) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return h(ctx, res)
}

// RunChannel runs the sequential pipeline for one channel.
func (p *Pipeline) RunChannel(ctx context.Context, channelID string, req Request) ChannelResult {
	start := time.Now()
	out := ChannelResult{Channel: channelID}

	ch, err := p.catalog.Channel(channelID)
	built := ""
	if err == nil {
		built = p.prompts.Build(channelID, req.Source, req.Options)
	}
	if built == "" {
		return p.fail(out, fmt.Errorf("%w: %s", ErrUnknownChannel, channelID))
	}

	maxTokens := ch.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	gen, err := p.llm.Complete(ctx, llm.Request{
		Prompt:    built,
		MaxTokens: maxTokens,
		Step:      "generate:" + channelID,
	})
	if err != nil {
		return p.fail(out, err)
	}

	carousel := req.Options.Carousel
	text := p.sanitizer(ch).Sanitize(gen.Text)
	if text == "" {
		return p.fail(out, fmt.Errorf("empty response for %s", channelID))
	}
	p.finish(&out, ch, carousel, text)

	if req.Review {
		out.Issues = p.reviewer.Review(ctx, text, channelID, req.Source, req.Options.ConfirmedFields)
	}

	if req.AutoFix && len(out.Issues) > 0 {
		fixed, err := p.reviewer.AutoFix(ctx, text, channelID, out.Issues, req.Options.ConfirmedFields)
		if err != nil {
			slog.Warn("Auto-fix failed, kept deterministic repair", "channel", channelID, "error", err)
			out.Warnings = append(out.Warnings, err.Error())
		}
		if fixed != text {
			out.Fixed = true
			p.finish(&out, ch, carousel, fixed)
		}
		out.Remaining = p.reviewer.Check(out.Text, req.Options.ConfirmedFields)
	}

	status := StatusOK
	if out.Fixed {
		status = StatusFixed
	}
	metrics.RecordChannelRun(channelID, status)
	slog.Debug("channel generated", "channel", channelID, "chars", out.CharCount,
		"range", out.RangeStatus, "issues", len(out.Issues), "duration", time.Since(start))

	return out
}

// finish parses text and fills the derived fields of out.
func (p *Pipeline) finish(out *ChannelResult, ch *catalog.Channel, carousel bool, text string) {
	parsed := parser.Parse(parser.Key(ch.ID, carousel), text)
	env := parser.Wrap(ch.ID, parsed)

	out.Text = text
	out.Parsed = &env
	out.CharCount = parsed.Count()
	out.Range = ch.Range
	out.RangeStatus = ch.Range.Check(parsed.Count())
	out.HTML = ""

	if ch.Shape != catalog.ShapeHTML {
		return
	}
	html, err := p.render(parsed)
	if err != nil {
		slog.Warn("Failed to render channel html", "channel", ch.ID, "error", err)
		out.Warnings = append(out.Warnings, err.Error())
		return
	}
	out.HTML = html
}

func (p *Pipeline) render(c parser.Content) (string, error) {
	switch v := c.(type) {
	case *parser.NewsletterContent:
		return p.renderer.Page(v.Title, v.Preheader, v.Body)
	case *parser.PressReleaseContent:
		return p.renderer.Page(v.Title, v.Subtitle, v.Body)
	default:
		return p.renderer.HTML(c.MainText())
	}
}

func (p *Pipeline) sanitizer(ch *catalog.Channel) *sanitizer.Sanitizer {
	opts := []sanitizer.Option{sanitizer.WithLabels(p.catalog.ChannelLabels()...)}
	if ch.Divider {
		opts = append(opts, sanitizer.WithDividers())
	}
	return sanitizer.New(opts...)
}

func (p *Pipeline) fail(out ChannelResult, err error) ChannelResult {
	slog.Warn("Channel generation failed", "channel", out.Channel, "error", err)
	metrics.RecordChannelRun(out.Channel, StatusFailed)

	out.Text = llm.ErrorMarker(err)
	out.Error = err.Error()
	out.Err = err
	return out
}
