// Package review checks generated content against the source and confirmed
// facts, and repairs flagged content.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/llm"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/metrics"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/prompt"
	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/sanitizer"
)

const (
	reviewMaxTokens  = 2048
	autoFixMaxTokens = 4096
	maxArrayProbes   = 32
)

// Catalog is what the reviewer needs beyond the prompt builder.
type Catalog interface {
	prompt.Catalog
	ChannelLabels() []string
}

type Reviewer struct {
	llm     llm.Completer
	prompts *prompt.Builder
	catalog Catalog
}

func NewReviewer(completer llm.Completer, prompts *prompt.Builder, c Catalog) *Reviewer {
	return &Reviewer{
		llm:     completer,
		prompts: prompts,
		catalog: c,
	}
}

// Review returns the issues found in content, sorted by severity. It never
// fails: a model or parse failure becomes a yellow review_failed issue
// next to the deterministic findings.
func (r *Reviewer) Review(ctx context.Context, content, channelID string, src prompt.Source, confirmed map[string]string) []Issue {
	issues := r.Check(content, confirmed)

	res, err := r.llm.Complete(ctx, llm.Request{
		Prompt:    r.prompts.BuildReview(content, channelID, src, confirmed),
		MaxTokens: reviewMaxTokens,
		Step:      "review:" + channelID,
	})
	if err != nil {
		slog.Warn("Review call failed", "channel", channelID, "error", err)
		issues = append(issues, FailedIssue(err.Error()))
	} else if modelIssues, err := ParseIssues(res.Text); err != nil {
		slog.Warn("Review response unreadable", "channel", channelID, "error", err)
		issues = append(issues, FailedIssue(err.Error()))
	} else {
		issues = merge(issues, modelIssues)
	}

	SortIssues(issues)
	for _, i := range issues {
		metrics.RecordReviewIssue(i.Severity, i.Category)
	}
	return issues
}

// Check runs only the deterministic fact and forbidden-term checks.
func (r *Reviewer) Check(content string, confirmed map[string]string) []Issue {
	issues := CheckFacts(content, confirmed, r.catalog.FieldLabel)
	issues = append(issues, CheckForbidden(content, r.catalog.Forbidden())...)
	SortIssues(issues)
	return issues
}

// FailedIssue is the placeholder returned when no review could be read.
func FailedIssue(reason string) Issue {
	return Issue{
		Severity: SeverityYellow,
		Category: CategoryReviewFailed,
		Message:  "자동 검수 결과를 확인하지 못했습니다. 직접 검토해 주세요. (" + reason + ")",
	}
}

// ParseIssues reads the first well-formed JSON array of issues in text.
// Prose or code fences around the array are ignored.
func ParseIssues(text string) ([]Issue, error) {
	probes := 0
	for i := strings.IndexByte(text, '['); i >= 0 && probes < maxArrayProbes; probes++ {
		var raw []Issue
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		if err := dec.Decode(&raw); err == nil {
			return normalize(raw), nil
		}

		next := strings.IndexByte(text[i+1:], '[')
		if next < 0 {
			break
		}
		i += next + 1
	}
	return nil, fmt.Errorf("no issue array in review response")
}

func normalize(raw []Issue) []Issue {
	issues := make([]Issue, 0, len(raw))
	for _, i := range raw {
		i.Severity = strings.ToLower(strings.TrimSpace(i.Severity))
		if _, ok := severityRank[i.Severity]; !ok {
			i.Severity = SeverityYellow
		}
		i.Category = strings.ToLower(strings.TrimSpace(i.Category))
		if i.Category == "" {
			i.Category = CategoryGeneral
		}
		i.Message = strings.TrimSpace(i.Message)
		if i.Message == "" && i.Quote == "" {
			continue
		}
		issues = append(issues, i)
	}
	return issues
}

// merge appends model issues that do not repeat a deterministic finding.
func merge(base, extra []Issue) []Issue {
	seen := make(map[string]struct{}, len(base))
	for _, i := range base {
		seen[i.Category+"\x00"+i.Quote] = struct{}{}
	}
	for _, i := range extra {
		key := i.Category + "\x00" + i.Quote
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		base = append(base, i)
	}
	return base
}

// AutoFix rewrites content so the flagged issues are resolved. Confirmed
// facts that are still missing afterwards are appended verbatim, and
// forbidden terms are replaced deterministically. With no issues the
// content is returned unchanged and the model is not called.
//
// A model failure still yields the deterministic repair of the original
// content together with the error.
func (r *Reviewer) AutoFix(ctx context.Context, content, channelID string, issues []Issue, confirmed map[string]string) (string, error) {
	if len(issues) == 0 {
		return content, nil
	}

	fixes := make([]prompt.Fix, 0, len(issues))
	for _, i := range issues {
		fixes = append(fixes, prompt.Fix{Severity: i.Severity, Category: i.Category, Message: i.Message, Quote: i.Quote})
	}

	maxTokens := autoFixMaxTokens
	divider := false
	if ch, err := r.catalog.Channel(channelID); err == nil {
		divider = ch.Divider
		if ch.MaxTokens > maxTokens {
			maxTokens = ch.MaxTokens
		}
	}

	text := content
	res, err := r.llm.Complete(ctx, llm.Request{
		Prompt:    r.prompts.BuildAutoFix(content, channelID, fixes, confirmed),
		MaxTokens: maxTokens,
		Step:      "autofix:" + channelID,
	})
	if err != nil {
		err = fmt.Errorf("failed to auto-fix %s: %w", channelID, err)
	} else if fixed := strings.TrimSpace(res.Text); fixed != "" {
		text = r.sanitizer(divider).Sanitize(fixed)
	}

	text = ReplaceForbidden(text, r.catalog.Forbidden())
	text = RestoreFacts(text, confirmed, r.catalog.FieldLabel)
	return text, err
}

func (r *Reviewer) sanitizer(divider bool) *sanitizer.Sanitizer {
	opts := []sanitizer.Option{sanitizer.WithLabels(r.catalog.ChannelLabels()...)}
	if divider {
		opts = append(opts, sanitizer.WithDividers())
	}
	return sanitizer.New(opts...)
}
