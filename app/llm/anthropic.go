package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/usage"
)

// AnthropicProvider calls the Messages API. SDK retries are disabled; the
// Client owns the retry policy.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
	apiKey string
}

func NewAnthropicProvider(apiKey, model, baseURL string, httpClient *http.Client) *AnthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &AnthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  model,
		apiKey: apiKey,
	}
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) Check() error {
	if p.apiKey == "" {
		return &ConfigError{Field: "api key"}
	}
	if p.model == "" {
		return &ConfigError{Field: "model"}
	}
	return nil
}

func (p *AnthropicProvider) Send(ctx context.Context, req Request) (Result, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return Result{}, anthropicAPIError(apiErr)
		}
		return Result{}, fmt.Errorf("failed to call anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return Result{
		Text: sb.String(),
		Usage: usage.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}, nil
}

var anthropicErrorTypes = []string{
	"overloaded_error",
	"rate_limit_error",
	"authentication_error",
	"permission_error",
	"invalid_request_error",
	"not_found_error",
	"api_error",
}

// anthropicAPIError reads the error object from the response body and falls
// back to the status text when the body is not the documented shape.
func anthropicAPIError(apiErr *anthropic.Error) *APIError {
	out := &APIError{Status: apiErr.StatusCode}

	var body anthropic.ErrorResponse
	if raw := apiErr.RawJSON(); raw != "" && json.Unmarshal([]byte(raw), &body) == nil {
		out.Type = body.Error.Type
		out.Message = body.Error.Message
	}
	if out.Type == "" {
		out.Type = anthropicErrorType(apiErr.RawJSON())
	}
	if out.Message == "" {
		out.Message = http.StatusText(apiErr.StatusCode)
	}
	return out
}

func anthropicErrorType(msg string) string {
	for _, t := range anthropicErrorTypes {
		if strings.Contains(msg, t) {
			return t
		}
	}
	return ""
}
