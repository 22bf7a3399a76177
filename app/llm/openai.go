package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/66mmakid99/britzmedi-contents-ops-sub000/app/usage"
)

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client openai.Client
	model  string
	apiKey string
}

func NewOpenAIProvider(apiKey, model, baseURL string, httpClient *http.Client) *OpenAIProvider {
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

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
		apiKey: apiKey,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Check() error {
	if p.apiKey == "" {
		return &ConfigError{Field: "api key"}
	}
	if p.model == "" {
		return &ConfigError{Field: "model"}
	}
	return nil
}

func (p *OpenAIProvider) Send(ctx context.Context, req Request) (Result, error) {
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		MaxCompletionTokens: openai.Int(int64(req.MaxTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return Result{}, &APIError{
				Status:  apiErr.StatusCode,
				Type:    apiErr.Type,
				Message: apiErr.Message,
			}
		}
		return Result{}, fmt.Errorf("failed to call openai: %w", err)
	}

	if len(resp.Choices) == 0 {
		return Result{}, &APIError{Status: http.StatusOK, Message: "empty choices"}
	}

	return Result{
		Text: resp.Choices[0].Message.Content,
		Usage: usage.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}
