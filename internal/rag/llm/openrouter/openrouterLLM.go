package openrouter

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/customHttpClient"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client is a chat completion client for OpenRouter or any other OpenAI compatible gateway.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
	logger      *logger_i.Logger
}

func NewOpenRouterClient(settings config.LLMSettings) (*Client, error) {
	if settings.APIKey == "" {
		return nil, errors.New("openrouter: OPENROUTER_API_KEY is not set")
	}
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = config.OpenRouterBaseURL
	}

	logger := logger_i.NewLogger("llm_openrouter")
	logger.Info("OpenRouter client created", "model", settings.Model)
	return &Client{
		client: openai.NewClient(
			option.WithAPIKey(settings.APIKey),
			option.WithBaseURL(baseURL),
			option.WithHTTPClient(customHttpClient.Client(0)),
		),
		model:       settings.Model,
		temperature: float64(settings.Temperature),
		logger:      logger,
	}, nil
}

func (c *Client) Complete(ctx context.Context, system string, user string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(user))

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Temperature: openai.Float(c.temperature),
	})
	metrics.CaptureExecutionMetrics("llm_generation", time.Since(start))
	if err != nil {
		c.logger.WithTrace(ctx).Error("OpenRouter completion failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openrouter: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
