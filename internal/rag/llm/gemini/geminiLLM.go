package gemini

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/metrics"
	"github.com/akolanti/DocQA/pkg/logger_i"
	"google.golang.org/genai"
)

type Client struct {
	client      *genai.Client
	modelName   string
	temperature float32
	logger      *logger_i.Logger
}

func NewGeminiClient(ctx context.Context, settings config.LLMSettings) (*Client, error) {
	logger := logger_i.NewLogger("llm_gemini")
	if settings.APIKey == "" {
		return nil, errors.New("gemini: GOOGLE_API_KEY is not set")
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: settings.APIKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
		return nil, err
	}
	logger.Debug("Gemini client created", "model", settings.Model)
	return &Client{client: c, modelName: settings.Model, temperature: settings.Temperature, logger: logger}, nil
}

func (c *Client) Complete(ctx context.Context, system string, user string) (string, error) {
	log := c.logger.WithTrace(ctx)

	contentConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if system != "" {
		contentConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	start := time.Now()
	result, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(user), contentConfig)
	metrics.CaptureExecutionMetrics("llm_generation", time.Since(start))
	if err != nil {
		log.Error("Gemini generation failed", "error", err)
		return "", err
	}
	if result == nil {
		return "", errors.New("gemini: empty response")
	}
	return result.Text(), nil
}
