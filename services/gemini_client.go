package services

import (
	"context"
	"fmt"
	"time"

	"progreso/models"
	"progreso/utils"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// TextGenerator is the minimal interface the content generator needs from a
// text/JSON generation service. Jobs and tests inject fakes.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, wantJSON bool) (string, error)
}

const (
	defaultGeminiModel  = "gemini-2.5-flash"
	geminiCallTimeout   = 60 * time.Second
	geminiRetryAttempts = 2 // initial call + one retry
)

// disabledGenerator short-circuits every call when no credential is
// configured: a configuration error before any network or database effect.
type disabledGenerator struct{}

func (disabledGenerator) Generate(context.Context, string, bool) (string, error) {
	return "", models.ErrMissingAPIKey
}

// NewTextGenerator returns the real Gemini client, or a generator that
// always reports ErrMissingAPIKey when apiKey is empty, so the rest of the
// system keeps running without generation.
func NewTextGenerator(ctx context.Context, apiKey, model string, logger *zap.Logger) (TextGenerator, error) {
	if apiKey == "" {
		logger.Warn("generation_disabled_no_api_key")
		return disabledGenerator{}, nil
	}
	return NewGeminiClient(ctx, apiKey, model, logger)
}

// GeminiClient implements TextGenerator over the Google GenAI API.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiClient fails fast with ErrMissingAPIKey before any network
// attempt when no credential is configured.
func NewGeminiClient(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, models.ErrMissingAPIKey
	}
	if model == "" {
		model = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{client: client, model: model, logger: logger}, nil
}

// Generate runs one prompt with a bounded timeout and a single retry on
// failure. When wantJSON is set the API is asked for a JSON MIME type, but
// callers still treat the output as untrusted text.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, wantJSON bool) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if wantJSON {
		cfg.ResponseMIMEType = "application/json"
	}

	kind := "text"
	if wantJSON {
		kind = "json"
	}

	var lastErr error
	for attempt := 1; attempt <= geminiRetryAttempts; attempt++ {
		start := time.Now()
		callCtx, cancel := context.WithTimeout(ctx, geminiCallTimeout)
		result, err := g.client.Models.GenerateContent(callCtx, g.model, genai.Text(prompt), cfg)
		cancel()
		utils.AIRequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

		if err != nil {
			lastErr = err
			g.logger.Warn("gemini_call_failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		text := result.Text()
		if text == "" {
			lastErr = fmt.Errorf("empty response")
			continue
		}
		return text, nil
	}

	return "", fmt.Errorf("%w: %v", models.ErrGeneration, lastErr)
}
