package recommendation

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-3-flash-preview"

type GeminiConfig struct {
	APIKey      string
	Model       string
	BaseURL     string // overrides the API endpoint, mainly for tests
	MaxTokens   int
	Temperature float64
}

// GeminiGenerator calls the Gemini API through the genai SDK and asks for a
// JSON response body.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	genCfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if cfg.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(cfg.MaxTokens)
	}
	if cfg.Temperature > 0 {
		genCfg.Temperature = genai.Ptr(float32(cfg.Temperature))
	}

	return &GeminiGenerator{
		client: client,
		model:  cfg.Model,
		config: genCfg,
	}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
