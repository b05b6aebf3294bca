package recommendation

import (
	"context"
	"strings"

	httpclient "partner-insights/internal/common/http"
)

const gatewayGeneratePath = "/api/ai/generate"

type GatewayConfig struct {
	BaseURL     string
	APIKey      string
	MaxTokens   int
	Temperature float64
}

// GatewayGenerator posts prompts to an internal GenAI gateway.
type GatewayGenerator struct {
	config GatewayConfig
	client *httpclient.Client
}

func NewGatewayGenerator(cfg GatewayConfig, client *httpclient.Client) *GatewayGenerator {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.APIKey != "" {
		client.WithHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &GatewayGenerator{config: cfg, client: client}
}

type gatewayRequest struct {
	Prompt         string  `json:"prompt"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float64 `json:"temperature"`
	ResponseFormat string  `json:"response_format"`
}

type gatewayResponse struct {
	Text string `json:"text"`
}

func (g *GatewayGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	var out gatewayResponse
	err := g.client.PostJSON(ctx, g.config.BaseURL+gatewayGeneratePath, gatewayRequest{
		Prompt:         prompt,
		MaxTokens:      g.config.MaxTokens,
		Temperature:    g.config.Temperature,
		ResponseFormat: "json",
	}, &out)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", ErrEmptyReply
	}
	return out.Text, nil
}
