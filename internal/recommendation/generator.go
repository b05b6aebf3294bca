package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"partner-insights/internal/common/config"
	httpclient "partner-insights/internal/common/http"
)

var (
	ErrMissingAPIKey   = errors.New("GENAI_API_KEY_MISSING")
	ErrEmptyReply      = errors.New("GENAI_EMPTY_REPLY")
	ErrUnknownProvider = errors.New("GENAI_UNKNOWN_PROVIDER")
)

// Generator turns a prompt into raw reply text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// unavailableGenerator fails every call with err. It stands in when the
// configured provider cannot be built.
type unavailableGenerator struct {
	err error
}

func (g unavailableGenerator) Generate(context.Context, string) (string, error) {
	return "", g.err
}

// NewGenerator builds the generator selected by cfg.Provider. A construction
// failure is returned together with a generator that reports it on every call.
func NewGenerator(ctx context.Context, cfg config.GenAIConfig) (Generator, error) {
	switch cfg.Provider {
	case "", config.ProviderGemini:
		gen, err := NewGeminiGenerator(ctx, GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return unavailableGenerator{err: err}, err
		}
		return gen, nil
	case config.ProviderGateway:
		return NewGatewayGenerator(GatewayConfig{
			BaseURL:     cfg.BaseURL,
			APIKey:      cfg.APIKey,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		}, httpclient.NewClient(time.Duration(cfg.Timeout)*time.Millisecond)), nil
	}
	err := fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	return unavailableGenerator{err: err}, err
}
