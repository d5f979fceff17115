package cleaner

import (
	"context"
	"fmt"

	"transcript-cleaner-go/internal/config"
	"transcript-cleaner-go/internal/logger"
)

// NewModel picks the completion backend named by the configuration.
func NewModel(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) (Model, error) {
	if cfg.UseMock {
		log.Info("mock LLM mode ON - echoing transcript chunks")
		return EchoModel{}, nil
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIModel(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.Model, cfg.CallTimeout), nil
	case config.ProviderGemini:
		return NewGeminiModel(ctx, cfg.GeminiKey, cfg.GeminiBaseURL, cfg.Model, cfg.CallTimeout)
	case config.ProviderGateway:
		return NewGatewayModel(cfg.GatewayURL, cfg.GatewayKey, cfg.Model, cfg.CallTimeout, log), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// NewFromConfig wires the backend, pricing table and retry policy into an Invoker.
func NewFromConfig(ctx context.Context, cfg config.LLMConfig, log *logger.Logger) (Invoker, error) {
	model, err := NewModel(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	pricing, err := LoadPricing(cfg.PricingFile)
	if err != nil {
		return nil, err
	}
	inv := New(model, cfg.Model, pricing, log)
	if cfg.MaxRetries > 0 {
		inv = WithRetry(inv, RetryPolicy{MaxRetries: cfg.MaxRetries, MaxElapsedTime: cfg.MaxRetryTime}, log)
	}
	return inv, nil
}
