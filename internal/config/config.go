package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderGateway = "gateway"
)

type Config struct {
	LLM        LLMConfig
	Transcribe TranscribeConfig
	Chunking   ChunkingConfig
	OutputDir  string
	// InputDir is the only directory the HTTP API may read transcript files from.
	InputDir   string
	Port       string
}

type LLMConfig struct {
	Provider      string
	Model         string
	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string
	GeminiBaseURL string
	GatewayURL    string
	GatewayKey    string
	UseMock       bool
	CallTimeout   time.Duration
	MaxRetries    int
	MaxRetryTime  time.Duration
	PricingFile   string
}

type TranscribeConfig struct {
	URL     string
	UseMock bool
}

type ChunkingConfig struct {
	MaxChunkSize int
	Overlap      int
}

// Load reads the configuration from the process environment. Call
// godotenv.Load first if a .env file should be honoured.
func Load() (*Config, error) {
	cfg := &Config{
		LLM: LLMConfig{
			Provider:      strings.ToLower(envOr("LLM_PROVIDER", ProviderOpenAI)),
			Model:         envOr("LLM_MODEL", "gpt-4"),
			OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
			GeminiKey:     os.Getenv("GEMINI_API_KEY"),
			GeminiBaseURL: os.Getenv("GEMINI_BASE_URL"),
			GatewayURL:    os.Getenv("LLM_GATEWAY_URL"),
			GatewayKey:    os.Getenv("LLM_API_KEY"),
			UseMock:       os.Getenv("USE_MOCK_LLM") == "true",
			PricingFile:   os.Getenv("PRICING_FILE"),
		},
		Transcribe: TranscribeConfig{
			URL:     os.Getenv("TRANSCRIBE_URL"),
			UseMock: os.Getenv("USE_MOCK_TRANSCRIBE") == "true",
		},
		OutputDir: os.Getenv("OUTPUT_DIR"),
		InputDir:  os.Getenv("INPUT_DIR"),
		Port:      envOr("PORT", "8080"),
	}

	var err error
	if cfg.Chunking.MaxChunkSize, err = envInt("CHUNK_SIZE", 3950); err != nil {
		return nil, err
	}
	if cfg.Chunking.Overlap, err = envInt("CHUNK_OVERLAP", 100); err != nil {
		return nil, err
	}
	if cfg.LLM.MaxRetries, err = envInt("LLM_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.LLM.CallTimeout, err = envDuration("LLM_CALL_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.LLM.MaxRetryTime, err = envDuration("LLM_MAX_RETRY_TIME", 5*time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Chunking.MaxChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive")
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.MaxChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("LLM_MAX_RETRIES must not be negative")
	}
	if c.LLM.CallTimeout <= 0 {
		return fmt.Errorf("LLM_CALL_TIMEOUT must be positive")
	}
	if c.LLM.UseMock {
		return nil
	}

	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider %s", c.LLM.Provider)
		}
	case ProviderGemini:
		if c.LLM.GeminiKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %s", c.LLM.Provider)
		}
	case ProviderGateway:
		if c.LLM.GatewayURL == "" || c.LLM.GatewayKey == "" {
			return fmt.Errorf("llm gateway not configured")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}

func envDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}
