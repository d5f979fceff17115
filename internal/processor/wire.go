package processor

import (
	"context"
	"fmt"

	"transcript-cleaner-go/internal/chunker"
	"transcript-cleaner-go/internal/cleaner"
	"transcript-cleaner-go/internal/config"
	"transcript-cleaner-go/internal/logger"
	"transcript-cleaner-go/internal/sink"
	"transcript-cleaner-go/internal/transcription"
)

// NewFromConfig builds a Processor with the resolver, chunker, cleaning
// backend and file sink described by cfg.
func NewFromConfig(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...Option) (*Processor, error) {
	ch, err := chunker.New(chunker.Config{
		MaxChunkSize: cfg.Chunking.MaxChunkSize,
		Overlap:      cfg.Chunking.Overlap,
		Separators:   chunker.DefaultSeparators,
	})
	if err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}
	inv, err := cleaner.NewFromConfig(ctx, cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("cleaner: %w", err)
	}
	resolver := transcription.NewResolver(cfg.Transcribe, log)
	out := sink.FileSink{Dir: cfg.OutputDir, Log: log}

	log.WithField("provider", cfg.LLM.Provider).
		WithField("model", cfg.LLM.Model).
		WithField("mock_llm", cfg.LLM.UseMock).
		WithField("chunk_size", cfg.Chunking.MaxChunkSize).
		WithField("overlap", cfg.Chunking.Overlap).
		Info("processor configured")

	return New(resolver, ch, inv, out, append([]Option{WithLogger(log)}, opts...)...), nil
}
