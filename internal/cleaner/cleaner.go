package cleaner

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"transcript-cleaner-go/internal/logger"
	"transcript-cleaner-go/internal/types"
)

// Invoker cleans one chunk. Each call is exactly one billable model request.
type Invoker interface {
	Clean(ctx context.Context, chunkText, speakerInfo, carryOver string) (types.CleaningResult, error)
}

// Model is the remote completion capability behind an Invoker.
type Model interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// Completion is the raw answer of a Model. Cost is set when the service
// reports the monetary cost itself; otherwise tokens are priced locally.
type Completion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	Cost             *decimal.Decimal
}

type invoker struct {
	model     Model
	modelName string
	pricing   Pricing
	log       *logger.Logger
}

func New(model Model, modelName string, pricing Pricing, log *logger.Logger) Invoker {
	if pricing == nil {
		pricing = DefaultPricing()
	}
	return &invoker{
		model:     model,
		modelName: modelName,
		pricing:   pricing,
		log:       log.With("component", "cleaner"),
	}
}

func (i *invoker) Clean(ctx context.Context, chunkText, speakerInfo, carryOver string) (types.CleaningResult, error) {
	prompt := BuildPrompt(speakerInfo, carryOver, chunkText)

	comp, err := i.model.Complete(ctx, prompt)
	if err != nil {
		return types.CleaningResult{}, err
	}

	cost, err := i.cost(comp)
	if err != nil {
		return types.CleaningResult{}, err
	}

	i.log.WithFields(map[string]interface{}{
		"prompt_tokens":     comp.PromptTokens,
		"completion_tokens": comp.CompletionTokens,
		"cost":              cost.String(),
	}).Debug("cleaning call finished")

	return types.CleaningResult{Text: strings.TrimSpace(comp.Text), Cost: cost}, nil
}

func (i *invoker) cost(comp Completion) (decimal.Decimal, error) {
	if comp.Cost != nil {
		if comp.Cost.IsNegative() {
			return decimal.Zero, fmt.Errorf("service reported negative cost %s", comp.Cost)
		}
		return *comp.Cost, nil
	}
	cost, ok := i.pricing.Cost(i.modelName, comp.PromptTokens, comp.CompletionTokens)
	if !ok && comp.PromptTokens+comp.CompletionTokens > 0 {
		i.log.WithField("model", i.modelName).Warn("no price known for model, counting zero cost")
	}
	return cost, nil
}
