package cleaner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"transcript-cleaner-go/internal/logger"
)

// GatewayModel talks to an OpenAI-compatible chat completions gateway over
// plain HTTP. Gateways that report usage.cost are billed with that figure.
type GatewayModel struct {
	url     string
	apiKey  string
	model   string
	timeout time.Duration
	client  *http.Client
	log     *logger.Logger
}

func NewGatewayModel(url, apiKey, model string, timeout time.Duration, log *logger.Logger) *GatewayModel {
	return &GatewayModel{
		url:     url,
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		log:     log.With("component", "llm-gateway"),
	}
}

type gatewayResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int          `json:"prompt_tokens"`
		CompletionTokens int          `json:"completion_tokens"`
		Cost             *json.Number `json:"cost"`
	} `json:"usage"`
}

func (g *GatewayModel) Complete(ctx context.Context, prompt string) (Completion, error) {
	reqBody := map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.0,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return Completion{}, backoff.Permanent(fmt.Errorf("encode request: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(data))
	if err != nil {
		return Completion{}, backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.WithError(err).Warn("llm request failed")
		return Completion{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		g.log.WithError(err).WithField("http_status", resp.StatusCode).Warn("llm response truncated")
		return Completion{}, fmt.Errorf("read llm response: %w", err)
	}
	g.log.WithField("http_status", resp.StatusCode).Debug("llm raw:\n" + string(body))

	if resp.StatusCode >= 400 {
		err := fmt.Errorf("llm gateway status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		// Permanent: don't retry on client errors, except rate limiting
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return Completion{}, backoff.Permanent(err)
		}
		return Completion{}, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var parsed gatewayResponse
	if err := dec.Decode(&parsed); err != nil {
		return Completion{}, fmt.Errorf("decode llm response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Completion{}, fmt.Errorf("no choices in llm response")
	}

	out := Completion{
		Text:             parsed.Choices[0].Message.Content,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}
	if parsed.Usage.Cost != nil {
		cost, err := decimal.NewFromString(parsed.Usage.Cost.String())
		if err != nil {
			return Completion{}, fmt.Errorf("parse usage.cost: %w", err)
		}
		out.Cost = &cost
	}
	return out, nil
}
