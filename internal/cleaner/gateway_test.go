package cleaner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"transcript-cleaner-go/internal/logger"
)

func TestGatewayModelComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var body struct {
			Model    string              `json:"model"`
			Messages []map[string]string `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body.Model != "gpt-4" || len(body.Messages) != 1 || body.Messages[0]["content"] != "the prompt" {
			t.Errorf("unexpected request %+v", body)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"Fred: Hi."}}],"usage":{"prompt_tokens":12,"completion_tokens":3,"cost":0.0123}}`))
	}))
	defer srv.Close()

	m := NewGatewayModel(srv.URL, "secret", "gpt-4", 5*time.Second, logger.Discard())
	comp, err := m.Complete(context.Background(), "the prompt")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if comp.Text != "Fred: Hi." || comp.PromptTokens != 12 || comp.CompletionTokens != 3 {
		t.Errorf("Complete() = %+v", comp)
	}
	if comp.Cost == nil || !comp.Cost.Equal(decimal.RequireFromString("0.0123")) {
		t.Errorf("Cost = %v, want 0.0123", comp.Cost)
	}
}

func TestGatewayModelWithoutCost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}],"usage":{"prompt_tokens":1000,"completion_tokens":0}}`))
	}))
	defer srv.Close()

	comp, err := NewGatewayModel(srv.URL, "k", "gpt-4", time.Second, logger.Discard()).Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if comp.Cost != nil {
		t.Errorf("Cost = %v, want nil so tokens get priced", comp.Cost)
	}
}

func TestGatewayModelErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantPermanent bool
	}{
		{"bad request", http.StatusBadRequest, `{"error":"bad"}`, true},
		{"rate limited", http.StatusTooManyRequests, `{"error":"slow down"}`, false},
		{"server error", http.StatusBadGateway, `upstream`, false},
		{"no choices", http.StatusOK, `{"choices":[]}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewGatewayModel(srv.URL, "k", "gpt-4", time.Second, logger.Discard()).Complete(context.Background(), "p")
			if err == nil {
				t.Fatal("Complete() should fail")
			}
			var perm *backoff.PermanentError
			if got := errors.As(err, &perm); got != tt.wantPermanent {
				t.Errorf("permanent = %v, want %v (%v)", got, tt.wantPermanent, err)
			}
		})
	}
}

func TestGatewayModelTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, buf, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		defer conn.Close()
		buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: application/json\r\nContent-Length: 200\r\n\r\n")
		buf.WriteString(`{"choices":[{"message":{"content":"cut`)
		buf.Flush()
	}))
	defer srv.Close()

	_, err := NewGatewayModel(srv.URL, "k", "gpt-4", time.Second, logger.Discard()).Complete(context.Background(), "p")
	if err == nil {
		t.Fatal("Complete() should fail on a truncated body")
	}
	if !strings.Contains(err.Error(), "read llm response") {
		t.Errorf("error = %v, want a read error", err)
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		t.Errorf("truncated body should be retryable, got permanent %v", err)
	}
}

func TestOpenAIModelComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Martha: Thanks."},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":1000,"completion_tokens":500,"total_tokens":1500}}`))
	}))
	defer srv.Close()

	m := NewOpenAIModel("sk-test", srv.URL+"/v1", "gpt-4", 5*time.Second)
	comp, err := m.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if comp.Text != "Martha: Thanks." || comp.PromptTokens != 1000 || comp.CompletionTokens != 500 {
		t.Errorf("Complete() = %+v", comp)
	}
}

func TestOpenAIModelClientErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIModel("sk-bad", srv.URL+"/v1", "gpt-4", time.Second).Complete(context.Background(), "prompt")
	var perm *backoff.PermanentError
	if !errors.As(err, &perm) {
		t.Errorf("error = %v, want permanent", err)
	}
}
