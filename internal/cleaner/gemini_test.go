package cleaner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
)

func newGeminiServer(t *testing.T, status int, body string) *GeminiModel {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-2.5-flash:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	m, err := NewGeminiModel(context.Background(), "g-key", srv.URL, "gemini-2.5-flash", 5*time.Second)
	if err != nil {
		t.Fatalf("NewGeminiModel() error = %v", err)
	}
	return m
}

func TestGeminiModelComplete(t *testing.T) {
	m := newGeminiServer(t, http.StatusOK, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Fred: "},{"text":"Welcome."}]}}],
		"usageMetadata":{"promptTokenCount":40,"candidatesTokenCount":6,"totalTokenCount":46}}`)

	comp, err := m.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if comp.Text != "Fred: Welcome." || comp.PromptTokens != 40 || comp.CompletionTokens != 6 {
		t.Errorf("Complete() = %+v", comp)
	}
}

func TestGeminiModelErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantPermanent bool
	}{
		{"bad request", http.StatusBadRequest, true},
		{"forbidden", http.StatusForbidden, true},
		{"rate limited", http.StatusTooManyRequests, false},
		{"server error", http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`{"error":{"code":%d,"message":"nope","status":"ERR"}}`, tt.status)
			m := newGeminiServer(t, tt.status, body)

			_, err := m.Complete(context.Background(), "prompt")
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
