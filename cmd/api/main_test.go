package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"transcript-cleaner-go/internal/config"
	"transcript-cleaner-go/internal/logger"
)

type testEnv struct {
	srv    *httptest.Server
	outDir string
}

func newTestServer(t *testing.T, useMockTranscribe bool, inputDir string) testEnv {
	t.Helper()
	outDir := t.TempDir()
	t.Setenv("USE_MOCK_LLM", "true")
	t.Setenv("TRANSCRIBE_URL", "")
	t.Setenv("OUTPUT_DIR", outDir)
	t.Setenv("INPUT_DIR", inputDir)
	if useMockTranscribe {
		t.Setenv("USE_MOCK_TRANSCRIBE", "true")
	} else {
		t.Setenv("USE_MOCK_TRANSCRIBE", "false")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	proc, err := newProcessor(context.Background(), cfg, logger.Discard())
	if err != nil {
		t.Fatalf("newProcessor() error = %v", err)
	}
	srv := httptest.NewServer(newMux(proc, logger.Discard()))
	t.Cleanup(srv.Close)
	return testEnv{srv: srv, outDir: outDir}
}

func postClean(t *testing.T, url, body string) (int, string) {
	t.Helper()
	resp, err := http.Post(url+"/clean", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, string(data)
}

func sourceJSON(t *testing.T, source string) string {
	t.Helper()
	data, err := json.Marshal(map[string]string{"source": source})
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestHealthz(t *testing.T) {
	env := newTestServer(t, true, "")
	resp, err := http.Get(env.srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCleanEndpoint(t *testing.T) {
	env := newTestServer(t, true, "")

	status, raw := postClean(t, env.srv.URL, `{"source":"abc123","speaker_info":"two hosts"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", status, raw)
	}

	var body struct {
		Location  string `json:"location"`
		Chunks    int    `json:"chunks"`
		TotalCost string `json:"total_cost"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Chunks == 0 || body.TotalCost != "0" {
		t.Errorf("body = %+v", body)
	}
	if want := filepath.Join(env.outDir, "abc123_cleaned_transcript.txt"); body.Location != want {
		t.Errorf("location = %q, want %q", body.Location, want)
	}
	if _, err := os.Stat(body.Location); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestCleanEndpointRejectsServerPaths(t *testing.T) {
	victim := t.TempDir()
	secret := filepath.Join(victim, "secret.env")
	if err := os.WriteFile(secret, []byte("DB_PASSWORD=hunter2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := newTestServer(t, true, "")

	sources := []string{
		secret,
		filepath.Join(victim, "sub", "..", "planted"),
		"../secret.env",
		"sub/../planted",
	}
	for _, source := range sources {
		t.Run(source, func(t *testing.T) {
			status, body := postClean(t, env.srv.URL, sourceJSON(t, source))
			if status != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422 (%s)", status, body)
			}
			if strings.Contains(body, "hunter2") {
				t.Errorf("response leaks file content: %s", body)
			}
		})
	}

	entries, _ := os.ReadDir(victim)
	if len(entries) != 1 {
		t.Errorf("victim dir has %d entries, want only the original file", len(entries))
	}
	outputs, _ := os.ReadDir(env.outDir)
	if len(outputs) != 0 {
		t.Errorf("output dir has %d entries, want none", len(outputs))
	}
}

func TestCleanEndpointInputDir(t *testing.T) {
	base := t.TempDir()
	inputDir := filepath.Join(base, "in")
	if err := os.Mkdir(inputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inputDir, "ep1.txt"), []byte("hello from episode one"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "secret.env"), []byte("DB_PASSWORD=hunter2"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := newTestServer(t, false, inputDir)

	status, body := postClean(t, env.srv.URL, `{"source":"ep1.txt"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", status, body)
	}
	if !strings.Contains(body, "hello from episode one") {
		t.Errorf("cleaned text missing: %s", body)
	}
	if _, err := os.Stat(filepath.Join(env.outDir, "ep1_cleaned_transcript.txt")); err != nil {
		t.Errorf("output not in OUTPUT_DIR: %v", err)
	}

	status, body = postClean(t, env.srv.URL, `{"source":"../secret.env"}`)
	if status != http.StatusUnprocessableEntity || strings.Contains(body, "hunter2") {
		t.Errorf("escape from INPUT_DIR: status = %d body = %s", status, body)
	}
}

func TestCheckServeConfig(t *testing.T) {
	notDir := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(notDir, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     config.Config
		wantErr bool
	}{
		{"output dir required", config.Config{}, true},
		{"output dir only", config.Config{OutputDir: t.TempDir()}, false},
		{"input dir missing", config.Config{OutputDir: "out", InputDir: filepath.Join(notDir, "x")}, true},
		{"input dir is a file", config.Config{OutputDir: "out", InputDir: notDir}, true},
		{"both dirs", config.Config{OutputDir: "out", InputDir: t.TempDir()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkServeConfig(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkServeConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCleanEndpointErrors(t *testing.T) {
	env := newTestServer(t, false, "")

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, "{", http.StatusBadRequest},
		{"missing source", http.MethodPost, `{"speaker_info":"x"}`, http.StatusBadRequest},
		{"unresolvable source", http.MethodPost, `{"source":"no-such-video"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, env.srv.URL+"/clean", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
