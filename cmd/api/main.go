package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"transcript-cleaner-go/internal/config"
	"transcript-cleaner-go/internal/logger"
	"transcript-cleaner-go/internal/processor"
	"transcript-cleaner-go/internal/transcription"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "transcript-cleaner-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc, err := newProcessor(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build processor")
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     newMux(proc, log),
		ReadTimeout: 15 * time.Second,
		// a long transcript is many sequential model calls
		WriteTimeout: 30 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}()

	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server terminated")
	}
	log.Info("server stopped")
}

// newProcessor builds the processor for untrusted callers: outputs always go
// flat into OUTPUT_DIR and files are only read from INPUT_DIR.
func newProcessor(ctx context.Context, cfg *config.Config, log *logger.Logger) (*processor.Processor, error) {
	if err := checkServeConfig(cfg); err != nil {
		return nil, err
	}
	resolver := transcription.NewResolver(cfg.Transcribe, log).Restrict(cfg.InputDir)
	return processor.NewFromConfig(ctx, cfg, log, processor.WithResolver(resolver))
}

func checkServeConfig(cfg *config.Config) error {
	if cfg.OutputDir == "" {
		return errors.New("OUTPUT_DIR is required to serve the API")
	}
	if cfg.InputDir != "" {
		fi, err := os.Stat(cfg.InputDir)
		if err != nil {
			return fmt.Errorf("INPUT_DIR: %w", err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("INPUT_DIR %s is not a directory", cfg.InputDir)
		}
	}
	return nil
}

func newMux(proc *processor.Processor, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	// health
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		log.WithRequest(r).Debug("health check")
		fmt.Fprint(w, "ok")
	})

	// clean endpoint
	mux.HandleFunc("/clean", func(w http.ResponseWriter, r *http.Request) {
		reqLog := log.WithRequest(r).WithField("handler", "clean")
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req processor.Request
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
			reqLog.WithError(err).Warn("bad request body")
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if req.Source == "" {
			reqLog.Warn("missing source")
			http.Error(w, "missing source", http.StatusBadRequest)
			return
		}
		reqLog = reqLog.WithField("source", req.Source)
		reqLog.Info("clean request received")

		res := proc.Clean(r.Context(), req)
		reqLog.WithField("duration_ms", res.DurationMs).
			WithField("total_cost", res.TotalCost.String()).
			WithField("kind", res.Kind()).
			Info("processor finished")

		writeJSON(w, statusFor(res), res, reqLog)
	})

	return mux
}

func statusFor(res processor.Result) int {
	switch res.Kind() {
	case "":
		return http.StatusOK
	case "source":
		return http.StatusUnprocessableEntity
	case "model":
		return http.StatusBadGateway
	case "aborted":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, log *logrus.Entry) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.WithError(err).Error("failed to write response")
	}
}
