// Command relayd serves the relay chat API.
//
// It accepts platform messages over HTTP, relays them to an
// OpenAI-compatible chat endpoint, streams the reply back as
// Server-Sent Events, and executes model-requested functions
// (image generation) along the way.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lexia/relay"
	"github.com/lexia/relay/ingest/pdf"
	"github.com/lexia/relay/internal/config"
	"github.com/lexia/relay/observer"
	"github.com/lexia/relay/provider/openaicompat"
	"github.com/lexia/relay/tools/imagegen"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	// 1. Load config + logger
	cfg := config.Load(*configPath)
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Observability (optional)
	var inst *observer.Instruments
	if cfg.Otel.Enabled {
		var shutdown func(context.Context) error
		var err error
		inst, shutdown, err = observer.Init(ctx)
		if err != nil {
			logger.Error("observer init failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				logger.Error("observer shutdown failed", "error", err)
			}
		}()
	}

	// 3. Provider
	httpClient := &http.Client{Timeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second}
	var provider relay.Provider = openaicompat.New(cfg.LLM.BaseURL,
		openaicompat.WithHTTPClient(httpClient),
		openaicompat.WithLogger(logger),
	)

	// 4. Functions
	imageTool := imagegen.New(
		imagegen.WithModel(cfg.Image.Model),
		imagegen.WithLogger(logger),
	)
	registry := relay.NewRegistry()
	registry.Register(imageTool.Definition(), imageTool.Handler())
	var functions relay.FunctionDispatcher = registry

	if inst != nil {
		provider = observer.WrapProvider(provider, inst)
		functions = observer.WrapDispatcher(functions, inst)
	}

	// 5. Store + orchestrator
	store := relay.NewMemoryStore(relay.WithMaxHistory(cfg.Memory.MaxHistory))
	extractor := pdf.NewExtractor(pdf.WithLogger(logger))

	var processor relay.MessageProcessor = relay.NewOrchestrator(store, provider, functions,
		relay.WithLogger(logger),
		relay.WithPDFExtractor(extractor),
		relay.WithMaxTokens(cfg.LLM.MaxTokens),
		relay.WithTemperature(cfg.LLM.Temperature),
	)
	if inst != nil {
		processor = observer.WrapProcessor(processor, inst)
	}

	// 6. HTTP server
	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: newServer(processor, cfg.LLM.Model, logger),
		// SSE responses stay open for the length of a turn, so no
		// write deadline.
		ReadTimeout: time.Minute,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("relayd listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("stopped")
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
