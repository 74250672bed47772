package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"voice-assistant-backend/internal/config"
	"voice-assistant-backend/internal/intent"
	"voice-assistant-backend/internal/logger"
	"voice-assistant-backend/internal/metrics"
	"voice-assistant-backend/internal/server"
	"voice-assistant-backend/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("voice server: %v", err)
	}
}

func run() error {
	cfg := config.Load()
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()
	for _, w := range cfg.Warnings() {
		zl.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.StoreURL, zl)
	if err != nil {
		return fmt.Errorf("open interaction store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			zl.Warn("closing interaction store", zap.Error(err))
		}
	}()

	spec, err := intent.LoadToolSpec(cfg.IntentSpecFile, cfg.Model)
	if err != nil {
		return err
	}
	client := intent.NewClient(cfg.GroqAPIKey, cfg.GroqAPIURL, cfg.IntentTimeout)
	classifier := intent.NewClassifier(client, spec, cfg.IntentTimeout, zl)

	s := server.NewServer(cfg, classifier, st, zl, metrics.New())
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("voice server listening",
			zap.String("addr", srv.Addr),
			zap.String("model", spec.Model),
			zap.Duration("intent_timeout", cfg.IntentTimeout),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.IntentTimeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
