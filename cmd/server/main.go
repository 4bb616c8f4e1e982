package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/faisolarifin/custom-gateway/internal/alert"
	"github.com/faisolarifin/custom-gateway/internal/bank"
	"github.com/faisolarifin/custom-gateway/internal/config"
	"github.com/faisolarifin/custom-gateway/internal/httpapi"
	"github.com/faisolarifin/custom-gateway/internal/logging"
)

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	cfgPath := env("CONFIG_FILE", "config.yaml")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		// The configured logger is not available before the config loads.
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Str("path", cfgPath).Msg("failed to load configuration")
	}

	logger, logCloser, err := logging.New(cfg.Logger)
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("failed to initialize logging")
	}
	defer logCloser.Close()

	timeout := cfg.WebClient.TimeoutDuration()
	alerter := alert.NewTelegram(cfg.TelegramAlert, &http.Client{Timeout: timeout}, logger)

	tokens := bank.NewTokenManager(cfg, &http.Client{Timeout: timeout}, alerter, logger)
	defer tokens.Shutdown()

	forwarder := bank.NewClient(cfg, &http.Client{Timeout: timeout}, tokens, alerter, logger)

	srv := &httpapi.Server{
		Forwarder:   forwarder,
		Alerter:     alerter,
		Logger:      logger,
		WebhookPath: cfg.Server.WebhookPath,
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info().
		Str("listenAddress", cfg.Server.Addr()).
		Str("webhookPath", cfg.Server.WebhookPath).
		Str("callbackUrl", cfg.PermataWebhook.CallbackStatusURL).
		Msg("webhook gateway started")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received, shutting down gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	tokens.Shutdown()
	logger.Info().Msg("server stopped")
}
