package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nijaru/yt-ask/answer"
	"github.com/nijaru/yt-ask/config"
	"github.com/nijaru/yt-ask/handlers"
	"github.com/nijaru/yt-ask/logger"
	"github.com/nijaru/yt-ask/metrics"
	"github.com/nijaru/yt-ask/middleware"
	"github.com/nijaru/yt-ask/transcription"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg)
	stop()
	if err != nil {
		logrus.WithError(err).Fatal("Server exited")
	}
}

// run serves until ctx is cancelled or the listener fails. Every exit path
// returns through here so deferred cleanup always runs.
func run(ctx context.Context, cfg *config.Config) error {
	log, logCloser, err := logger.New(cfg.Log)
	if err != nil {
		return errors.Wrap(err, "initializing logger")
	}
	defer logCloser.Close()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	fetcher := transcription.NewYouTubeFetcher(
		cfg.Transcript.BaseURL,
		cfg.Transcript.Languages,
		transcription.WithMetrics(m),
		transcription.WithLogger(log),
	)

	completer, err := answer.NewCompleter(ctx, cfg.LLM)
	if err != nil {
		return errors.Wrap(err, "initializing LLM client")
	}
	if completer == nil {
		log.WithField("provider", cfg.LLM.Provider).Warn("No LLM credential configured; answers will report that the client is not configured")
	}

	generator := answer.NewGenerator(completer, answer.Config{
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Strict:    cfg.Strict(),
	}, answer.WithMetrics(m), answer.WithLogger(log))

	h := handlers.New(cfg, fetcher, generator, m)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      newHandler(h.Routes(), cfg, log, m),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"port":       cfg.ServerPort,
			"provider":   cfg.LLM.Provider,
			"model":      cfg.LLM.Model,
			"error_mode": cfg.ErrorMode,
		}).Info("Server starting")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	log.Info("Shutting down the server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down server")
	}
	log.Info("Server stopped")
	return nil
}

// newHandler wraps routes with the middleware stack. Recovery sits inside
// Logging and CORS so a recovered panic is still logged and still carries
// the CORS headers.
func newHandler(routes http.Handler, cfg *config.Config, log *logrus.Logger, m *metrics.Metrics) http.Handler {
	return middleware.Chain(routes,
		middleware.RequestID(),
		middleware.Logging(log),
		middleware.CORS(cfg.CORS),
		middleware.Recovery(log),
		middleware.Metrics(m),
	)
}
