// Command rehearsed runs the interview session controller service.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mockmate/rehearse/internal/adapters/evaluation"
	"github.com/mockmate/rehearse/internal/adapters/http/api"
	app "github.com/mockmate/rehearse/internal/app"
	"github.com/mockmate/rehearse/internal/config"
	"github.com/mockmate/rehearse/pkg/logger"
	"github.com/mockmate/rehearse/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Local development reads REHEARSE_* vars from a .env file when
	// present; absence is not an error.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	eval := evaluation.NewHTTPClient(
		cfg.EvalBaseURL,
		evaluation.WithTimeout(time.Duration(cfg.EvalTimeoutMS)*time.Millisecond),
	)

	svc := app.New(
		app.WithLogger(log),
		app.WithEvaluationClient(eval),
		app.WithDraftDir(cfg.DraftDir),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithTickInterval(time.Duration(cfg.TickIntervalMS)*time.Millisecond),
		app.WithTranscription(cfg.TranscriptionEnabled),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	router := api.NewServer(svc).Router()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startServiceMetricsUpdater periodically publishes registry-level
// gauges that have no natural event to hang off.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.Stats()
			if sessions, ok := stats["sessions"].(int); ok {
				metrics.UpdateActiveSessions(sessions)
			}
		}
	}
}
