package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"sixmcp/internal/domain"
)

const (
	observabilityReadHeaderTimeout = 5 * time.Second
	observabilityShutdownTimeout   = 5 * time.Second
)

// NewObservabilityHandler serves gatherer on /metrics and health on /healthz.
// A nil gatherer falls back to the default prometheus registry.
func NewObservabilityHandler(gatherer prometheus.Gatherer, health *HealthTracker) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", healthHandler(health))
	return mux
}

// StartObservabilityServer serves /metrics and /healthz on addr until ctx ends.
// It returns an error only when the listener fails or shutdown times out.
func StartObservabilityServer(ctx context.Context, addr string, gatherer prometheus.Gatherer, health *HealthTracker, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if addr == "" {
		addr = domain.DefaultObservabilityListenAddress
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           NewObservabilityHandler(gatherer, health),
		ReadHeaderTimeout: observabilityReadHeaderTimeout,
	}

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("observability server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("observability server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), observabilityShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("observability server shutdown: %w", err)
	}
	logger.Info("observability server stopped")
	return nil
}

func healthHandler(tracker *HealthTracker) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		report := tracker.Report()

		status := http.StatusOK
		if report.Status != "ok" {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	})
}
