package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// healthHandler answers liveness probes while a run is in progress.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// newServerMux routes /health and /metrics.
func (a *App) newServerMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", a.telemetry.Handler())
	return mux
}

// startServer binds the health and metrics server on port and serves it in
// the background. The returned func shuts it down.
func (a *App) startServer(ctx context.Context, port int) (func(), error) {
	a.logger.Debug("Configuring health and metrics server.")
	addr := fmt.Sprintf(":%d", port)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           a.newServerMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("🩺 Health and metrics server starting", "address", fmt.Sprintf("http://localhost%s/metrics", addr))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Health and metrics server failed unexpectedly", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		a.logger.Debug("Shutting down health and metrics server...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Health and metrics server shutdown failed", "error", err)
		}
	}, nil
}
