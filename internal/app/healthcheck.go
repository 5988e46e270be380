package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vk/isobench/internal/ctxlog"
	"github.com/vk/isobench/internal/results"
)

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// progressHandler serves the sweep counters as JSON.
func (a *App) progressHandler(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(a.ctx).Debug("Progress endpoint hit.", "remote_addr", r.RemoteAddr)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(a.progress.Snapshot()); err != nil {
		ctxlog.FromContext(a.ctx).Warn("Writing progress response failed.", "error", err)
	}
}

// recordsHandler serves the records of one solver on one family collected so
// far by the running sweep.
func (a *App) recordsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := a.model.Solver(vars["solver"]); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if _, err := a.model.Family(vars["family"]); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	store := a.store.Load()
	if store == nil {
		http.Error(w, "no sweep running", http.StatusNotFound)
		return
	}
	recs := store.Records(results.Of(vars["solver"], vars["family"]))
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(recs); err != nil {
		ctxlog.FromContext(a.ctx).Warn("Writing records response failed.", "error", err)
	}
}

func (a *App) handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", a.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/progress", a.progressHandler).Methods(http.MethodGet)
	r.HandleFunc("/records/{solver}/{family}", a.recordsHandler).Methods(http.MethodGet)
	return r
}

// healthCheckServer initializes and runs the health check HTTP server.
func (a *App) healthCheckServer() {
	logger := ctxlog.FromContext(a.ctx)
	if a.config.HealthcheckPort <= 0 {
		logger.Debug("Health check server not started: disabled")
		return
	}

	addr := fmt.Sprintf(":%d", a.config.HealthcheckPort)
	a.httpServer = &http.Server{
		Addr:              addr,
		Handler:           a.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
}

func (a *App) closeHealthCheckServer() error {
	logger := ctxlog.FromContext(a.ctx)
	if a.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(a.ctx), 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down health check server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Health check server shutdown failed", "error", err)
		return err
	}
	logger.Debug("Health check server shut down gracefully.")
	return nil
}
