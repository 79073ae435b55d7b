package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP side of the game server: health check, metrics and the
// result archive. Other handlers, like the websocket endpoint, are mounted
// with Handle.
type Server struct {
	logger *slog.Logger
	mux    *http.ServeMux
}

// New - results may be nil when no archive is configured; the result routes
// are then not registered.
func New(logger *slog.Logger, gatherer prometheus.Gatherer, results resultReader) *Server {
	logger = logger.With("component", "http")
	mux := http.NewServeMux()

	mux.HandleFunc("GET /ping", pingHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if results != nil {
		handlers := &resultHandlers{logger: logger, results: results}
		mux.HandleFunc("GET /leaderboard", handlers.getLeaderboard)
		mux.HandleFunc("GET /results/{id}", handlers.getResult)
	}

	return &Server{
		logger: logger,
		mux:    mux,
	}
}

func (that *Server) Handle(pattern string, handler http.Handler) {
	that.mux.Handle(pattern, handler)
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	that.mux.ServeHTTP(w, r)
}

// Start listens on port until ctx is cancelled, then shuts the server down.
func (that *Server) Start(ctx context.Context, port string) error {
	log := that.logger.With("method", "Start")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shut down server", "error", err)
		}
	})
	defer stop()

	log.Info("HTTP server is running", "port", port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
