package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/session"
)

type gameManager interface {
	Serve(ctx context.Context, conn session.Conn) error
}

type Server struct {
	ctx          context.Context //nolint: containedctx // sessions outlive the upgrade request
	logger       *slog.Logger
	manager      gameManager
	upgrader     websocket.Upgrader
	writeTimeout time.Duration

	sessionsMutex sync.Mutex
	draining      bool
	sessions      sync.WaitGroup
}

// New - ctx bounds every session started by the handler.
func New(ctx context.Context, logger *slog.Logger, manager gameManager, writeTimeout time.Duration) *Server {
	return &Server{
		ctx:     ctx,
		logger:  logger.With("component", "websocket"),
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		writeTimeout: writeTimeout,
	}
}

// ServeHTTP upgrades the request and runs the player's session on the handler goroutine.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP", "addr", req.RemoteAddr)

	if !that.track() {
		http.Error(writer, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}
	defer that.sessions.Done()

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	log.Info("WebSocket connection established")

	var closeErr *websocket.CloseError

	err = that.manager.Serve(that.ctx, newConn(ws, that.writeTimeout))
	switch {
	case err == nil:
		log.Info("connection finished")
	case errors.Is(err, apperror.ErrGameFull), errors.Is(err, context.Canceled):
		log.Info("connection closed", "reason", err)
	case errors.As(err, &closeErr):
		log.Info("client closed connection", "code", closeErr.Code)
	default:
		log.Warn("connection failed", "error", err)
	}
}

// Wait refuses new connections and blocks until every running session is over.
// Hijacked connections are invisible to http.Server.Shutdown, so callers wait
// here after cancelling the server context.
func (that *Server) Wait() {
	that.sessionsMutex.Lock()
	that.draining = true
	that.sessionsMutex.Unlock()

	that.sessions.Wait()
}

func (that *Server) track() bool {
	that.sessionsMutex.Lock()
	defer that.sessionsMutex.Unlock()

	if that.draining {
		return false
	}

	that.sessions.Add(1)

	return true
}
