package tcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-lineserver/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/session"
)

type gameManager interface {
	Serve(ctx context.Context, conn session.Conn) error
}

type Server struct {
	logger       *slog.Logger
	manager      gameManager
	writeTimeout time.Duration
}

func New(logger *slog.Logger, manager gameManager, writeTimeout time.Duration) *Server {
	return &Server{
		logger:       logger.With("component", "tcp"),
		manager:      manager,
		writeTimeout: writeTimeout,
	}
}

// Start - listens on port and serves connections until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return that.Serve(ctx, listener)
}

// Serve accepts connections from listener and runs one goroutine per connection.
// It closes the listener when ctx is done and waits for the connections to finish.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("method", "Serve")

	stop := context.AfterFunc(ctx, func() {
		if err := listener.Close(); err != nil {
			log.Debug("failed to close listener", "error", err)
		}
	})
	defer stop()

	log.Info("waiting for players to connect", "addr", listener.Addr().String())

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			that.handle(ctx, conn)
		}()
	}
}

func (that *Server) handle(ctx context.Context, conn net.Conn) {
	log := that.logger.With("method", "handle", "addr", conn.RemoteAddr().String())

	log.Info("connection accepted")

	err := that.manager.Serve(ctx, newLineConn(conn, that.writeTimeout))
	switch {
	case err == nil:
		log.Info("connection finished")
	case errors.Is(err, apperror.ErrGameFull), errors.Is(err, context.Canceled):
		log.Info("connection closed", "reason", err)
	default:
		log.Warn("connection failed", "error", err)
	}
}
