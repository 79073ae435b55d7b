package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/config"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/monitor"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/repository"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-lineserver/transport/rest"
	"github.com/rocketscienceinc/tictactoe-lineserver/transport/tcp"
	"github.com/rocketscienceinc/tictactoe-lineserver/transport/websocket"
)

const metricsNamespace = "tictactoe"

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitor.NewMetrics(metricsNamespace, registry)

	var results repository.ResultRepository
	if conf.Redis.Enabled {
		redisStorage, err := storage.NewRedisClient(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		results = repository.NewResultRepository(redisStorage)
		log.Info("Archiving results in redis", "addr", conf.Redis.GetRedisAddr())
	}

	gameManager := usecase.NewGameManager(logger, results, metrics)

	httpServer := rest.New(logger, registry, results)
	wsServer := websocket.New(ctx, logger, gameManager, conf.WriteTimeout)
	httpServer.Handle("/ws", wsServer)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		httpErrCh <- httpServer.Start(ctx, conf.HTTPPort)
	}()

	// run TCP game server
	tcpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting TCP server", "port", conf.TCPPort)
		tcpErrCh <- tcp.New(logger, gameManager, conf.WriteTimeout).Start(ctx, conf.TCPPort)
	}()

	var runErr error

	select {
	case err := <-httpErrCh:
		httpErrCh <- err
		if err != nil {
			runErr = fmt.Errorf("HTTP server error: %w", err)
		}
	case err := <-tcpErrCh:
		tcpErrCh <- err
		if err != nil {
			runErr = fmt.Errorf("TCP server error: %w", err)
		}
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
	}

	// wait for both servers and the hijacked websocket sessions to drain
	cancel()
	<-httpErrCh
	<-tcpErrCh
	wsServer.Wait()

	return runErr
}
