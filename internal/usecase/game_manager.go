package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-lineserver/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/broadcast"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/entity"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/monitor"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/registry"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/session"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/tictactoe"
)

type resultRepo interface {
	Save(ctx context.Context, result *entity.Result) error
}

// GameManager owns the one game of this server and attaches every accepted
// connection to it.
type GameManager struct {
	logger      *slog.Logger
	id          string
	game        *tictactoe.Game
	registry    *registry.Registry[broadcast.Recipient]
	broadcaster *broadcast.Broadcaster
	resultRepo  resultRepo
	metrics     *monitor.Metrics

	seatsMutex sync.Mutex
	nextSeat   entity.PlayerID

	finishOnce sync.Once
}

// NewGameManager - resultRepo may be nil when results are not archived.
func NewGameManager(logger *slog.Logger, resultRepo resultRepo, metrics *monitor.Metrics) *GameManager {
	id := pkg.GenerateGameID()
	logger = logger.With("component", "game", "gameID", id)
	reg := registry.New[broadcast.Recipient]()

	return &GameManager{
		logger:      logger,
		id:          id,
		game:        tictactoe.NewGame(),
		registry:    reg,
		broadcaster: broadcast.New(logger, reg, metrics),
		resultRepo:  resultRepo,
		metrics:     metrics,
	}
}

func (that *GameManager) ID() string {
	return that.id
}

func (that *GameManager) Snapshot() entity.Snapshot {
	return that.game.Snapshot()
}

// Serve runs the session of one connection until it ends and closes the
// connection. It blocks, so callers run it in its own goroutine.
func (that *GameManager) Serve(ctx context.Context, conn session.Conn) error {
	log := that.logger.With("method", "Serve", "addr", conn.RemoteAddr())

	defer func() {
		if err := conn.Close(); err != nil {
			log.Debug("failed to close connection", "error", err)
		}
	}()

	player, err := that.takeSeat()
	if err != nil {
		if writeErr := conn.Write(protocol.MessageGameFull); writeErr != nil {
			log.Debug("failed to reject connection", "error", writeErr)
		}
		return err
	}

	playerSession := session.New(that.logger, player, conn, that.game, that, that.metrics)

	if err = that.registry.Register(player, playerSession); err != nil {
		return fmt.Errorf("failed to register session: %w", err)
	}

	that.metrics.SessionOpened()
	log.Info("player connected", "player", int(player))

	defer func() {
		that.registry.Unregister(player)
		that.metrics.SessionClosed()
		log.Info("player disconnected", "player", int(player))
	}()

	if err = playerSession.Run(ctx); err != nil {
		return fmt.Errorf("session of player %d: %w", player, err)
	}

	return nil
}

func (that *GameManager) Broadcast(message string) {
	that.broadcaster.Broadcast(message)
}

// Finish broadcasts the last message of the game, releases every session and
// archives the result the first time it is called.
func (that *GameManager) Finish(ctx context.Context, snapshot entity.Snapshot, message string) {
	that.broadcaster.BroadcastFinal(message)

	that.finishOnce.Do(func() {
		that.metrics.GameFinished(snapshot.Status.Kind.String())
		that.archive(ctx, snapshot)
	})
}

func (that *GameManager) archive(ctx context.Context, snapshot entity.Snapshot) {
	log := that.logger.With("method", "archive")

	if that.resultRepo == nil {
		return
	}

	result := entity.NewResult(that.id, snapshot, time.Now())
	if err := that.resultRepo.Save(context.WithoutCancel(ctx), result); err != nil {
		log.Error("failed to archive result", "error", err)
		return
	}

	log.Info("result archived", "status", result.Status)
}

func (that *GameManager) takeSeat() (entity.PlayerID, error) {
	that.seatsMutex.Lock()
	defer that.seatsMutex.Unlock()

	if int(that.nextSeat) >= entity.PlayerCount {
		return 0, apperror.ErrGameFull
	}

	seat := that.nextSeat
	that.nextSeat++

	return seat, nil
}
