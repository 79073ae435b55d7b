package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-lineserver/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/entity"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/monitor"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/protocol"
)

// Conn is one participant's connection, framed as command tokens in and text
// lines out. Write must be safe to call from several goroutines.
type Conn interface {
	ReadCommand() (string, error)
	Write(message string) error
	SetReadDeadline(t time.Time) error
	Close() error
	RemoteAddr() string
}

type game interface {
	AttemptMove(cell int, player entity.PlayerID) (entity.Snapshot, error)
	Terminate(player entity.PlayerID)
	Snapshot() entity.Snapshot
}

type notifier interface {
	Broadcast(message string)
	Finish(ctx context.Context, snapshot entity.Snapshot, message string)
}

// Session runs the protocol for one player: AwaitingCommand until the game ends
// or the connection fails, then Closed.
type Session struct {
	logger   *slog.Logger
	playerID entity.PlayerID
	conn     Conn
	game     game
	notifier notifier
	metrics  *monitor.Metrics
}

func New(
	logger *slog.Logger,
	playerID entity.PlayerID,
	conn Conn,
	game game,
	notifier notifier,
	metrics *monitor.Metrics,
) *Session {
	return &Session{
		logger:   logger.With("player", int(playerID), "addr", conn.RemoteAddr()),
		playerID: playerID,
		conn:     conn,
		game:     game,
		notifier: notifier,
		metrics:  metrics,
	}
}

func (that *Session) PlayerID() entity.PlayerID {
	return that.playerID
}

func (that *Session) Send(message string) error {
	return that.conn.Write(message)
}

// Interrupt unblocks a pending ReadCommand; later reads fail immediately too.
func (that *Session) Interrupt() {
	if err := that.conn.SetReadDeadline(time.Now()); err != nil {
		that.logger.Debug("failed to interrupt read", "error", err)
	}
}

func (that *Session) Close() error {
	return that.conn.Close()
}

// Run sends the welcome line and processes commands until the game is over.
// Cancelling ctx interrupts the pending read.
func (that *Session) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	stop := context.AfterFunc(ctx, that.Interrupt)
	defer stop()

	if err := that.conn.Write(protocol.Welcome(that.playerID)); err != nil {
		return fmt.Errorf("failed to send welcome: %w", err)
	}

	for that.game.Snapshot().Status.IsInProgress() {
		token, err := that.conn.ReadCommand()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("session stopped: %w", ctx.Err())
			}

			if errors.Is(err, apperror.ErrUnknownCommand) {
				log.Debug("rejected unreadable command", "error", err)
				that.metrics.ObserveMove(monitor.MoveInvalid)
				if err = that.reply(protocol.MessageInvalidCommand); err != nil {
					return err
				}
				continue
			}

			if that.game.Snapshot().Status.IsTerminal() {
				break
			}

			return fmt.Errorf("failed to read command: %w", err)
		}

		if err = that.handleCommand(ctx, token); err != nil {
			return err
		}
	}

	log.Info("game over, closing session", "status", that.game.Snapshot().Status.String())

	if err := that.conn.Write(protocol.MessageGoodbye); err != nil {
		return fmt.Errorf("failed to send goodbye: %w", err)
	}

	return nil
}

func (that *Session) handleCommand(ctx context.Context, token string) error {
	log := that.logger.With("method", "handleCommand")

	command, err := protocol.ParseCommand(token)
	if err != nil {
		log.Debug("rejected command", "token", token, "error", err)
		that.metrics.ObserveMove(monitor.MoveInvalid)
		return that.reply(protocol.MessageInvalidCommand)
	}

	if command.Quit {
		that.game.Terminate(that.playerID)
		log.Info("player quit")
		that.notifier.Finish(ctx, that.game.Snapshot(), protocol.Quit(that.playerID))
		return nil
	}

	if that.game.Snapshot().Turn != that.playerID {
		that.metrics.ObserveMove(monitor.MoveNotYourTurn)
		return that.reply(protocol.MessageTypeCommand)
	}

	snapshot, err := that.game.AttemptMove(command.Cell, that.playerID)
	switch {
	case errors.Is(err, apperror.ErrCellOccupied):
		that.metrics.ObserveMove(monitor.MoveCellTaken)
		return that.reply(protocol.MessageCellTaken)
	case errors.Is(err, apperror.ErrNotYourTurn):
		that.metrics.ObserveMove(monitor.MoveNotYourTurn)
		return that.reply(protocol.MessageTypeCommand)
	case errors.Is(err, apperror.ErrGameFinished):
		that.metrics.ObserveMove(monitor.MoveAfterFinish)
		return nil
	case err != nil:
		that.metrics.ObserveMove(monitor.MoveInvalid)
		log.Warn("unexpected move error", "cell", command.Cell, "error", err)
		return that.reply(protocol.MessageInvalidCommand)
	}

	that.metrics.ObserveMove(monitor.MoveApplied)
	log.Debug("move applied", "cell", command.Cell, "status", snapshot.Status.String())

	message := protocol.Outcome(snapshot)
	if snapshot.Status.IsTerminal() {
		that.notifier.Finish(ctx, snapshot, message)
		return nil
	}

	that.notifier.Broadcast(message)

	return nil
}

// reply sends a private message to this player only.
func (that *Session) reply(message string) error {
	if err := that.conn.Write(message); err != nil {
		return fmt.Errorf("failed to reply: %w", err)
	}

	return nil
}
