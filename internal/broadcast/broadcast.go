package broadcast

import (
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-lineserver/internal/entity"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/monitor"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/registry"
)

// Recipient is one registered session as seen by the broadcaster.
type Recipient interface {
	Send(message string) error
	// Interrupt makes a pending read return so the session can notice the game is over.
	Interrupt()
	Close() error
}

type Broadcaster struct {
	logger   *slog.Logger
	registry *registry.Registry[Recipient]
	metrics  *monitor.Metrics
}

func New(logger *slog.Logger, reg *registry.Registry[Recipient], metrics *monitor.Metrics) *Broadcaster {
	return &Broadcaster{
		logger:   logger,
		registry: reg,
		metrics:  metrics,
	}
}

// Broadcast delivers message, preceded by the delimiter line, to every registered
// recipient. A failed delivery is logged and the recipient is dropped once the
// pass is over; the others still get the message.
func (that *Broadcaster) Broadcast(message string) {
	log := that.logger.With("method", "Broadcast")

	payload := protocol.Delimiter + "\n" + message

	var failed []entity.PlayerID

	that.registry.ForEach(func(id entity.PlayerID, recipient Recipient) {
		if err := recipient.Send(payload); err != nil {
			log.Warn("failed to deliver broadcast", "player", id, "error", err)
			that.metrics.BroadcastFailed()
			failed = append(failed, id)
		}
	})

	for _, id := range failed {
		recipient, ok := that.registry.Unregister(id)
		if !ok {
			continue
		}

		if err := recipient.Close(); err != nil {
			log.Debug("failed to close recipient", "player", id, "error", err)
		}
	}
}

// BroadcastFinal delivers the last message of a game and then interrupts every
// recipient.
func (that *Broadcaster) BroadcastFinal(message string) {
	that.Broadcast(message)

	that.registry.ForEach(func(_ entity.PlayerID, recipient Recipient) {
		recipient.Interrupt()
	})
}
