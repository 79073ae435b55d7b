package tictactoe

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-lineserver/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/entity"
)

// Game is the single shared game state. Every read and write goes through mu;
// callers never hold it across I/O.
type Game struct {
	mu     sync.Mutex
	board  entity.Board
	turn   entity.PlayerID
	status entity.Status
}

func NewGame() *Game {
	return &Game{
		turn:   entity.PlayerZero,
		status: entity.Status{Kind: entity.StatusInProgress},
	}
}

// AttemptMove places the player's mark on cell 1..9 and returns the state right
// after the move. Rejected moves leave the game untouched.
func (that *Game) AttemptMove(cell int, player entity.PlayerID) (entity.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.status.IsTerminal() {
		return that.snapshot(), apperror.ErrGameFinished
	}

	row, col, err := validateMove(&that.board, that.turn, player, cell)
	if err != nil {
		return that.snapshot(), fmt.Errorf("invalid turn: %w", err)
	}

	that.board[row][col] = player.Mark()
	that.turn = player.Other()
	that.status = that.board.DetermineStatus()

	return that.snapshot(), nil
}

// Terminate marks the game abandoned by player. Only the first call has effect.
func (that *Game) Terminate(player entity.PlayerID) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.status.Kind == entity.StatusAbandoned {
		return
	}

	that.status = entity.Status{Kind: entity.StatusAbandoned, Player: player}
}

func (that *Game) Snapshot() entity.Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.snapshot()
}

func (that *Game) snapshot() entity.Snapshot {
	return entity.Snapshot{
		Board:  that.board,
		Turn:   that.turn,
		Status: that.status,
	}
}

// validateMove - checks if the move is valid.
func validateMove(board *entity.Board, turn, player entity.PlayerID, cell int) (int, int, error) {
	row, col, err := entity.CellPosition(cell)
	if err != nil {
		return 0, 0, err
	}

	if player != turn {
		return 0, 0, apperror.ErrNotYourTurn
	}

	if board[row][col] != entity.Empty {
		return 0, 0, apperror.ErrCellOccupied
	}

	return row, col, nil
}
