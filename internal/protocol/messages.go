package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rocketscienceinc/tictactoe-lineserver/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-lineserver/internal/entity"
)

const (
	QuitMarker = "Q"

	MessageCellTaken      = "Already a symbol played there, enter a new spot"
	MessageTypeCommand    = "Type a command"
	MessageGoodbye        = "Goodbye"
	MessageInvalidCommand = "Invalid command, enter a cell number from 1 to 9 or Q to quit"
	MessageGameFull       = "Game is full, try again later"
	MessageSelectCell     = "Select a cell to play from the board: "

	delimiterWidth = 60
)

// Delimiter precedes every broadcast payload.
var Delimiter = strings.Repeat("*", delimiterWidth)

// Command is one parsed client token.
type Command struct {
	Quit bool
	Cell int
}

// ParseCommand accepts the quit marker or a cell number 1..9.
func ParseCommand(token string) (Command, error) {
	token = strings.TrimSpace(token)
	if token == QuitMarker {
		return Command{Quit: true}, nil
	}

	cell, err := strconv.Atoi(token)
	if err != nil {
		return Command{}, fmt.Errorf("%w: %q", apperror.ErrUnknownCommand, token)
	}

	if _, _, err = entity.CellPosition(cell); err != nil {
		return Command{}, err
	}

	return Command{Cell: cell}, nil
}

func Welcome(player entity.PlayerID) string {
	return fmt.Sprintf("Welcome Player %d", player)
}

func Quit(player entity.PlayerID) string {
	return fmt.Sprintf("Player %d quit. Great Game!", player)
}

// Outcome builds the broadcast text for the state right after an applied move.
func Outcome(snapshot entity.Snapshot) string {
	var status string

	switch snapshot.Status.Kind {
	case entity.StatusWon:
		status = fmt.Sprintf("Game over! Player %d wins!", snapshot.Status.Player)
	case entity.StatusDraw:
		status = "Touche! Draw game"
	case entity.StatusAbandoned:
		return Quit(snapshot.Status.Player)
	default:
		status = fmt.Sprintf("Player %d's turn", snapshot.Turn)
	}

	return "\n" + snapshot.Board.String() + "\n" + status
}

// CellGuide renders the board with every cell labelled by its index.
func CellGuide() string {
	rows := make([]string, 0, entity.BoardSize)
	for row := range entity.BoardSize {
		labels := make([]string, 0, entity.BoardSize)
		for col := range entity.BoardSize {
			labels = append(labels, strconv.Itoa(row*entity.BoardSize+col+1))
		}
		rows = append(rows, strings.Join(labels, "|"))
	}

	return strings.Join(rows, "\n-+-+-\n") + "\n"
}
