package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-lineserver/internal/apperror"
)

const (
	BoardSize = 3
	CellCount = BoardSize * BoardSize
)

// Cell is one board position. A non-empty cell never changes again.
type Cell uint8

const (
	Empty Cell = iota
	MarkA
	MarkB
)

func (c Cell) String() string {
	switch c {
	case MarkA:
		return "O"
	case MarkB:
		return "X"
	default:
		return " "
	}
}

// Owner returns the player whose mark fills the cell.
func (c Cell) Owner() (PlayerID, bool) {
	switch c {
	case MarkA:
		return PlayerZero, true
	case MarkB:
		return PlayerOne, true
	default:
		return 0, false
	}
}

// WinCombos lists the rows, columns and diagonals as row-major offsets.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

type Board [BoardSize][BoardSize]Cell

// CellPosition maps an external index 1..9 onto the board.
func CellPosition(index int) (int, int, error) {
	if index < 1 || index > CellCount {
		return 0, 0, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, index)
	}

	return (index - 1) / BoardSize, (index - 1) % BoardSize, nil
}

func (that *Board) offset(i int) Cell {
	return that[i/BoardSize][i%BoardSize]
}

// WinningMark returns the mark that fills a complete line, or Empty.
func (that *Board) WinningMark() Cell {
	for _, combo := range WinCombos {
		a, b, c := that.offset(combo[0]), that.offset(combo[1]), that.offset(combo[2])
		if a != Empty && a == b && b == c {
			return a
		}
	}

	return Empty
}

func (that *Board) IsFull() bool {
	for _, row := range that {
		for _, cell := range row {
			if cell == Empty {
				return false
			}
		}
	}

	return true
}

// DetermineStatus evaluates the board after a move. A win is checked before a draw.
func (that *Board) DetermineStatus() Status {
	if owner, ok := that.WinningMark().Owner(); ok {
		return Status{Kind: StatusWon, Player: owner}
	}

	if that.IsFull() {
		return Status{Kind: StatusDraw}
	}

	return Status{Kind: StatusInProgress}
}

// Flatten returns the cells in external index order.
func (that *Board) Flatten() [CellCount]string {
	var cells [CellCount]string
	for i := range cells {
		cells[i] = strings.TrimSpace(that.offset(i).String())
	}

	return cells
}

// String renders the board as three rows joined by "-+-+-" with a trailing newline.
func (that Board) String() string {
	rows := make([]string, 0, BoardSize)
	for _, row := range that {
		cells := make([]string, 0, BoardSize)
		for _, cell := range row {
			cells = append(cells, cell.String())
		}
		rows = append(rows, strings.Join(cells, "|"))
	}

	return strings.Join(rows, "\n-+-+-\n") + "\n"
}

type StatusKind uint8

const (
	StatusInProgress StatusKind = iota
	StatusWon
	StatusDraw
	StatusAbandoned
)

func (k StatusKind) String() string {
	switch k {
	case StatusWon:
		return "won"
	case StatusDraw:
		return "draw"
	case StatusAbandoned:
		return "abandoned"
	default:
		return "in_progress"
	}
}

// Status is the terminal status of a game. Player is the winner for StatusWon
// and the player who quit for StatusAbandoned.
type Status struct {
	Kind   StatusKind
	Player PlayerID
}

func (that Status) IsInProgress() bool {
	return that.Kind == StatusInProgress
}

func (that Status) IsTerminal() bool {
	return !that.IsInProgress()
}

func (that Status) String() string {
	switch that.Kind {
	case StatusWon:
		return fmt.Sprintf("won(%d)", that.Player)
	case StatusAbandoned:
		return fmt.Sprintf("abandoned(%d)", that.Player)
	default:
		return that.Kind.String()
	}
}

// Snapshot is a consistent copy of the game state.
type Snapshot struct {
	Board  Board
	Turn   PlayerID
	Status Status
}
