package apperror

import "errors"

var (
	ErrGameFinished   = errors.New("game is already finished")
	ErrNotYourTurn    = errors.New("it's not your turn")
	ErrCellOccupied   = errors.New("cell is already occupied")
	ErrInvalidCell    = errors.New("invalid cell index")
	ErrUnknownCommand = errors.New("unknown command")
	ErrSeatTaken      = errors.New("seat is already taken")
	ErrGameFull       = errors.New("game already has two players")
)
