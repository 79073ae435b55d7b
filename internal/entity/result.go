package entity

import "time"

// Result is the archived outcome of a finished game.
type Result struct {
	ID         string            `json:"id"`
	Board      [CellCount]string `json:"board"`
	Status     string            `json:"status"`
	Player     *PlayerID         `json:"player,omitempty"`
	FinishedAt time.Time         `json:"finished_at"`
}

func NewResult(id string, snapshot Snapshot, finishedAt time.Time) *Result {
	result := &Result{
		ID:         id,
		Board:      snapshot.Board.Flatten(),
		Status:     snapshot.Status.Kind.String(),
		FinishedAt: finishedAt.UTC(),
	}

	if snapshot.Status.Kind == StatusWon || snapshot.Status.Kind == StatusAbandoned {
		player := snapshot.Status.Player
		result.Player = &player
	}

	return result
}

func (that *Result) IsWin() bool {
	return that.Status == StatusWon.String()
}

type LeaderboardEntry struct {
	Player string  `json:"player"`
	Wins   float64 `json:"wins"`
}
