package entity

// PlayerID identifies one of the two seats.
type PlayerID int

const (
	PlayerZero PlayerID = 0
	PlayerOne  PlayerID = 1

	PlayerCount = 2
)

func (p PlayerID) IsValid() bool {
	return p == PlayerZero || p == PlayerOne
}

func (p PlayerID) Other() PlayerID {
	if p == PlayerZero {
		return PlayerOne
	}
	return PlayerZero
}

// Mark returns the symbol placed by the player: 0 plays O, 1 plays X.
func (p PlayerID) Mark() Cell {
	if p == PlayerZero {
		return MarkA
	}
	return MarkB
}
