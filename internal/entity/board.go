package entity

import (
	"fmt"

	"github.com/gridduel/gridduel-backend/internal/apperror"
)

const (
	BoardWidth  = 3
	BoardHeight = 5
)

// orthogonal direction vectors: north, south, east, west
var (
	adjacentDX = [4]int{0, 0, 1, -1}
	adjacentDY = [4]int{1, -1, 0, 0}
)

// Board is the fixed 3x5 grid. Pieces maps a position key ("x,y") to the id
// of the card occupying that cell; absent key means the cell is empty.
type Board struct {
	Width  int               `json:"width"`
	Height int               `json:"height"`
	Pieces map[string]string `json:"pieces"`
}

func NewBoard() *Board {
	return &Board{
		Width:  BoardWidth,
		Height: BoardHeight,
		Pieces: make(map[string]string),
	}
}

func (that *Board) IsInBounds(pos Position) bool {
	return pos.X >= 0 && pos.X < that.Width && pos.Y >= 0 && pos.Y < that.Height
}

func (that *Board) IsPositionEmpty(pos Position) bool {
	_, occupied := that.Pieces[pos.Key()]
	return !occupied
}

// IsPositionValid reports whether a card may be placed at pos: in bounds and
// unoccupied.
func (that *Board) IsPositionValid(pos Position) bool {
	return that.IsInBounds(pos) && that.IsPositionEmpty(pos)
}

func (that *Board) PlaceCard(pos Position, cardID string) error {
	if !that.IsPositionValid(pos) {
		return fmt.Errorf("%w: %s", apperror.ErrInvalidPosition, pos.Key())
	}

	if that.Pieces == nil {
		that.Pieces = make(map[string]string)
	}
	that.Pieces[pos.Key()] = cardID

	return nil
}

// CardIDAt returns the id of the card at pos, if any.
func (that *Board) CardIDAt(pos Position) (string, bool) {
	cardID, ok := that.Pieces[pos.Key()]
	return cardID, ok
}

// AdjacentPositions returns the in-bounds orthogonal neighbors of pos.
func (that *Board) AdjacentPositions(pos Position) []Position {
	adjacent := make([]Position, 0, len(adjacentDX))

	for i := range adjacentDX {
		neighbor := Position{X: pos.X + adjacentDX[i], Y: pos.Y + adjacentDY[i]}
		if that.IsInBounds(neighbor) {
			adjacent = append(adjacent, neighbor)
		}
	}

	return adjacent
}

// EmptyPositions returns the unoccupied in-bounds cells, recomputed on every
// call because the board mutates between calls.
func (that *Board) EmptyPositions() []Position {
	empty := make([]Position, 0, that.Width*that.Height-len(that.Pieces))

	for x := 0; x < that.Width; x++ {
		for y := 0; y < that.Height; y++ {
			pos := Position{X: x, Y: y}
			if that.IsPositionEmpty(pos) {
				empty = append(empty, pos)
			}
		}
	}

	return empty
}

func (that *Board) IsFull() bool {
	return len(that.Pieces) >= that.Width*that.Height
}
