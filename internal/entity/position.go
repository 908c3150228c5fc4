package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadPositionKey = errors.New("malformed position key")

// Position is a board coordinate. The zero column is the left edge, the zero
// row is the top of the board.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Key returns the canonical "x,y" form used as a map key and in storage.
func (that Position) Key() string {
	return fmt.Sprintf("%d,%d", that.X, that.Y)
}

// ParsePosition parses the canonical "x,y" form back into a Position.
func ParsePosition(key string) (Position, error) {
	parts := strings.Split(key, ",")
	if len(parts) != 2 {
		return Position{}, fmt.Errorf("%w: %q", ErrBadPositionKey, key)
	}

	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return Position{}, fmt.Errorf("%w: %q", ErrBadPositionKey, key)
	}

	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return Position{}, fmt.Errorf("%w: %q", ErrBadPositionKey, key)
	}

	return Position{X: x, Y: y}, nil
}
