package model

import (
	"errors"
	"fmt"
)

// Direction is a dog's facing direction on the map grid. North points
// towards decreasing Y.
type Direction int

const (
	North Direction = iota
	South
	West
	East
)

// ErrUnknownDirection is returned when a wire string does not name one of
// the four directions.
var ErrUnknownDirection = errors.New("unknown direction")

var directionToString = map[Direction]string{
	North: "U",
	South: "D",
	West:  "L",
	East:  "R",
}

var stringToDirection = map[string]Direction{
	"U": North,
	"D": South,
	"L": West,
	"R": East,
}

// String returns the wire form of the direction ("U", "D", "L" or "R").
func (d Direction) String() string {
	if s, ok := directionToString[d]; ok {
		return s
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// DirectionFromString parses the wire form of a direction.
func DirectionFromString(s string) (Direction, error) {
	d, ok := stringToDirection[s]
	if !ok {
		return North, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
	return d, nil
}
