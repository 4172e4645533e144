package app

import "errors"

// Validation failures surfaced to the API layer. The dispatcher maps each
// one to its wire error code.
var (
	ErrEmptyName             = errors.New("player name is empty")
	ErrMapNotFound           = errors.New("map not found")
	ErrUnknownToken          = errors.New("unknown auth token")
	ErrInvalidDirection      = errors.New("invalid move direction")
	ErrInvalidTime           = errors.New("invalid time delta")
	ErrExternalTicksDisabled = errors.New("external ticks are disabled")
)
