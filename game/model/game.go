// Package model holds the world state of the game: maps, roads, dogs, lost
// objects and the sessions that tie them together. The model is pure state;
// movement and collision rules live in their own packages.
package model

import (
	"errors"
	"fmt"
)

// ErrDuplicateMap is returned when two maps share an id.
var ErrDuplicateMap = errors.New("duplicate map id")

// Game is the root of the world model: the set of configured maps and the
// live session for each map that has seen at least one player.
type Game struct {
	maps     []*Map
	mapIndex map[string]*Map
	sessions map[string]*GameSession
}

// NewGame creates a game with no maps.
func NewGame() *Game {
	return &Game{
		mapIndex: make(map[string]*Map),
		sessions: make(map[string]*GameSession),
	}
}

// AddMap registers a map, rejecting duplicate ids.
func (g *Game) AddMap(m *Map) error {
	if _, exists := g.mapIndex[m.ID()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateMap, m.ID())
	}
	g.mapIndex[m.ID()] = m
	g.maps = append(g.maps, m)
	return nil
}

// Maps returns the maps in configuration order.
func (g *Game) Maps() []*Map { return g.maps }

// FindMap returns the map with the given id, or nil.
func (g *Game) FindMap(id string) *Map {
	return g.mapIndex[id]
}

// FindSession returns the live session for the map, or nil when no player
// has joined it yet.
func (g *Game) FindSession(mapID string) *GameSession {
	return g.sessions[mapID]
}

// Session returns the session for the map, creating it on first use. The
// map id must be valid.
func (g *Game) Session(mapID string) *GameSession {
	if s, ok := g.sessions[mapID]; ok {
		return s
	}
	s := NewGameSession(g.mapIndex[mapID])
	g.sessions[mapID] = s
	return s
}

// Sessions returns every live session in map configuration order.
func (g *Game) Sessions() []*GameSession {
	sessions := make([]*GameSession, 0, len(g.sessions))
	for _, m := range g.maps {
		if s, ok := g.sessions[m.ID()]; ok {
			sessions = append(sessions, s)
		}
	}
	return sessions
}
