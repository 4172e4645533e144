package model

import (
	"errors"
	"fmt"

	"github.com/fetchworks/lostandfound/game/geom"
)

// ErrDuplicateOffice is returned when a map declares two offices with the
// same id.
var ErrDuplicateOffice = errors.New("duplicate office id")

// Building is an opaque rectangle on the map. Buildings are cosmetic: they
// do not affect movement or collisions.
type Building struct {
	Bounds Rectangle
}

// Office is a fixed drop-off location that converts carried loot to score.
type Office struct {
	ID       string
	Position Point
	Offset   Offset
}

// OfficeRadius is the pickup radius used when a dog passes an office.
const OfficeRadius = 0.5

// Map is an immutable description of one named game map: its road network,
// buildings, offices and movement defaults.
type Map struct {
	id          string
	name        string
	roads       []Road
	buildings   []Building
	offices     []Office
	officeIndex map[string]int

	dogSpeed    float64
	bagCapacity int
	lootValues  []int
}

// NewMap creates an empty map with the given movement defaults. Roads,
// buildings and offices are attached by the config loader.
func NewMap(id, name string, dogSpeed float64, bagCapacity int) *Map {
	return &Map{
		id:          id,
		name:        name,
		officeIndex: make(map[string]int),
		dogSpeed:    dogSpeed,
		bagCapacity: bagCapacity,
	}
}

// ID returns the map id.
func (m *Map) ID() string { return m.id }

// Name returns the human-readable map name.
func (m *Map) Name() string { return m.name }

// Roads returns the ordered road list.
func (m *Map) Roads() []Road { return m.roads }

// Buildings returns the ordered building list.
func (m *Map) Buildings() []Building { return m.buildings }

// Offices returns the ordered office list.
func (m *Map) Offices() []Office { return m.offices }

// DogSpeed returns the movement speed for dogs on this map.
func (m *Map) DogSpeed() float64 { return m.dogSpeed }

// BagCapacity returns the bag capacity for dogs on this map.
func (m *Map) BagCapacity() int { return m.bagCapacity }

// AddRoad appends a road to the network.
func (m *Map) AddRoad(r Road) {
	m.roads = append(m.roads, r)
}

// AddBuilding appends a building.
func (m *Map) AddBuilding(b Building) {
	m.buildings = append(m.buildings, b)
}

// AddOffice appends an office, rejecting duplicate ids.
func (m *Map) AddOffice(o Office) error {
	if _, exists := m.officeIndex[o.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateOffice, o.ID)
	}
	m.officeIndex[o.ID] = len(m.offices)
	m.offices = append(m.offices, o)
	return nil
}

// SetLootValues records the score value of each loot type, in declaration
// order.
func (m *Map) SetLootValues(values []int) {
	m.lootValues = values
}

// LootTypeCount returns the number of loot types declared for the map.
func (m *Map) LootTypeCount() int { return len(m.lootValues) }

// LootValue returns the score value of loot type t.
func (m *Map) LootValue(t int) int { return m.lootValues[t] }

// OnRoads reports whether pos lies on the road network, i.e. inside the
// walkable area of at least one road.
func (m *Map) OnRoads(pos geom.Point2D) bool {
	for _, r := range m.roads {
		if r.Contains(pos) {
			return true
		}
	}
	return false
}

// RoadsAt returns all roads whose walkable area contains pos.
func (m *Map) RoadsAt(pos geom.Point2D) []Road {
	var found []Road
	for _, r := range m.roads {
		if r.Contains(pos) {
			found = append(found, r)
		}
	}
	return found
}
