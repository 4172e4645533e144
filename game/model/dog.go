package model

import "github.com/fetchworks/lostandfound/game/geom"

// BagItem is a lost object carried in a dog's bag. ID is the ordinal the
// object had when it was picked up; Type indexes the map's loot types.
type BagItem struct {
	ID   int `json:"id"`
	Type int `json:"type"`
}

// Dog is a player's avatar. Its position always lies on the road network of
// its session's map; the bag has a fixed number of slots, each either empty
// or holding one item.
type Dog struct {
	id        uint64
	name      string
	pos       geom.Point2D
	speed     geom.Vec2D
	direction Direction
	bag       []*BagItem
}

// NewDog creates a dog at pos with an empty bag of the given capacity.
func NewDog(id uint64, name string, pos geom.Point2D, speed geom.Vec2D, bagCapacity int) *Dog {
	return &Dog{
		id:    id,
		name:  name,
		pos:   pos,
		speed: speed,
		bag:   make([]*BagItem, bagCapacity),
	}
}

// ID returns the session-local dog id.
func (d *Dog) ID() uint64 { return d.id }

// Name returns the dog's display name.
func (d *Dog) Name() string { return d.name }

// Position returns the dog's current position.
func (d *Dog) Position() geom.Point2D { return d.pos }

// SetPosition moves the dog to pos.
func (d *Dog) SetPosition(pos geom.Point2D) { d.pos = pos }

// Speed returns the dog's current velocity.
func (d *Dog) Speed() geom.Vec2D { return d.speed }

// SetSpeed replaces the dog's velocity.
func (d *Dog) SetSpeed(speed geom.Vec2D) { d.speed = speed }

// Direction returns the facing direction.
func (d *Dog) Direction() Direction { return d.direction }

// SetDirection changes the facing direction.
func (d *Dog) SetDirection(dir Direction) { d.direction = dir }

// BagCapacity returns the total number of bag slots.
func (d *Dog) BagCapacity() int { return len(d.bag) }

// BagItems returns the occupied bag slots in slot order.
func (d *Dog) BagItems() []BagItem {
	items := make([]BagItem, 0, len(d.bag))
	for _, item := range d.bag {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items
}

// AddBagItem stores item in the first empty slot. It returns false when the
// bag is full.
func (d *Dog) AddBagItem(item BagItem) bool {
	for i, slot := range d.bag {
		if slot == nil {
			stored := item
			d.bag[i] = &stored
			return true
		}
	}
	return false
}

// ClearBag empties every slot and returns the number of items removed.
func (d *Dog) ClearBag() int {
	count := 0
	for i, slot := range d.bag {
		if slot != nil {
			count++
			d.bag[i] = nil
		}
	}
	return count
}
