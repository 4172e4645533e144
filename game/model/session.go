package model

import (
	"math/rand"
	"sort"

	"github.com/fetchworks/lostandfound/game/geom"
)

// LostObject is a dropped item lying on a road waiting to be picked up.
// Value is the score awarded when the object reaches an office.
type LostObject struct {
	ID    int
	Type  int
	Pos   geom.Point2D
	Value int
}

// GameSession holds the live state of one map: the dogs playing on it and
// the lost objects currently on the ground. All mutation happens on the
// application strand, so the session itself is not synchronized.
type GameSession struct {
	gameMap *Map

	dogs      map[uint64]*Dog
	nextDogID uint64

	lostObjects  map[int]*LostObject
	nextObjectID int
}

// NewGameSession creates an empty session bound to m.
func NewGameSession(m *Map) *GameSession {
	return &GameSession{
		gameMap:     m,
		dogs:        make(map[uint64]*Dog),
		lostObjects: make(map[int]*LostObject),
	}
}

// Map returns the map the session runs on.
func (s *GameSession) Map() *Map { return s.gameMap }

// CreateDog spawns a dog at pos with a fresh id and the map's bag capacity.
func (s *GameSession) CreateDog(name string, pos geom.Point2D) *Dog {
	dog := NewDog(s.nextDogID, name, pos, geom.Vec2D{}, s.gameMap.BagCapacity())
	s.nextDogID++
	s.dogs[dog.ID()] = dog
	return dog
}

// RestoreDog re-attaches a dog loaded from a snapshot, keeping the id
// counter ahead of every restored id.
func (s *GameSession) RestoreDog(dog *Dog) {
	s.dogs[dog.ID()] = dog
	if dog.ID() >= s.nextDogID {
		s.nextDogID = dog.ID() + 1
	}
}

// RemoveDog detaches the dog with the given id, if present.
func (s *GameSession) RemoveDog(id uint64) {
	delete(s.dogs, id)
}

// Dog returns the dog with the given id, or nil.
func (s *GameSession) Dog(id uint64) *Dog {
	return s.dogs[id]
}

// Dogs returns the session's dogs ordered by id.
func (s *GameSession) Dogs() []*Dog {
	dogs := make([]*Dog, 0, len(s.dogs))
	for _, d := range s.dogs {
		dogs = append(dogs, d)
	}
	sort.Slice(dogs, func(i, j int) bool { return dogs[i].ID() < dogs[j].ID() })
	return dogs
}

// DogCount returns the number of dogs in the session.
func (s *GameSession) DogCount() int { return len(s.dogs) }

// AddLostObject drops a new object of the given type at pos and returns it.
func (s *GameSession) AddLostObject(lootType int, value int, pos geom.Point2D) *LostObject {
	obj := &LostObject{ID: s.nextObjectID, Type: lootType, Pos: pos, Value: value}
	s.nextObjectID++
	s.lostObjects[obj.ID] = obj
	return obj
}

// RestoreLostObject re-attaches an object loaded from a snapshot.
func (s *GameSession) RestoreLostObject(obj *LostObject) {
	s.lostObjects[obj.ID] = obj
	if obj.ID >= s.nextObjectID {
		s.nextObjectID = obj.ID + 1
	}
}

// RemoveLostObject picks the object with the given id off the ground.
func (s *GameSession) RemoveLostObject(id int) {
	delete(s.lostObjects, id)
}

// LostObjects returns the objects on the ground ordered by id.
func (s *GameSession) LostObjects() []*LostObject {
	objs := make([]*LostObject, 0, len(s.lostObjects))
	for _, o := range s.lostObjects {
		objs = append(objs, o)
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].ID < objs[j].ID })
	return objs
}

// LostObjectCount returns the number of objects on the ground.
func (s *GameSession) LostObjectCount() int { return len(s.lostObjects) }

// RandomRoadPosition returns a uniformly chosen point on a uniformly chosen
// road of the session's map.
func (s *GameSession) RandomRoadPosition(rng *rand.Rand) geom.Point2D {
	roads := s.gameMap.Roads()
	road := roads[rng.Intn(len(roads))]
	start, end := road.StartPos(), road.EndPos()
	t := rng.Float64()
	return geom.Point2D{
		X: start.X + (end.X-start.X)*t,
		Y: start.Y + (end.Y-start.Y)*t,
	}
}

// SpawnPosition picks where a new dog appears: the start of the first road,
// or a random road point when randomize is set.
func (s *GameSession) SpawnPosition(randomize bool, rng *rand.Rand) geom.Point2D {
	if randomize {
		return s.RandomRoadPosition(rng)
	}
	return s.gameMap.Roads()[0].StartPos()
}
