package players

import (
	"errors"
	"fmt"
	"sort"

	"github.com/fetchworks/lostandfound/game/model"
)

// ErrDuplicateToken is returned when a restored token is already in use.
var ErrDuplicateToken = errors.New("duplicate auth token")

type dogKey struct {
	mapID string
	dogID uint64
}

// Registry owns every live player, indexed by token and by (map, dog). It
// is mutated only on the application strand.
type Registry struct {
	generate TokenGenerator
	byToken  map[Token]*Player
	byDog    map[dogKey]*Player
}

// NewRegistry creates an empty registry issuing tokens with generate.
func NewRegistry(generate TokenGenerator) *Registry {
	return &Registry{
		generate: generate,
		byToken:  make(map[Token]*Player),
		byDog:    make(map[dogKey]*Player),
	}
}

// Add creates a player for dog with a freshly issued token. A token
// collision draws again.
func (r *Registry) Add(session *model.GameSession, dog *model.Dog) *Player {
	token := r.generate()
	for _, taken := r.byToken[token]; taken; _, taken = r.byToken[token] {
		token = r.generate()
	}
	p := NewPlayer(token, session, dog)
	r.index(p)
	return p
}

// Restore re-attaches a player loaded from a snapshot under its saved
// token.
func (r *Registry) Restore(p *Player) error {
	if _, taken := r.byToken[p.Token()]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateToken, p.Token())
	}
	r.index(p)
	return nil
}

func (r *Registry) index(p *Player) {
	r.byToken[p.Token()] = p
	r.byDog[dogKey{mapID: p.Session().Map().ID(), dogID: p.Dog().ID()}] = p
}

// Remove detaches a player from both indexes. The caller removes the dog
// from its session.
func (r *Registry) Remove(p *Player) {
	delete(r.byToken, p.Token())
	delete(r.byDog, dogKey{mapID: p.Session().Map().ID(), dogID: p.Dog().ID()})
}

// FindByToken returns the player authenticated by token, or nil.
func (r *Registry) FindByToken(token Token) *Player {
	return r.byToken[token]
}

// FindByDog returns the player controlling the given dog, or nil.
func (r *Registry) FindByDog(mapID string, dogID uint64) *Player {
	return r.byDog[dogKey{mapID: mapID, dogID: dogID}]
}

// Players returns every live player ordered by map id, then dog id.
func (r *Registry) Players() []*Player {
	list := make([]*Player, 0, len(r.byToken))
	for _, p := range r.byToken {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		mi, mj := list[i].Session().Map().ID(), list[j].Session().Map().ID()
		if mi != mj {
			return mi < mj
		}
		return list[i].Dog().ID() < list[j].Dog().ID()
	})
	return list
}

// Count returns the number of live players.
func (r *Registry) Count() int { return len(r.byToken) }
