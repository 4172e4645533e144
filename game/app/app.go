// Package app ties the world model, player registry, loot generator and
// leaderboard together behind one facade. Every method that touches shared
// state expects to run on the application strand.
package app

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"log"
	"math/rand"
	"time"

	"github.com/fetchworks/lostandfound/game/loot"
	"github.com/fetchworks/lostandfound/game/model"
	"github.com/fetchworks/lostandfound/game/players"
)

const (
	defaultRetirementTime = 60 * time.Second
	recordWriteTimeout    = 5 * time.Second
)

// RecordStore receives a row for every retired player.
type RecordStore interface {
	AddPlayerScore(ctx context.Context, name string, score int, playTime time.Duration) error
}

// TickListener observes completed ticks.
type TickListener func(delta time.Duration)

// Options configure a new Application.
type Options struct {
	Game    *model.Game
	Records RecordStore // nil disables leaderboard persistence

	LootPeriod      time.Duration
	LootProbability float64
	RetirementTime  time.Duration // zero means the 60 s default

	RandomizeSpawn bool
	AutoTick       bool // reject external tick requests

	// Test seams. Nil picks entropy-seeded defaults.
	TokenGenerator players.TokenGenerator
	RandomSource   rand.Source
}

// Application is the single owner of all mutable game state.
type Application struct {
	game     *model.Game
	registry *players.Registry
	lootGen  *loot.Generator
	records  RecordStore
	rng      *rand.Rand

	retirementTime time.Duration
	randomizeSpawn bool
	autoTick       bool

	listeners []TickListener
}

// New assembles an application from opts.
func New(opts Options) *Application {
	tokenGen := opts.TokenGenerator
	if tokenGen == nil {
		tokenGen = players.NewTokenGenerator()
	}
	source := opts.RandomSource
	if source == nil {
		source = rand.NewSource(entropySeed())
	}
	retirement := opts.RetirementTime
	if retirement == 0 {
		retirement = defaultRetirementTime
	}
	lootPeriod := opts.LootPeriod
	if lootPeriod <= 0 {
		lootPeriod = time.Second
	}

	return &Application{
		game:           opts.Game,
		registry:       players.NewRegistry(tokenGen),
		lootGen:        loot.NewGenerator(lootPeriod, opts.LootProbability),
		records:        opts.Records,
		rng:            rand.New(source),
		retirementTime: retirement,
		randomizeSpawn: opts.RandomizeSpawn,
		autoTick:       opts.AutoTick,
	}
}

func entropySeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("app: seeding world rng: " + err.Error())
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

// Game returns the world model.
func (a *Application) Game() *model.Game { return a.game }

// Registry returns the player registry. The snapshotter walks it.
func (a *Application) Registry() *players.Registry { return a.registry }

// AutoTickEnabled reports whether the simulation is clocked internally.
func (a *Application) AutoTickEnabled() bool { return a.autoTick }

// Maps returns the configured maps in order.
func (a *Application) Maps() []*model.Map { return a.game.Maps() }

// FindMap returns the map with the given id, or nil.
func (a *Application) FindMap(id string) *model.Map { return a.game.FindMap(id) }

// JoinResult is what a successful join hands back to the client.
type JoinResult struct {
	Token    players.Token
	PlayerID uint64
}

// Join enters userName into the game on the given map: finds or creates
// the session, spawns a dog and issues a token.
func (a *Application) Join(userName, mapID string) (JoinResult, error) {
	if userName == "" {
		return JoinResult{}, ErrEmptyName
	}
	if a.game.FindMap(mapID) == nil {
		return JoinResult{}, ErrMapNotFound
	}
	session := a.game.Session(mapID)
	pos := session.SpawnPosition(a.randomizeSpawn, a.rng)
	dog := session.CreateDog(userName, pos)
	player := a.registry.Add(session, dog)
	return JoinResult{Token: player.Token(), PlayerID: dog.ID()}, nil
}

// Authorize resolves a parsed token to its player.
func (a *Application) Authorize(token players.Token) (*players.Player, error) {
	p := a.registry.FindByToken(token)
	if p == nil {
		return nil, ErrUnknownToken
	}
	return p, nil
}

// SessionPlayers returns every player sharing p's session, ordered by dog
// id.
func (a *Application) SessionPlayers(p *players.Player) []*players.Player {
	session := p.Session()
	mapID := session.Map().ID()
	dogs := session.Dogs()
	list := make([]*players.Player, 0, len(dogs))
	for _, dog := range dogs {
		if sp := a.registry.FindByDog(mapID, dog.ID()); sp != nil {
			list = append(list, sp)
		}
	}
	return list
}

// LostObjects returns the objects on the ground in p's session.
func (a *Application) LostObjects(p *players.Player) []*model.LostObject {
	return p.Session().LostObjects()
}

// Action applies a move command: one of the four direction letters, or the
// empty string to stop.
func (a *Application) Action(p *players.Player, move string) error {
	if move == "" {
		p.Stop()
		return nil
	}
	dir, err := model.DirectionFromString(move)
	if err != nil {
		return ErrInvalidDirection
	}
	p.SetDirection(dir)
	return nil
}

// OnTick subscribes fn to tick completions. Listeners run on the strand in
// subscription order.
func (a *Application) OnTick(fn TickListener) {
	a.listeners = append(a.listeners, fn)
}

// ExternalTick advances the simulation on behalf of the tick endpoint. It
// is rejected while the internal clock is running.
func (a *Application) ExternalTick(delta time.Duration) error {
	if a.autoTick {
		return ErrExternalTicksDisabled
	}
	return a.Tick(delta)
}

// appendRecord writes one retirement row, logging instead of failing the
// tick when the database is unavailable.
func (a *Application) appendRecord(p *players.Player) {
	if a.records == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordWriteTimeout)
	defer cancel()
	if err := a.records.AddPlayerScore(ctx, p.Dog().Name(), p.Score(), p.PlayTime()); err != nil {
		log.Printf("recording retirement of %q: %v", p.Dog().Name(), err)
	}
}
