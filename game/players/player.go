package players

import (
	"time"

	"github.com/fetchworks/lostandfound/game/geom"
	"github.com/fetchworks/lostandfound/game/model"
)

// Player binds a dog to its session and carries the state that outlives a
// single tick: score and the play/stop time accumulators.
type Player struct {
	token   Token
	session *model.GameSession
	dog     *model.Dog

	score    int
	liveTime time.Duration
	stopTime time.Duration
}

// NewPlayer creates a player for a dog already attached to session.
func NewPlayer(token Token, session *model.GameSession, dog *model.Dog) *Player {
	return &Player{token: token, session: session, dog: dog}
}

// Token returns the player's auth token.
func (p *Player) Token() Token { return p.token }

// Session returns the session the player's dog lives in.
func (p *Player) Session() *model.GameSession { return p.session }

// Dog returns the player's avatar.
func (p *Player) Dog() *model.Dog { return p.dog }

// ID returns the wire-visible player id, which is the dog's id.
func (p *Player) ID() uint64 { return p.dog.ID() }

// Score returns the player's accumulated score.
func (p *Player) Score() int { return p.score }

// AddScore adds points earned from delivered loot.
func (p *Player) AddScore(points int) { p.score += points }

// SetScore overwrites the score when restoring from a snapshot.
func (p *Player) SetScore(score int) { p.score = score }

// SetDirection turns the dog to face dir and sets its velocity to the
// map's dog speed along that direction.
func (p *Player) SetDirection(dir model.Direction) {
	p.dog.SetDirection(dir)
	s := p.session.Map().DogSpeed()
	switch dir {
	case model.North:
		p.dog.SetSpeed(geom.Vec2D{Y: -s})
	case model.South:
		p.dog.SetSpeed(geom.Vec2D{Y: s})
	case model.West:
		p.dog.SetSpeed(geom.Vec2D{X: -s})
	case model.East:
		p.dog.SetSpeed(geom.Vec2D{X: s})
	}
}

// Stop zeroes the dog's velocity, leaving its facing direction unchanged.
func (p *Player) Stop() {
	p.dog.SetSpeed(geom.Vec2D{})
}

// AccumulateTime records dt against the player's clocks and reports whether
// the player's continuous stopped time has reached threshold. A tick spent
// moving folds any previous stopped stretch into live time.
func (p *Player) AccumulateTime(dt, threshold time.Duration) (retire bool) {
	if p.dog.Speed().IsZero() {
		if p.stopTime+dt >= threshold {
			p.stopTime = threshold
			return true
		}
		p.stopTime += dt
		return false
	}
	p.liveTime += p.stopTime + dt
	p.stopTime = 0
	return false
}

// PlayTime returns the total time the player has been in the game, the
// current stopped stretch included.
func (p *Player) PlayTime() time.Duration {
	return p.liveTime + p.stopTime
}

// RestoreClocks overwrites the accumulators when loading a snapshot.
func (p *Player) RestoreClocks(live, stop time.Duration) {
	p.liveTime = live
	p.stopTime = stop
}

// Clocks returns the live and stop accumulators for snapshotting.
func (p *Player) Clocks() (live, stop time.Duration) {
	return p.liveTime, p.stopTime
}
