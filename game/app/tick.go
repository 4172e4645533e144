package app

import (
	"time"

	"github.com/fetchworks/lostandfound/game/collision"
	"github.com/fetchworks/lostandfound/game/geom"
	"github.com/fetchworks/lostandfound/game/model"
	"github.com/fetchworks/lostandfound/game/players"
)

// dogRadius is the gather radius of a moving dog.
const dogRadius = 0.6

// Tick advances the simulation by delta: movement, collisions, scoring,
// loot generation and retirement, in that order, followed by listener
// notification.
func (a *Application) Tick(delta time.Duration) error {
	if delta < 0 {
		return ErrInvalidTime
	}

	for _, session := range a.game.Sessions() {
		a.tickSession(session, delta)
		a.generateLoot(session, delta)
	}
	a.retirePlayers(delta)

	for _, fn := range a.listeners {
		fn(delta)
	}
	return nil
}

// dogPlan is one dog's movement outcome, held back until collisions have
// been resolved against the travelled path.
type dogPlan struct {
	dog     *model.Dog
	player  *players.Player
	next    geom.Point2D
	stopped bool
}

func (a *Application) tickSession(session *model.GameSession, delta time.Duration) {
	m := session.Map()
	dogs := session.Dogs()

	plans := make([]dogPlan, 0, len(dogs))
	gatherers := make([]collision.Gatherer, 0, len(dogs))
	for _, dog := range dogs {
		next, stopped := m.MoveDog(dog.Position(), dog.Speed(), dog.Direction(), delta.Seconds())
		plans = append(plans, dogPlan{
			dog:     dog,
			player:  a.registry.FindByDog(m.ID(), dog.ID()),
			next:    next,
			stopped: stopped,
		})
		gatherers = append(gatherers, collision.Gatherer{
			Start:  dog.Position(),
			End:    next,
			Radius: dogRadius,
		})
	}

	// Items are offices first, then the lost objects; the index partition
	// tells deposits apart from pickups.
	offices := m.Offices()
	objects := session.LostObjects()
	items := make([]collision.Item, 0, len(offices)+len(objects))
	for _, o := range offices {
		items = append(items, collision.Item{
			Pos:    geom.Point2D{X: float64(o.Position.X), Y: float64(o.Position.Y)},
			Radius: model.OfficeRadius,
		})
	}
	for _, obj := range objects {
		items = append(items, collision.Item{Pos: obj.Pos})
	}

	taken := make(map[int]bool)
	for _, ev := range collision.FindGatherEvents(gatherers, items) {
		plan := &plans[ev.GathererIndex]
		if ev.ItemIndex < len(offices) {
			a.depositBag(plan, m)
			continue
		}
		obj := objects[ev.ItemIndex-len(offices)]
		if taken[obj.ID] {
			continue
		}
		if plan.dog.AddBagItem(model.BagItem{ID: obj.ID, Type: obj.Type}) {
			taken[obj.ID] = true
		}
	}
	for id := range taken {
		session.RemoveLostObject(id)
	}

	for _, plan := range plans {
		plan.dog.SetPosition(plan.next)
		if plan.stopped {
			plan.dog.SetSpeed(geom.Vec2D{})
		}
	}
}

func (a *Application) depositBag(plan *dogPlan, m *model.Map) {
	if plan.player != nil {
		for _, item := range plan.dog.BagItems() {
			plan.player.AddScore(m.LootValue(item.Type))
		}
	}
	plan.dog.ClearBag()
}

func (a *Application) generateLoot(session *model.GameSession, delta time.Duration) {
	m := session.Map()
	if m.LootTypeCount() == 0 {
		return
	}
	count := a.lootGen.Generate(delta, session.LostObjectCount(), session.DogCount())
	for i := 0; i < count; i++ {
		lootType := a.rng.Intn(m.LootTypeCount())
		session.AddLostObject(lootType, m.LootValue(lootType), session.RandomRoadPosition(a.rng))
	}
}

func (a *Application) retirePlayers(delta time.Duration) {
	for _, p := range a.registry.Players() {
		if !p.AccumulateTime(delta, a.retirementTime) {
			continue
		}
		a.registry.Remove(p)
		p.Session().RemoveDog(p.Dog().ID())
		a.appendRecord(p)
	}
}
