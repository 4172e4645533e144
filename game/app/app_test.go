package app

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fetchworks/lostandfound/game/geom"
	"github.com/fetchworks/lostandfound/game/model"
)

type recordedRetirement struct {
	name     string
	score    int
	playTime time.Duration
}

type fakeRecordStore struct {
	rows []recordedRetirement
	err  error
}

func (f *fakeRecordStore) AddPlayerScore(_ context.Context, name string, score int, playTime time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, recordedRetirement{name: name, score: score, playTime: playTime})
	return nil
}

func deliveryGame(t *testing.T) *model.Game {
	t.Helper()
	m := model.NewMap("town", "Town", 1, 3)
	m.AddRoad(model.NewHorizontalRoad(model.Point{X: 0, Y: 0}, 10))
	require.NoError(t, m.AddOffice(model.Office{ID: "o0", Position: model.Point{X: 10, Y: 0}}))
	m.SetLootValues([]int{5, 3})

	g := model.NewGame()
	require.NoError(t, g.AddMap(m))
	return g
}

func newTestApp(t *testing.T, opts Options) *Application {
	t.Helper()
	if opts.Game == nil {
		opts.Game = deliveryGame(t)
	}
	if opts.RandomSource == nil {
		opts.RandomSource = rand.NewSource(1)
	}
	return New(opts)
}

func TestJoinValidation(t *testing.T) {
	a := newTestApp(t, Options{})

	_, err := a.Join("", "town")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = a.Join("Rex", "nowhere")
	assert.ErrorIs(t, err, ErrMapNotFound)
}

func TestJoinIssuesTokenAndSpawnsDog(t *testing.T) {
	a := newTestApp(t, Options{})

	res, err := a.Join("Rex", "town")
	require.NoError(t, err)
	assert.True(t, res.Token.IsValid())
	assert.Equal(t, uint64(0), res.PlayerID)

	p, err := a.Authorize(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "Rex", p.Dog().Name())
	assert.Equal(t, geom.Point2D{X: 0, Y: 0}, p.Dog().Position())
	assert.True(t, p.Dog().Speed().IsZero())

	_, err = a.Authorize("00000000000000000000000000000000")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestActionSetsAndClearsVelocity(t *testing.T) {
	a := newTestApp(t, Options{})
	res, err := a.Join("Rex", "town")
	require.NoError(t, err)
	p, err := a.Authorize(res.Token)
	require.NoError(t, err)

	require.NoError(t, a.Action(p, "R"))
	assert.Equal(t, geom.Vec2D{X: 1}, p.Dog().Speed())
	assert.Equal(t, model.East, p.Dog().Direction())

	require.NoError(t, a.Action(p, ""))
	assert.True(t, p.Dog().Speed().IsZero())
	assert.Equal(t, model.East, p.Dog().Direction())

	assert.ErrorIs(t, a.Action(p, "X"), ErrInvalidDirection)
}

func TestTickRejectsNegativeDelta(t *testing.T) {
	a := newTestApp(t, Options{})
	assert.ErrorIs(t, a.Tick(-time.Millisecond), ErrInvalidTime)
	assert.NoError(t, a.Tick(0))
}

func TestPickupAndOfficeDeposit(t *testing.T) {
	a := newTestApp(t, Options{})
	res, err := a.Join("Rex", "town")
	require.NoError(t, err)
	p, err := a.Authorize(res.Token)
	require.NoError(t, err)

	session := a.Game().Session("town")
	session.AddLostObject(0, 5, geom.Point2D{X: 3, Y: 0})
	session.AddLostObject(1, 3, geom.Point2D{X: 7, Y: 0})

	require.NoError(t, a.Action(p, "R"))
	require.NoError(t, a.Tick(11*time.Second))

	assert.Equal(t, geom.Point2D{X: 10.4, Y: 0}, p.Dog().Position())
	assert.True(t, p.Dog().Speed().IsZero())
	assert.Empty(t, p.Dog().BagItems())
	assert.Equal(t, 8, p.Score())
	assert.Zero(t, session.LostObjectCount())
}

func TestFullBagLeavesObjectsOnGround(t *testing.T) {
	g := deliveryGame(t)
	m := model.NewMap("small", "Small", 1, 1)
	m.AddRoad(model.NewHorizontalRoad(model.Point{X: 0, Y: 0}, 10))
	m.SetLootValues([]int{5})
	require.NoError(t, g.AddMap(m))

	a := newTestApp(t, Options{Game: g})
	res, err := a.Join("Rex", "small")
	require.NoError(t, err)
	p, err := a.Authorize(res.Token)
	require.NoError(t, err)

	session := a.Game().Session("small")
	session.AddLostObject(0, 5, geom.Point2D{X: 2, Y: 0})
	session.AddLostObject(0, 5, geom.Point2D{X: 4, Y: 0})

	require.NoError(t, a.Action(p, "R"))
	require.NoError(t, a.Tick(6*time.Second))

	require.Len(t, p.Dog().BagItems(), 1)
	assert.Equal(t, 1, session.LostObjectCount())
}

func TestLootGenerationSpawnsOnRoads(t *testing.T) {
	a := newTestApp(t, Options{
		LootPeriod:      5 * time.Second,
		LootProbability: 1,
	})
	_, err := a.Join("Rex", "town")
	require.NoError(t, err)

	require.NoError(t, a.Tick(5*time.Second))

	session := a.Game().Session("town")
	require.Equal(t, 1, session.LostObjectCount())
	obj := session.LostObjects()[0]
	assert.True(t, session.Map().OnRoads(obj.Pos))
	assert.GreaterOrEqual(t, obj.Type, 0)
	assert.Less(t, obj.Type, 2)
	assert.Equal(t, session.Map().LootValue(obj.Type), obj.Value)
}

func TestRetirementAppendsRecordAndRemovesPlayer(t *testing.T) {
	store := &fakeRecordStore{}
	a := newTestApp(t, Options{Records: store, RetirementTime: 60 * time.Second})

	res, err := a.Join("Rex", "town")
	require.NoError(t, err)

	require.NoError(t, a.Tick(30*time.Second))
	assert.Empty(t, store.rows)

	require.NoError(t, a.Tick(30*time.Second))
	require.Len(t, store.rows, 1)
	assert.Equal(t, "Rex", store.rows[0].name)
	assert.Equal(t, 0, store.rows[0].score)
	assert.Equal(t, 60*time.Second, store.rows[0].playTime)

	_, err = a.Authorize(res.Token)
	assert.ErrorIs(t, err, ErrUnknownToken)
	assert.Zero(t, a.Game().Session("town").DogCount())
}

func TestRetirementSurvivesRecordStoreFailure(t *testing.T) {
	store := &fakeRecordStore{err: context.DeadlineExceeded}
	a := newTestApp(t, Options{Records: store, RetirementTime: time.Second})

	res, err := a.Join("Rex", "town")
	require.NoError(t, err)

	require.NoError(t, a.Tick(time.Second))
	_, err = a.Authorize(res.Token)
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestMovingPlayerIsNotRetired(t *testing.T) {
	store := &fakeRecordStore{}
	a := newTestApp(t, Options{Records: store, RetirementTime: 2 * time.Second})

	res, err := a.Join("Rex", "town")
	require.NoError(t, err)
	p, err := a.Authorize(res.Token)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		dir := "R"
		if p.Dog().Position().X > 5 {
			dir = "L"
		}
		require.NoError(t, a.Action(p, dir))
		require.NoError(t, a.Tick(time.Second))
	}
	assert.Empty(t, store.rows)
	assert.Equal(t, 1, a.Game().Session("town").DogCount())
}

func TestExternalTickRejectedWithAutoTick(t *testing.T) {
	a := newTestApp(t, Options{AutoTick: true})
	assert.ErrorIs(t, a.ExternalTick(time.Second), ErrExternalTicksDisabled)

	manual := newTestApp(t, Options{})
	assert.NoError(t, manual.ExternalTick(time.Second))
}

func TestOnTickListenersRunInOrder(t *testing.T) {
	a := newTestApp(t, Options{})

	var got []string
	a.OnTick(func(delta time.Duration) { got = append(got, "first:"+delta.String()) })
	a.OnTick(func(delta time.Duration) { got = append(got, "second:"+delta.String()) })

	require.NoError(t, a.Tick(time.Second))
	assert.Equal(t, []string{"first:1s", "second:1s"}, got)
}

func TestSessionPlayersListsOnlySameMap(t *testing.T) {
	g := deliveryGame(t)
	other := model.NewMap("village", "Village", 1, 3)
	other.AddRoad(model.NewHorizontalRoad(model.Point{X: 0, Y: 0}, 5))
	require.NoError(t, g.AddMap(other))

	a := newTestApp(t, Options{Game: g})
	first, err := a.Join("A", "town")
	require.NoError(t, err)
	_, err = a.Join("B", "town")
	require.NoError(t, err)
	_, err = a.Join("C", "village")
	require.NoError(t, err)

	p, err := a.Authorize(first.Token)
	require.NoError(t, err)
	list := a.SessionPlayers(p)
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Dog().Name())
	assert.Equal(t, "B", list[1].Dog().Name())
}
