package state

import (
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fetchworks/lostandfound/game/app"
	"github.com/fetchworks/lostandfound/game/geom"
	"github.com/fetchworks/lostandfound/game/model"
)

func townGame(t *testing.T) *model.Game {
	t.Helper()
	m := model.NewMap("town", "Town", 2, 3)
	m.AddRoad(model.NewHorizontalRoad(model.Point{X: 0, Y: 0}, 10))
	require.NoError(t, m.AddOffice(model.Office{ID: "o0", Position: model.Point{X: 10, Y: 0}}))
	m.SetLootValues([]int{5, 3})

	g := model.NewGame()
	require.NoError(t, g.AddMap(m))
	return g
}

func townApp(t *testing.T) *app.Application {
	t.Helper()
	return app.New(app.Options{Game: townGame(t), RandomSource: rand.NewSource(1)})
}

func statePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "game.state")
}

func populate(t *testing.T, a *app.Application) {
	t.Helper()
	res, err := a.Join("Rex", "town")
	require.NoError(t, err)
	p, err := a.Authorize(res.Token)
	require.NoError(t, err)
	require.NoError(t, a.Action(p, "R"))

	session := a.Game().Session("town")
	session.AddLostObject(1, 3, geom.Point2D{X: 7, Y: 0})
	session.AddLostObject(0, 5, geom.Point2D{X: 1, Y: 0})
	require.NoError(t, a.Tick(2*time.Second))

	_, err = a.Join("Fido", "town")
	require.NoError(t, err)
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	path := statePath(t)
	original := townApp(t)
	populate(t, original)
	require.NoError(t, NewSaver(original, path, 0).Save())

	restored := townApp(t)
	require.NoError(t, NewSaver(restored, path, 0).Restore())

	origSession := original.Game().Session("town")
	session := restored.Game().FindSession("town")
	require.NotNil(t, session)
	require.Equal(t, origSession.DogCount(), session.DogCount())
	require.Equal(t, origSession.LostObjectCount(), session.LostObjectCount())

	for _, origDog := range origSession.Dogs() {
		dog := session.Dog(origDog.ID())
		require.NotNil(t, dog)
		assert.Equal(t, origDog.Name(), dog.Name())
		assert.Equal(t, origDog.Position(), dog.Position())
		assert.Equal(t, origDog.Speed(), dog.Speed())
		assert.Equal(t, origDog.Direction(), dog.Direction())
		assert.Equal(t, origDog.BagItems(), dog.BagItems())

		origPlayer := original.Registry().FindByDog("town", origDog.ID())
		p := restored.Registry().FindByDog("town", dog.ID())
		require.NotNil(t, p)
		assert.Equal(t, origPlayer.Token(), p.Token())
		assert.Equal(t, origPlayer.Score(), p.Score())
		assert.Equal(t, origPlayer.PlayTime(), p.PlayTime())
	}
}

func TestSnapshotStableAcrossRoundTrip(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.state")
	second := filepath.Join(dir, "second.state")

	original := townApp(t)
	populate(t, original)
	require.NoError(t, NewSaver(original, first, 0).Save())

	restored := townApp(t)
	require.NoError(t, NewSaver(restored, first, 0).Restore())
	require.NoError(t, NewSaver(restored, second, 0).Save())

	var before, after map[string]any
	firstData, err := os.ReadFile(first)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(firstData, &before))
	secondData, err := os.ReadFile(second)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(secondData, &after))

	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("snapshot changed across save/restore/save (-first +second):\n%s", diff)
	}
}

func TestRestoredDogGetsFreshIDs(t *testing.T) {
	path := statePath(t)
	original := townApp(t)
	populate(t, original)
	require.NoError(t, NewSaver(original, path, 0).Save())

	restored := townApp(t)
	require.NoError(t, NewSaver(restored, path, 0).Restore())

	res, err := restored.Join("Late", "town")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.PlayerID)
}

func TestRestoreMissingFileIsNoop(t *testing.T) {
	a := townApp(t)
	require.NoError(t, NewSaver(a, statePath(t), 0).Restore())
	assert.Nil(t, a.Game().FindSession("town"))
}

func TestRestoreRejectsWrongVersion(t *testing.T) {
	path := statePath(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99, "sessions": []}`), 0o644))

	err := NewSaver(townApp(t), path, 0).Restore()
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func writeSnapshot(t *testing.T, path string, doc map[string]any) {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestRestoreRejectsConfigMismatches(t *testing.T) {
	dogOK := map[string]any{
		"id": 0, "name": "Rex", "pos": map[string]float64{"x": 1, "y": 0},
		"bagCapacity": 3, "speed": map[string]float64{"x": 0, "y": 0}, "dir": "U",
	}
	tests := []struct {
		name    string
		session map[string]any
	}{
		{"unknown map", map[string]any{"mapId": "nowhere", "typeCount": 2}},
		{"type count mismatch", map[string]any{"mapId": "town", "typeCount": 5}},
		{"bag capacity mismatch", map[string]any{
			"mapId": "town", "typeCount": 2,
			"dogs": []any{map[string]any{
				"id": 0, "name": "Rex", "pos": map[string]float64{"x": 1, "y": 0},
				"bagCapacity": 9, "speed": map[string]float64{"x": 0, "y": 0}, "dir": "U",
			}},
		}},
		{"dog off roads", map[string]any{
			"mapId": "town", "typeCount": 2,
			"dogs": []any{map[string]any{
				"id": 0, "name": "Rex", "pos": map[string]float64{"x": 5, "y": 5},
				"bagCapacity": 3, "speed": map[string]float64{"x": 0, "y": 0}, "dir": "U",
			}},
		}},
		{"bag overflows capacity", map[string]any{
			"mapId": "town", "typeCount": 2,
			"dogs": []any{map[string]any{
				"id": 0, "name": "Rex", "pos": map[string]float64{"x": 1, "y": 0},
				"bagCapacity": 3, "speed": map[string]float64{"x": 0, "y": 0}, "dir": "U",
				"bag": []any{
					map[string]any{"id": 0, "type": 0},
					map[string]any{"id": 1, "type": 1},
					map[string]any{"id": 2, "type": 0},
					map[string]any{"id": 3, "type": 1},
				},
			}},
		}},
		{"object type out of range", map[string]any{
			"mapId": "town", "typeCount": 2,
			"lostObjects": []any{map[string]any{
				"id": 0, "type": 7, "pos": map[string]float64{"x": 1, "y": 0},
			}},
		}},
		{"object off roads", map[string]any{
			"mapId": "town", "typeCount": 2,
			"lostObjects": []any{map[string]any{
				"id": 0, "type": 1, "pos": map[string]float64{"x": 5, "y": 5},
			}},
		}},
		{"duplicate token", map[string]any{
			"mapId": "town", "typeCount": 2,
			"dogs": []any{dogOK, map[string]any{
				"id": 1, "name": "Fido", "pos": map[string]float64{"x": 2, "y": 0},
				"bagCapacity": 3, "speed": map[string]float64{"x": 0, "y": 0}, "dir": "U",
			}},
			"players": []any{
				map[string]any{"dogId": 0, "token": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "score": 0},
				map[string]any{"dogId": 1, "token": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "score": 0},
			},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := statePath(t)
			writeSnapshot(t, path, map[string]any{
				"version":  1,
				"sessions": []any{tc.session},
			})
			err := NewSaver(townApp(t), path, 0).Restore()
			assert.ErrorIs(t, err, ErrStateMismatch)
		})
	}
}

func TestSaveLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.state")
	a := townApp(t)
	populate(t, a)
	require.NoError(t, NewSaver(a, path, 0).Save())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "game.state", entries[0].Name())
}

func TestHandleTickSavesPeriodically(t *testing.T) {
	path := statePath(t)
	a := townApp(t)
	populate(t, a)

	saver := NewSaver(a, path, 5*time.Second)
	saver.HandleTick(2 * time.Second)
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	saver.HandleTick(3 * time.Second)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
