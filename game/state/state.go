// Package state saves the live world to a file and restores it on startup.
// Snapshots are JSON with a version tag, written atomically so a crash
// mid-save never corrupts the previous snapshot.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fetchworks/lostandfound/game/app"
	"github.com/fetchworks/lostandfound/game/geom"
	"github.com/fetchworks/lostandfound/game/model"
	"github.com/fetchworks/lostandfound/game/players"
)

// snapshotVersion is bumped on every incompatible format change. Restore
// rejects anything else outright.
const snapshotVersion = 1

var (
	// ErrVersionMismatch is returned when the snapshot was written by a
	// different format version.
	ErrVersionMismatch = errors.New("snapshot version mismatch")
	// ErrStateMismatch is returned when the snapshot disagrees with the
	// loaded config.
	ErrStateMismatch = errors.New("snapshot does not match config")
)

type bagItemState struct {
	ID   int `json:"id"`
	Type int `json:"type"`
}

type dogState struct {
	ID          uint64       `json:"id"`
	Name        string       `json:"name"`
	Pos         geom.Point2D `json:"pos"`
	BagCapacity int          `json:"bagCapacity"`
	Speed       geom.Vec2D   `json:"speed"`
	Direction   string       `json:"dir"`
	Bag         []bagItemState `json:"bag"`
}

type playerState struct {
	DogID  uint64 `json:"dogId"`
	Token  string `json:"token"`
	Score  int    `json:"score"`
	LiveMS int64  `json:"liveTimeMs"`
	StopMS int64  `json:"stopTimeMs"`
}

type lostObjectState struct {
	ID   int          `json:"id"`
	Type int          `json:"type"`
	Pos  geom.Point2D `json:"pos"`
}

type sessionState struct {
	MapID       string            `json:"mapId"`
	TypeCount   int               `json:"typeCount"`
	LostObjects []lostObjectState `json:"lostObjects"`
	Dogs        []dogState        `json:"dogs"`
	Players     []playerState     `json:"players"`
}

type snapshot struct {
	Version  int            `json:"version"`
	Sessions []sessionState `json:"sessions"`
}

// Saver persists an application's world to a state file.
type Saver struct {
	app    *app.Application
	path   string
	period time.Duration

	sinceSave time.Duration
}

// NewSaver creates a saver writing to path. A positive period enables
// periodic saves driven by HandleTick.
func NewSaver(a *app.Application, path string, period time.Duration) *Saver {
	return &Saver{app: a, path: path, period: period}
}

// HandleTick accumulates simulated time and saves once the configured
// period has passed. Save failures are logged and retried after the next
// period.
func (s *Saver) HandleTick(delta time.Duration) {
	if s.period <= 0 {
		return
	}
	s.sinceSave += delta
	if s.sinceSave < s.period {
		return
	}
	s.sinceSave = 0
	if err := s.Save(); err != nil {
		log.Printf("saving state: %v", err)
	}
}

// Save writes the current world to the state file: first to a temp file,
// fsynced, then renamed over the target.
func (s *Saver) Save() error {
	doc := snapshot{Version: snapshotVersion}
	for _, session := range s.app.Game().Sessions() {
		doc.Sessions = append(doc.Sessions, s.captureSession(session))
	}

	tmpPath := s.path + "_tmp.state"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmpPath, err)
	}
	enc := json.NewEncoder(f)
	if err := enc.Encode(doc); err != nil {
		f.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

func (s *Saver) captureSession(session *model.GameSession) sessionState {
	m := session.Map()
	ss := sessionState{
		MapID:     m.ID(),
		TypeCount: m.LootTypeCount(),
	}
	for _, obj := range session.LostObjects() {
		ss.LostObjects = append(ss.LostObjects, lostObjectState{
			ID: obj.ID, Type: obj.Type, Pos: obj.Pos,
		})
	}
	for _, dog := range session.Dogs() {
		ds := dogState{
			ID:          dog.ID(),
			Name:        dog.Name(),
			Pos:         dog.Position(),
			BagCapacity: dog.BagCapacity(),
			Speed:       dog.Speed(),
			Direction:   dog.Direction().String(),
		}
		for _, item := range dog.BagItems() {
			ds.Bag = append(ds.Bag, bagItemState{ID: item.ID, Type: item.Type})
		}
		ss.Dogs = append(ss.Dogs, ds)

		if p := s.app.Registry().FindByDog(m.ID(), dog.ID()); p != nil {
			live, stop := p.Clocks()
			ss.Players = append(ss.Players, playerState{
				DogID:  dog.ID(),
				Token:  string(p.Token()),
				Score:  p.Score(),
				LiveMS: live.Milliseconds(),
				StopMS: stop.Milliseconds(),
			})
		}
	}
	return ss
}

// Restore loads the state file into the application. A missing file is not
// an error; anything inconsistent with the loaded config is.
func (s *Saver) Restore() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	var doc snapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}
	if doc.Version != snapshotVersion {
		return fmt.Errorf("%w: snapshot has version %d, want %d",
			ErrVersionMismatch, doc.Version, snapshotVersion)
	}

	for _, ss := range doc.Sessions {
		if err := s.restoreSession(ss); err != nil {
			return err
		}
	}
	return nil
}

func (s *Saver) restoreSession(ss sessionState) error {
	m := s.app.Game().FindMap(ss.MapID)
	if m == nil {
		return fmt.Errorf("%w: unknown map %q", ErrStateMismatch, ss.MapID)
	}
	if ss.TypeCount != m.LootTypeCount() {
		return fmt.Errorf("%w: map %q has %d loot types, snapshot has %d",
			ErrStateMismatch, ss.MapID, m.LootTypeCount(), ss.TypeCount)
	}
	session := s.app.Game().Session(ss.MapID)

	for _, obj := range ss.LostObjects {
		if obj.Type < 0 || obj.Type >= m.LootTypeCount() {
			return fmt.Errorf("%w: map %q lost object %d has type %d out of range",
				ErrStateMismatch, ss.MapID, obj.ID, obj.Type)
		}
		if !m.OnRoads(obj.Pos) {
			return fmt.Errorf("%w: map %q lost object %d lies off the roads",
				ErrStateMismatch, ss.MapID, obj.ID)
		}
		session.RestoreLostObject(&model.LostObject{
			ID: obj.ID, Type: obj.Type, Pos: obj.Pos, Value: m.LootValue(obj.Type),
		})
	}

	playerByDog := make(map[uint64]playerState, len(ss.Players))
	for _, ps := range ss.Players {
		playerByDog[ps.DogID] = ps
	}

	for _, ds := range ss.Dogs {
		if ds.BagCapacity != m.BagCapacity() {
			return fmt.Errorf("%w: map %q dog %d has bag capacity %d, config says %d",
				ErrStateMismatch, ss.MapID, ds.ID, ds.BagCapacity, m.BagCapacity())
		}
		if !m.OnRoads(ds.Pos) {
			return fmt.Errorf("%w: map %q dog %d lies off the roads",
				ErrStateMismatch, ss.MapID, ds.ID)
		}
		dir, err := model.DirectionFromString(ds.Direction)
		if err != nil {
			return fmt.Errorf("%w: map %q dog %d: %v", ErrStateMismatch, ss.MapID, ds.ID, err)
		}

		dog := model.NewDog(ds.ID, ds.Name, ds.Pos, ds.Speed, ds.BagCapacity)
		dog.SetDirection(dir)
		for _, item := range ds.Bag {
			if item.Type < 0 || item.Type >= m.LootTypeCount() {
				return fmt.Errorf("%w: map %q dog %d carries type %d out of range",
					ErrStateMismatch, ss.MapID, ds.ID, item.Type)
			}
			if !dog.AddBagItem(model.BagItem{ID: item.ID, Type: item.Type}) {
				return fmt.Errorf("%w: map %q dog %d carries more than %d items",
					ErrStateMismatch, ss.MapID, ds.ID, m.BagCapacity())
			}
		}
		session.RestoreDog(dog)

		ps, ok := playerByDog[ds.ID]
		if !ok {
			continue
		}
		p := players.NewPlayer(players.Token(ps.Token), session, dog)
		p.SetScore(ps.Score)
		p.RestoreClocks(
			time.Duration(ps.LiveMS)*time.Millisecond,
			time.Duration(ps.StopMS)*time.Millisecond,
		)
		if err := s.app.Registry().Restore(p); err != nil {
			return fmt.Errorf("%w: map %q dog %d: %v", ErrStateMismatch, ss.MapID, ds.ID, err)
		}
	}
	return nil
}
