package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fetchworks/lostandfound/game/model"
)

const (
	defaultDogSpeed       = 1.0
	defaultBagCapacity    = 3
	defaultRetirementSecs = 60.0
)

// ErrInvalidConfig wraps every config validation failure.
var ErrInvalidConfig = errors.New("invalid config")

type lootGeneratorJSON struct {
	Period      float64 `json:"period"`
	Probability float64 `json:"probability"`
}

type roadJSON struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1"`
	Y1 *int `json:"y1"`
}

type buildingJSON struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type officeJSON struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	OffsetX int    `json:"offsetX"`
	OffsetY int    `json:"offsetY"`
}

type mapJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DogSpeed    *float64        `json:"dogSpeed"`
	BagCapacity *int            `json:"bagCapacity"`
	Roads       []roadJSON      `json:"roads"`
	Buildings   []buildingJSON  `json:"buildings"`
	Offices     []officeJSON    `json:"offices"`
	LootTypes   json.RawMessage `json:"lootTypes"`
}

type fileJSON struct {
	DefaultDogSpeed     *float64          `json:"defaultDogSpeed"`
	DefaultBagCapacity  *int              `json:"defaultBagCapacity"`
	LootGeneratorConfig lootGeneratorJSON `json:"lootGeneratorConfig"`
	DogRetirementTime   *float64          `json:"dogRetirementTime"`
	Maps                []mapJSON         `json:"maps"`
}

// Config is the parsed and validated game configuration.
type Config struct {
	DefaultDogSpeed    float64
	DefaultBagCapacity int
	LootPeriod         time.Duration
	LootProbability    float64
	DogRetirementTime  time.Duration

	maps      []mapJSON
	lootTypes map[string]json.RawMessage
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates raw JSON configuration bytes.
func Parse(data []byte) (*Config, error) {
	var file fileJSON
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg := &Config{
		DefaultDogSpeed:    defaultDogSpeed,
		DefaultBagCapacity: defaultBagCapacity,
		LootPeriod:         secondsToDuration(file.LootGeneratorConfig.Period),
		LootProbability:    file.LootGeneratorConfig.Probability,
		DogRetirementTime:  secondsToDuration(defaultRetirementSecs),
		maps:               file.Maps,
		lootTypes:          make(map[string]json.RawMessage),
	}
	if file.DefaultDogSpeed != nil {
		cfg.DefaultDogSpeed = *file.DefaultDogSpeed
	}
	if file.DefaultBagCapacity != nil {
		cfg.DefaultBagCapacity = *file.DefaultBagCapacity
	}
	if file.DogRetirementTime != nil {
		cfg.DogRetirementTime = secondsToDuration(*file.DogRetirementTime)
	}

	if len(file.Maps) == 0 {
		return nil, fmt.Errorf("%w: no maps defined", ErrInvalidConfig)
	}
	for _, m := range file.Maps {
		if err := validateMap(m); err != nil {
			return nil, err
		}
		cfg.lootTypes[m.ID] = m.LootTypes
	}
	return cfg, nil
}

func validateMap(m mapJSON) error {
	if m.ID == "" {
		return fmt.Errorf("%w: map with empty id", ErrInvalidConfig)
	}
	if m.Name == "" {
		return fmt.Errorf("%w: map %q has no name", ErrInvalidConfig, m.ID)
	}
	if len(m.Roads) == 0 {
		return fmt.Errorf("%w: map %q has no roads", ErrInvalidConfig, m.ID)
	}
	for i, r := range m.Roads {
		if (r.X1 == nil) == (r.Y1 == nil) {
			return fmt.Errorf("%w: map %q road %d must set exactly one of x1, y1",
				ErrInvalidConfig, m.ID, i)
		}
	}
	return nil
}

// BuildGame constructs the world model from the configuration.
func (c *Config) BuildGame() (*model.Game, error) {
	game := model.NewGame()
	for _, mj := range c.maps {
		m, err := c.buildMap(mj)
		if err != nil {
			return nil, err
		}
		if err := game.AddMap(m); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return game, nil
}

func (c *Config) buildMap(mj mapJSON) (*model.Map, error) {
	speed := c.DefaultDogSpeed
	if mj.DogSpeed != nil {
		speed = *mj.DogSpeed
	}
	capacity := c.DefaultBagCapacity
	if mj.BagCapacity != nil {
		capacity = *mj.BagCapacity
	}

	m := model.NewMap(mj.ID, mj.Name, speed, capacity)
	for _, r := range mj.Roads {
		if r.X1 != nil {
			m.AddRoad(model.NewHorizontalRoad(model.Point{X: r.X0, Y: r.Y0}, *r.X1))
		} else {
			m.AddRoad(model.NewVerticalRoad(model.Point{X: r.X0, Y: r.Y0}, *r.Y1))
		}
	}
	for _, b := range mj.Buildings {
		m.AddBuilding(model.Building{Bounds: model.Rectangle{
			Position: model.Point{X: b.X, Y: b.Y},
			Size:     model.Size{Width: b.W, Height: b.H},
		}})
	}
	for _, o := range mj.Offices {
		err := m.AddOffice(model.Office{
			ID:       o.ID,
			Position: model.Point{X: o.X, Y: o.Y},
			Offset:   model.Offset{DX: o.OffsetX, DY: o.OffsetY},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: map %q: %v", ErrInvalidConfig, mj.ID, err)
		}
	}

	values, err := lootValues(mj.LootTypes)
	if err != nil {
		return nil, fmt.Errorf("%w: map %q: %v", ErrInvalidConfig, mj.ID, err)
	}
	m.SetLootValues(values)
	return m, nil
}

// lootValues extracts the score value of each loot type, leaving the rest
// of the loot type payload opaque.
func lootValues(raw json.RawMessage) ([]int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var entries []struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing lootTypes: %v", err)
	}
	values := make([]int, len(entries))
	for i, e := range entries {
		values[i] = e.Value
	}
	return values, nil
}

// LootTypes returns the raw lootTypes array for a map, exactly as it
// appeared in the config file. Nil for an unknown map id.
func (c *Config) LootTypes(mapID string) json.RawMessage {
	return c.lootTypes[mapID]
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
