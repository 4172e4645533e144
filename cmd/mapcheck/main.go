// Command mapcheck provides a small CLI that validates world configuration
// JSON files before deploying them. It checks:
//   - JSON structure and required fields (via the config loader)
//   - That every map has at least one loot type and at least one office
//   - That every office sits on the road network
//   - Road connectivity: a dog must be able to walk between any two roads
//
// Usage:
//
//	mapcheck data/config.json [more files...]
package main

import (
	"fmt"
	"os"

	"github.com/fetchworks/lostandfound/game/config"
	"github.com/fetchworks/lostandfound/game/geom"
	"github.com/fetchworks/lostandfound/game/model"
)

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "usage: mapcheck <config.json> [more files...]")
		os.Exit(2)
	}

	failed := false
	for _, file := range files {
		result := validateFile(file)
		printResult(result)
		if !result.Valid {
			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

func printResult(result ValidationResult) {
	if result.Valid {
		fmt.Printf("✓ %s\n", result.File)
		return
	}
	fmt.Printf("✗ %s\n", result.File)
	for _, msg := range result.Errors {
		fmt.Printf("  - %s\n", msg)
	}
}

// validateFile loads one configuration file and runs every check against
// each of its maps.
func validateFile(path string) ValidationResult {
	result := ValidationResult{File: path}

	cfg, err := config.Load(path)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	game, err := cfg.BuildGame()
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	for _, m := range game.Maps() {
		result.Errors = append(result.Errors, validateMap(m)...)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// validateMap runs the per-map checks and returns human-readable problems.
func validateMap(m *model.Map) []string {
	var problems []string

	if m.LootTypeCount() == 0 {
		problems = append(problems, fmt.Sprintf("map %s: no loot types", m.ID()))
	}
	if len(m.Offices()) == 0 {
		problems = append(problems, fmt.Sprintf("map %s: no lost-and-found offices", m.ID()))
	}

	for _, office := range m.Offices() {
		pos := geom.Point2D{X: float64(office.Position.X), Y: float64(office.Position.Y)}
		if !m.OnRoads(pos) {
			problems = append(problems,
				fmt.Sprintf("map %s: office %s at (%d, %d) is off the road network",
					m.ID(), office.ID, office.Position.X, office.Position.Y))
		}
	}

	if !roadsConnected(m.Roads()) {
		problems = append(problems, fmt.Sprintf("map %s: road network is not connected", m.ID()))
	}

	return problems
}

// roadsConnected reports whether every road is reachable from the first one,
// treating overlapping bounds as a junction.
func roadsConnected(roads []model.Road) bool {
	if len(roads) <= 1 {
		return true
	}

	visited := make([]bool, len(roads))
	queue := []int{0}
	visited[0] = true
	seen := 1

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for i := range roads {
			if visited[i] {
				continue
			}
			if roadsTouch(roads[cur], roads[i]) {
				visited[i] = true
				seen++
				queue = append(queue, i)
			}
		}
	}

	return seen == len(roads)
}

// roadsTouch reports whether two roads' widened bounds overlap.
func roadsTouch(a, b model.Road) bool {
	aMin, aMax := a.Bounds()
	bMin, bMax := b.Bounds()
	return aMin.X <= bMax.X && bMin.X <= aMax.X &&
		aMin.Y <= bMax.Y && bMin.Y <= aMax.Y
}
